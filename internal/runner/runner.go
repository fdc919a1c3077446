// Package runner wires configuration, source walking, clustering and report
// rendering into a single analysis run.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/logs-analyzer/internal/analyzer"
	"github.com/thebtf/logs-analyzer/internal/config"
	"github.com/thebtf/logs-analyzer/internal/report"
	"github.com/thebtf/logs-analyzer/internal/walker"
)

const (
	// DefaultOutput is the report file written when no output is given.
	DefaultOutput = "logs-analyzer.out"
	// Stdout selects standard output as the report destination.
	Stdout = "-"
)

// Options configure a run.
type Options struct {
	ConfigPath  string
	Output      string        // DefaultOutput when empty, Stdout for standard output
	Format      report.Format // FormatText when empty
	NearestPool string        // overrides the configuration file when set
}

func (o Options) output() string {
	if o.Output == "" {
		return DefaultOutput
	}
	return o.Output
}

// Result is a completed analysis.
type Result struct {
	Engine   *analyzer.Engine
	RunID    string
	Pool     analyzer.NearestPool
	Walk     walker.Stats
	Duration time.Duration
}

var metrics = sync.OnceValue(newInstruments)

// Analyze clusters every line of cfg's sources with a fresh engine, then links
// implicit groups to their nearest candidate in pool.
func Analyze(ctx context.Context, cfg *config.Config, pool analyzer.NearestPool) (*Result, error) {
	start := time.Now()
	r := &Result{
		RunID:  uuid.New().String(),
		Pool:   pool,
		Engine: analyzer.New(cfg.Distance, cfg.Sections),
	}

	stats, err := walker.Walk(ctx, cfg.Sources, func(origin, line string) {
		r.Engine.Assign(line, origin)
	})
	r.Walk = stats
	if err != nil {
		return nil, fmt.Errorf("walk sources: %w", err)
	}
	if r.Engine.Lines() != stats.Lines {
		return nil, fmt.Errorf("line count mismatch: read %d, assigned %d", stats.Lines, r.Engine.Lines())
	}

	r.Engine.PostAnalyze(pool)
	r.Duration = since(start)
	metrics().record(ctx, r)

	log.Info().
		Str("run_id", r.RunID).
		Int("lines", stats.Lines).
		Int("files", stats.Files).
		Int("groups", len(r.Engine.Groups())).
		Int("implicit", r.Engine.Implicit()).
		Int("errors", len(stats.Errors)).
		Dur("duration", r.Duration).
		Msg("Analysis complete")

	return r, nil
}

// Run loads the configuration, analyzes its sources and writes the report.
// stdout receives the report when opts.Output is Stdout.
func Run(ctx context.Context, opts Options, stdout io.Writer) (*Result, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	return run(ctx, cfg, opts, stdout)
}

func run(ctx context.Context, cfg *config.Config, opts Options, stdout io.Writer) (*Result, error) {
	pool, err := resolvePool(opts, cfg)
	if err != nil {
		return nil, err
	}

	r, err := Analyze(ctx, cfg, pool)
	if err != nil {
		return nil, err
	}

	if err := write(opts, cfg, r, stdout); err != nil {
		return nil, err
	}
	return r, nil
}

func resolvePool(opts Options, cfg *config.Config) (analyzer.NearestPool, error) {
	name := opts.NearestPool
	if name == "" {
		name = cfg.NearestPool
	}
	return analyzer.ParseNearestPool(name)
}

func write(opts Options, cfg *config.Config, r *Result, stdout io.Writer) error {
	dest := opts.output()
	if dest == Stdout {
		return render(stdout, opts.Format, cfg, r)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := render(f, opts.Format, cfg, r); err != nil {
		f.Close()
		return fmt.Errorf("write report %s: %w", dest, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report %s: %w", dest, err)
	}

	log.Debug().Str("path", dest).Msg("Report written")
	return nil
}

func render(w io.Writer, format report.Format, cfg *config.Config, r *Result) error {
	switch format {
	case "", report.FormatText:
		return report.WriteText(w, r.Engine)
	case report.FormatJSON:
		return report.WriteJSON(w, report.Meta{
			RunID:       r.RunID,
			NearestPool: string(r.Pool),
			Threshold:   cfg.Distance,
			Lines:       r.Walk.Lines,
			Files:       r.Walk.Files,
		}, r.Engine)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}
