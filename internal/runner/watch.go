package runner

import (
	"context"
	"io"
	"slices"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/thebtf/logs-analyzer/internal/config"
	"github.com/thebtf/logs-analyzer/internal/watcher"
)

// Watch runs once, then re-runs whenever the configuration file or a source
// changes, until ctx is done. Every re-run starts from an empty engine. A
// failing re-run is logged and the previous report is left in place.
//
// Sources are watched as configured at start; sources added to the
// configuration later are analyzed but not watched.
func Watch(ctx context.Context, opts Options, stdout io.Writer) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if _, err := run(ctx, cfg, opts, stdout); err != nil {
		return err
	}

	var ignore []string
	if out := opts.output(); out != Stdout {
		ignore = append(ignore, out)
	}

	trigger := make(chan struct{}, 1)
	w, err := watcher.New(append([]string{opts.ConfigPath}, cfg.Sources...), ignore, func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}

	log.Info().Strs("sources", cfg.Sources).Str("config", opts.ConfigPath).Msg("Watching for changes")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx) })
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-trigger:
			}

			next, err := config.Load(opts.ConfigPath)
			if err != nil {
				log.Error().Err(err).Str("code", config.Code(err)).Msg("Re-run skipped, configuration invalid")
				continue
			}
			if !slices.Equal(next.Sources, cfg.Sources) {
				log.Warn().Strs("sources", next.Sources).Msg("Sources changed, restart to watch new sources")
			}
			if _, err := run(gctx, next, opts, stdout); err != nil {
				if gctx.Err() != nil {
					return nil
				}
				log.Error().Err(err).Msg("Re-run failed")
			}
		}
	})

	return g.Wait()
}
