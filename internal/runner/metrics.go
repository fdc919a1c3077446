package runner

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/thebtf/logs-analyzer/internal/runner"

// instruments records per-run totals. Without a configured MeterProvider the
// global no-op provider is used and recording costs nothing.
type instruments struct {
	lines    metric.Int64Counter
	files    metric.Int64Counter
	errors   metric.Int64Counter
	groups   metric.Int64Counter
	duration metric.Float64Histogram
}

func newInstruments() *instruments {
	meter := otel.Meter(meterName)
	ins := &instruments{}

	var err error
	if ins.lines, err = meter.Int64Counter("logs_analyzer.lines",
		metric.WithDescription("Log lines assigned to a group")); err != nil {
		log.Debug().Err(err).Msg("Metric instrument unavailable")
	}
	if ins.files, err = meter.Int64Counter("logs_analyzer.files",
		metric.WithDescription("Log files read")); err != nil {
		log.Debug().Err(err).Msg("Metric instrument unavailable")
	}
	if ins.errors, err = meter.Int64Counter("logs_analyzer.source_errors",
		metric.WithDescription("Log sources that could not be read")); err != nil {
		log.Debug().Err(err).Msg("Metric instrument unavailable")
	}
	if ins.groups, err = meter.Int64Counter("logs_analyzer.implicit_groups",
		metric.WithDescription("Groups created for lines matching no known group")); err != nil {
		log.Debug().Err(err).Msg("Metric instrument unavailable")
	}
	if ins.duration, err = meter.Float64Histogram("logs_analyzer.run.duration",
		metric.WithDescription("Duration of an analysis run"),
		metric.WithUnit("s")); err != nil {
		log.Debug().Err(err).Msg("Metric instrument unavailable")
	}
	return ins
}

func (i *instruments) record(ctx context.Context, r *Result) {
	attrs := metric.WithAttributes(attribute.String("nearest_pool", string(r.Pool)))
	if i.lines != nil {
		i.lines.Add(ctx, int64(r.Engine.Lines()), attrs)
	}
	if i.files != nil {
		i.files.Add(ctx, int64(r.Walk.Files), attrs)
	}
	if i.errors != nil {
		i.errors.Add(ctx, int64(len(r.Walk.Errors)), attrs)
	}
	if i.groups != nil {
		i.groups.Add(ctx, int64(r.Engine.Implicit()), attrs)
	}
	if i.duration != nil {
		i.duration.Record(ctx, r.Duration.Seconds(), attrs)
	}
}

func since(start time.Time) time.Duration {
	return time.Since(start).Round(time.Millisecond)
}
