// logs-analyzer groups the lines of log files by edit distance to configured
// sample lines and writes a report of every group.
//
// Usage:
//
//	logs-analyzer [output] [--config=logs-analyzer.ini] [--format=text|json]
//	              [--nearest-pool=all|configured] [--watch] [--debug]
//
// The output defaults to logs-analyzer.out; "-" writes to standard output.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The report may go to stdout, so log to stderr.
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("logs-analyzer failed")
		stop()
		os.Exit(1)
	}
}
