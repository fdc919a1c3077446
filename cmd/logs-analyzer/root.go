package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/thebtf/logs-analyzer/internal/config"
	"github.com/thebtf/logs-analyzer/internal/report"
	"github.com/thebtf/logs-analyzer/internal/runner"
)

// Version is set at build time via -ldflags.
var Version = "dev"

type rootFlags struct {
	config      string
	format      string
	nearestPool string
	watch       bool
	debug       bool
}

func newRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "logs-analyzer [output]",
		Short: "Group log lines by similarity to configured samples",
		Long: `Reads every log source listed in the configuration, assigns each line to
the first group whose sample is within the configured edit distance, and
writes the groups to the output file (default: ` + runner.DefaultOutput + `).
Use "-" as output to write to standard output.`,
		Args:          cobra.MaximumNArgs(1),
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}

			format, err := report.ParseFormat(flags.format)
			if err != nil {
				return err
			}

			opts := runner.Options{
				ConfigPath:  flags.config,
				Format:      format,
				NearestPool: flags.nearestPool,
			}
			if len(args) == 1 {
				opts.Output = args[0]
			}

			if flags.watch {
				return runner.Watch(cmd.Context(), opts, cmd.OutOrStdout())
			}
			_, err = runner.Run(cmd.Context(), opts, cmd.OutOrStdout())
			return err
		},
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.config, "config", "c", config.DefaultFileName, "Configuration file (.ini, .yaml or .yml)")
	f.StringVar(&flags.format, "format", string(report.FormatText), "Report format: text or json")
	f.StringVar(&flags.nearestPool, "nearest-pool", "", "Nearest-group candidates for unknown groups: all or configured (default: all)")
	f.BoolVar(&flags.watch, "watch", false, "Re-run whenever the configuration or a log source changes")
	f.BoolVar(&flags.debug, "debug", false, "Enable debug logging")

	return cmd
}
