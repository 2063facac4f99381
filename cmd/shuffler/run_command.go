package main

import (
	"github.com/spf13/cobra"

	"shuffler/internal/daemonrun"
)

func newRunCommand(cli *cliState) *cobra.Command {
	var logLevel string
	var development bool
	var quiet bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the player in the foreground until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.loadConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    logLevel,
				Development: development,
				Stdout:      !quiet,
			})
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&development, "dev", false, "Include source locations in log records")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Write logs only to the run log file")
	return cmd
}
