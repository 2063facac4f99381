package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shuffler/internal/daemonctl"
	"shuffler/internal/daemonrun"
)

func newSkipCommand(cli *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "skip",
		Short: "Skip the track the running daemon is playing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.loadConfig()
			if err != nil {
				return err
			}
			if err := daemonctl.Skip(cmd.Context(), cfg.Control.Bind); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Skipped current track")
			return nil
		},
	}
}

func newStopCommand(cli *cliState) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := daemonctl.Stop(daemonrun.PIDPath(cfg), timeout); err != nil {
				if errors.Is(err, daemonctl.ErrNotRunning) {
					fmt.Fprintln(out, "Daemon is not running")
					return nil
				}
				return err
			}
			fmt.Fprintln(out, "Daemon stopped")
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "How long to wait for shutdown")
	return cmd
}
