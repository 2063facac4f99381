package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	cli := &cliState{}

	root := &cobra.Command{
		Use:   "shuffler",
		Short: "Play a track list in a reproducible shuffled order",
		Long: "shuffler plays a list of tracks back to back through an external player,\n" +
			"resuming at the same position after a restart. A small HTTP page on\n" +
			"control.bind shows the current track and skips it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !needsConfig(cmd) {
				return nil
			}
			_, err := cli.loadConfig()
			return err
		},
	}
	root.PersistentFlags().StringVarP(&cli.configFlag, "config", "c", "", "Configuration file path")

	root.AddCommand(
		newRunCommand(cli),
		newStatusCommand(cli),
		newSkipCommand(cli),
		newStopCommand(cli),
		newHistoryCommand(cli),
		newLogsCommand(cli),
		newConfigCommand(cli),
	)
	return root
}
