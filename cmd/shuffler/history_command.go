package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"shuffler/internal/history"
)

func newHistoryCommand(cli *cliState) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently played tracks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := os.Stat(cfg.Paths.HistoryDB); errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintln(out, "No play history recorded yet")
				return nil
			}
			store, err := history.OpenPath(cfg.Paths.HistoryDB)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No play history recorded yet")
				return nil
			}
			fmt.Fprintln(out, renderHistoryTable(entries))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	return cmd
}

func renderHistoryTable(entries []history.Entry) string {
	cols := []column{
		{title: "ID", right: true},
		{title: "Started"},
		{title: "Cursor", right: true},
		{title: "Outcome"},
		{title: "Duration", right: true},
		{title: "Track"},
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		duration := "-"
		if !e.EndedAt.IsZero() && !e.StartedAt.IsZero() {
			duration = e.EndedAt.Sub(e.StartedAt).Round(time.Second).String()
		}
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.StartedAt.Local().Format("2006-01-02 15:04:05"),
			strconv.FormatUint(e.Cursor, 10),
			string(e.Outcome),
			duration,
			e.Track,
		})
	}
	return renderTable(cols, rows)
}
