package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"shuffler/internal/config"
	"shuffler/internal/daemonctl"
	"shuffler/internal/daemonrun"
	"shuffler/internal/playlist"
	"shuffler/internal/preflight"
	"shuffler/internal/state"
)

func newStatusCommand(cli *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show playback position, daemon state, and readiness checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			report := newStatusReport(out)
			daemonSection(cmd.Context(), report, cfg, cli.cfgPath)
			playlistSection(report, cfg)
			checksSection(report, cfg)
			report.writeTo(out)
			return nil
		},
	}
}

func daemonSection(ctx context.Context, r *statusReport, cfg *config.Config, configPath string) {
	r.section("Daemon")
	running, pid, err := daemonctl.ProcessInfo(daemonrun.PIDPath(cfg))
	switch {
	case err != nil:
		r.add("Process", levelWarn, err.Error())
	case running:
		r.add("Process", levelOK, "running (pid "+strconv.Itoa(pid)+")")
		if text, err := daemonctl.Status(ctx, cfg.Control.Bind); err == nil {
			r.add("Control", levelOK, text)
		} else {
			r.add("Control", levelWarn, err.Error())
		}
	default:
		r.add("Process", levelInfo, "not running")
	}
	r.add("Bind", levelInfo, cfg.Control.Bind)
	r.add("Config", levelInfo, configPath)
}

func playlistSection(r *statusReport, cfg *config.Config) {
	r.section("Playlist")
	st, err := state.Load(cfg.Paths.StateFile)
	switch {
	case errors.Is(err, state.ErrNotFound):
		r.add("State", levelInfo, "no state yet; the next run starts a fresh shuffle")
		return
	case err != nil:
		r.add("State", levelError, err.Error())
		return
	}

	r.add("Seed", levelInfo, strconv.FormatUint(st.Seed, 10))
	pl, err := playlist.Load(cfg.Paths.TrackList, st.Seed)
	if err != nil {
		r.add("Tracks", levelError, err.Error())
		return
	}
	r.add("Cursor", levelInfo, fmt.Sprintf("%d of %d", st.Index, pl.Len()))
	if next, ok := pl.At(st.Index); ok {
		r.add("Next", levelInfo, string(next))
	} else {
		r.add("Next", levelWarn, "playlist exhausted; on_exhausted="+cfg.Playback.OnExhausted)
	}
	r.add("History", levelInfo, yesNo(cfg.History.Enabled))
}

func checksSection(r *statusReport, cfg *config.Config) {
	r.section("Checks")
	for _, res := range preflight.RunAll(cfg) {
		lv := levelOK
		if !res.Passed {
			lv = levelError
			if res.Optional {
				lv = levelWarn
			}
		}
		r.add(res.Name, lv, res.Detail)
	}
}
