package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shuffler/internal/config"
	"shuffler/internal/control"
	"shuffler/internal/history"
	"shuffler/internal/logging"
	"shuffler/internal/player"
	"shuffler/internal/playlist"
	"shuffler/internal/session"
	"shuffler/internal/state"
)

// Options customizes daemon construction.
type Options struct {
	SessionID string
	// Launcher overrides the configured exec launcher.
	Launcher player.Launcher
}

// Daemon owns every long-lived resource of one playback run.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	lock       *state.Lock
	session    *session.Session
	supervisor *player.Supervisor
	server     *control.Server
	history    *history.Store
	loop       *Loop
}

// Status is a point-in-time view of the daemon.
type Status struct {
	Bind     string
	Seed     uint64
	Cursor   uint64
	Total    int
	Next     playlist.Track
	Player   player.Snapshot
	LockPath string
}

func (s Status) logAttrs() []any {
	attrs := []any{
		logging.String("bind", s.Bind),
		logging.Uint64("seed", s.Seed),
		logging.Uint64(logging.FieldCursor, s.Cursor),
		logging.Int("tracks", s.Total),
		logging.String("lock_path", s.LockPath),
	}
	if s.Next != "" {
		attrs = append(attrs, logging.String("next_track", string(s.Next)))
	}
	if s.Player.Running {
		attrs = append(attrs, logging.Int("player_pid", s.Player.PID))
	}
	return attrs
}

// New runs the startup sequence. Any error is fatal for the run.
func New(cfg *config.Config, logger *slog.Logger, opts Options) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	d := &Daemon{cfg: cfg, logger: logging.NewComponentLogger(logger, "daemon")}
	lock, err := state.AcquireLock(cfg.LockPath())
	if err != nil {
		return nil, err
	}
	d.lock = lock

	sess, fresh, err := session.Open(cfg, logger)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("load session: %w", err)
	}
	d.session = sess
	st := sess.State()
	if fresh {
		if err := sess.Persist(); err != nil {
			logging.WarnWithContext(d.logger, "failed to persist fresh state", "persist_failed", logging.Error(err))
		}
	}
	d.logger.Info("session loaded",
		logging.String(logging.FieldEventType, "session_loaded"),
		logging.Bool("fresh", fresh),
		logging.Uint64("seed", st.Seed),
		logging.Uint64(logging.FieldCursor, st.Index),
		logging.Int("tracks", sess.Playlist().Len()),
	)

	var recorder player.Recorder
	if cfg.History.Enabled {
		store, err := history.Open(cfg)
		if err != nil {
			logging.WarnWithContext(d.logger, "play history unavailable", "history_open_failed",
				logging.String("path", cfg.Paths.HistoryDB),
				logging.Error(err),
				logging.String(logging.FieldImpact, "plays will not be recorded; playback continues"),
			)
		} else {
			if swept, err := store.SweepUnfinished(context.Background()); err != nil {
				d.logger.Warn("failed to sweep unfinished plays", logging.Error(err))
			} else if swept > 0 {
				d.logger.Info("marked unfinished plays interrupted", logging.Int64("count", swept))
			}
			d.history = store
			recorder = &historyRecorder{store: store, sessionID: opts.SessionID, logger: d.logger}
		}
	}

	launcher := opts.Launcher
	if launcher == nil {
		launcher = player.ExecLauncher{
			Command:     cfg.Player.Command,
			Args:        cfg.Player.Args,
			AppendTrack: cfg.Player.AppendTrack,
		}
	}
	supervisor, err := player.NewSupervisor(player.Options{
		Launcher:    launcher,
		Source:      sess,
		Recorder:    recorder,
		KillTimeout: cfg.KillTimeout(),
		Logger:      logger,
	})
	if err != nil {
		d.Close()
		return nil, err
	}
	d.supervisor = supervisor

	server, err := control.Listen(cfg.Control.Bind, logger)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.server = server
	d.loop = NewLoop(server, supervisor, cfg.PollTimeout(), cfg.Control.StrictRoutes, logger)
	return d, nil
}

// Addr returns the bound control address.
func (d *Daemon) Addr() string {
	if d.server == nil {
		return ""
	}
	return d.server.Addr()
}

// Status returns the current session and player view. It must be called
// from the goroutine running the loop or after Run returns.
func (d *Daemon) Status() Status {
	st := d.session.State()
	next, _ := d.session.Upcoming()
	return Status{
		Next:     next,
		Bind:     d.Addr(),
		Seed:     st.Seed,
		Cursor:   st.Index,
		Total:    d.session.Playlist().Len(),
		Player:   d.supervisor.Snapshot(),
		LockPath: d.lock.Path(),
	}
}

// Run serves the control surface and drives the loop until ctx is done,
// then stops the player.
func (d *Daemon) Run(ctx context.Context) error {
	d.server.Serve()
	d.logger.Info("shuffler daemon started",
		append([]any{logging.String(logging.FieldEventType, "daemon_started")}, d.Status().logAttrs()...)...,
	)
	err := d.loop.Run(ctx)
	d.shutdown()
	return err
}

func (d *Daemon) shutdown() {
	stopCtx, cancel := context.WithTimeout(context.Background(), 2*d.cfg.KillTimeout()+time.Second)
	defer cancel()
	if err := d.supervisor.Stop(stopCtx); err != nil {
		logging.ErrorWithContext(d.logger, "failed to stop player", "player_stop_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "a player process may still be running"),
		)
	}
	if err := d.server.Shutdown(stopCtx); err != nil {
		d.logger.Debug("control shutdown", logging.Error(err))
	}
	d.logger.Info("shuffler daemon stopped",
		append([]any{logging.String(logging.FieldEventType, "daemon_stopped")}, d.Status().logAttrs()...)...,
	)
}

// Close releases the history database and the state lock.
func (d *Daemon) Close() {
	if d.history != nil {
		if err := d.history.Close(); err != nil {
			d.logger.Warn("failed to close history", logging.Error(err))
		}
		d.history = nil
	}
	if d.lock != nil {
		if err := d.lock.Release(); err != nil {
			d.logger.Warn("failed to release state lock", logging.Error(err))
		}
		d.lock = nil
	}
}
