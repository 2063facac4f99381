package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shuffler/internal/history"
	"shuffler/internal/logging"
	"shuffler/internal/playlist"
)

const defaultKillTimeout = 5 * time.Second

// Source yields the next pick. Implementations persist the advanced cursor
// before returning so a crash never replays the returned track.
type Source interface {
	Next(ctx context.Context) (playlist.Pick, error)
}

// Recorder receives play attempts. Failures are the recorder's concern;
// playback never waits on them.
type Recorder interface {
	Begin(ctx context.Context, pick playlist.Pick) int64
	End(ctx context.Context, id int64, outcome history.Outcome, message string)
}

type nopRecorder struct{}

func (nopRecorder) Begin(context.Context, playlist.Pick) int64 { return 0 }

func (nopRecorder) End(context.Context, int64, history.Outcome, string) {}

// Options configures a Supervisor.
type Options struct {
	Launcher    Launcher
	Source      Source
	Recorder    Recorder
	KillTimeout time.Duration
	Logger      *slog.Logger
}

// Snapshot describes what the supervisor is doing.
type Snapshot struct {
	Running bool
	// Pick is the running track, or the last started one when Idle.
	Pick     playlist.Pick
	HasTrack bool
	PID      int
	Since    time.Time
}

type running struct {
	proc    Process
	pick    playlist.Pick
	playID  int64
	started time.Time
}

// Supervisor owns at most one player process.
type Supervisor struct {
	launcher    Launcher
	source      Source
	recorder    Recorder
	killTimeout time.Duration
	logger      *slog.Logger

	current   *running
	last      *playlist.Pick
	exhausted bool
}

// NewSupervisor constructs an Idle supervisor.
func NewSupervisor(opts Options) (*Supervisor, error) {
	if opts.Launcher == nil || opts.Source == nil {
		return nil, errors.New("supervisor requires a launcher and a source")
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	killTimeout := opts.KillTimeout
	if killTimeout <= 0 {
		killTimeout = defaultKillTimeout
	}
	return &Supervisor{
		launcher:    opts.Launcher,
		source:      opts.Source,
		recorder:    recorder,
		killTimeout: killTimeout,
		logger:      logging.NewComponentLogger(opts.Logger, "player"),
	}, nil
}

// Snapshot returns the supervisor state for rendering.
func (s *Supervisor) Snapshot() Snapshot {
	if s.current != nil {
		return Snapshot{
			Running:  true,
			Pick:     s.current.pick,
			HasTrack: true,
			PID:      s.current.proc.PID(),
			Since:    s.current.started,
		}
	}
	if s.last != nil {
		return Snapshot{Pick: *s.last, HasTrack: true}
	}
	return Snapshot{}
}

// Tick advances the state machine by one step.
func (s *Supervisor) Tick(ctx context.Context) {
	if s.current != nil {
		s.pollRunning(ctx)
		return
	}
	s.startNext(ctx)
}

func (s *Supervisor) pollRunning(ctx context.Context) {
	cur := s.current
	exited, err := cur.proc.Poll()
	if err != nil {
		logging.WarnWithContext(s.logger, "player status check failed; assuming still running", "status_check_failed",
			logging.Int("pid", cur.proc.PID()),
			logging.String(logging.FieldTrack, string(cur.pick.Track)),
			logging.Error(err),
		)
		return
	}
	if !exited {
		return
	}
	s.current = nil
	message := ""
	if exitErr := cur.proc.ExitErr(); exitErr != nil {
		message = exitErr.Error()
	}
	s.recorder.End(ctx, cur.playID, history.OutcomeFinished, message)
	s.logger.Info("track finished",
		logging.String(logging.FieldEventType, "track_finished"),
		logging.String(logging.FieldTrack, string(cur.pick.Track)),
		logging.Duration("played_for", time.Since(cur.started).Round(time.Millisecond)),
	)
}

func (s *Supervisor) startNext(ctx context.Context) {
	pick, err := s.source.Next(ctx)
	if err != nil {
		if errors.Is(err, playlist.ErrExhausted) {
			if !s.exhausted {
				s.exhausted = true
				logging.WarnWithContext(s.logger, "playlist exhausted; playback stopped", "playlist_exhausted",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "set playback.on_exhausted to reshuffle or wrap, or delete the state file"),
					logging.String(logging.FieldImpact, "no further tracks will play"),
				)
			}
			return
		}
		logging.WarnWithContext(s.logger, "could not pick next track", "advance_failed", logging.Error(err))
		return
	}
	s.exhausted = false

	playID := s.recorder.Begin(ctx, pick)
	proc, err := s.launcher.Launch(ctx, pick.Track)
	if err != nil {
		s.recorder.End(ctx, playID, history.OutcomeSpawnFailed, err.Error())
		logging.ErrorWithContext(s.logger, "player spawn failed; track skipped", "spawn_failed",
			logging.String(logging.FieldTrack, string(pick.Track)),
			logging.Uint64(logging.FieldCursor, pick.Cursor),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check player.command and that the track path exists"),
		)
		return
	}
	s.current = &running{proc: proc, pick: pick, playID: playID, started: time.Now()}
	s.last = &pick
	s.logger.Info("track started",
		logging.String(logging.FieldEventType, "track_started"),
		logging.String(logging.FieldTrack, string(pick.Track)),
		logging.Uint64(logging.FieldCursor, pick.Cursor),
		logging.Int("pid", proc.PID()),
	)
}

// Skip terminates the running player and waits for it to be reaped. It is a
// no-op when Idle. On failure the process is kept so the next Tick keeps
// observing it.
func (s *Supervisor) Skip(ctx context.Context) error {
	return s.halt(ctx, history.OutcomeSkipped, "track skipped")
}

// Stop terminates the running player during shutdown.
func (s *Supervisor) Stop(ctx context.Context) error {
	return s.halt(ctx, history.OutcomeInterrupted, "player stopped for shutdown")
}

func (s *Supervisor) halt(ctx context.Context, outcome history.Outcome, msg string) error {
	cur := s.current
	if cur == nil {
		return nil
	}
	if err := s.terminate(ctx, cur.proc); err != nil {
		return fmt.Errorf("%w: pid %d: %w", ErrProcessControl, cur.proc.PID(), err)
	}
	s.current = nil
	s.recorder.End(ctx, cur.playID, outcome, "")
	s.logger.Info(msg,
		logging.String(logging.FieldEventType, "track_"+string(outcome)),
		logging.String(logging.FieldTrack, string(cur.pick.Track)),
		logging.Duration("played_for", time.Since(cur.started).Round(time.Millisecond)),
	)
	return nil
}

// terminate sends SIGTERM, waits up to the kill timeout, then escalates to
// SIGKILL and waits again.
func (s *Supervisor) terminate(ctx context.Context, proc Process) error {
	if err := proc.Terminate(); err != nil {
		return fmt.Errorf("terminate: %w", err)
	}
	graceCtx, cancel := context.WithTimeout(ctx, s.killTimeout)
	err := proc.Wait(graceCtx)
	cancel()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("wait: %w", ctx.Err())
	}

	logging.WarnWithContext(s.logger, "player ignored SIGTERM; killing", "player_kill_escalated",
		logging.Int("pid", proc.PID()),
		logging.Duration("grace", s.killTimeout),
	)
	if err := proc.Kill(); err != nil {
		return fmt.Errorf("kill: %w", err)
	}
	reapCtx, cancel := context.WithTimeout(ctx, s.killTimeout)
	defer cancel()
	if err := proc.Wait(reapCtx); err != nil {
		return fmt.Errorf("wait after kill: %w", err)
	}
	return nil
}
