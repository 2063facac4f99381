// Package session bundles the playlist with its persisted cursor.
//
// A Session is the single mutable owner of playback progress: Next advances
// the cursor, writes it to the state file, and only then hands the track
// back. A crash after Next therefore resumes at the following track and
// never replays the one that was about to start.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"shuffler/internal/config"
	"shuffler/internal/logging"
	"shuffler/internal/playlist"
	"shuffler/internal/state"
)

// Options configures a Session.
type Options struct {
	StatePath   string
	OnExhausted string
	Logger      *slog.Logger
}

// Session implements player.Source over a playlist and a state file.
type Session struct {
	raw       []playlist.Track
	playlist  *playlist.Playlist
	state     state.State
	statePath string
	policy    string
	logger    *slog.Logger
}

// New builds the playlist for st over raw.
func New(raw []playlist.Track, st state.State, opts Options) (*Session, error) {
	pl, err := playlist.Build(raw, st.Seed)
	if err != nil {
		return nil, err
	}
	policy := opts.OnExhausted
	if policy == "" {
		policy = config.ExhaustReshuffle
	}
	return &Session{
		raw:       append([]playlist.Track(nil), raw...),
		playlist:  pl,
		state:     st,
		statePath: opts.StatePath,
		policy:    policy,
		logger:    logging.NewComponentLogger(opts.Logger, "session"),
	}, nil
}

// Open loads or creates the state named by cfg and builds the playlist from
// the configured track list. fresh reports whether a new seed was generated.
// A malformed state file or unreadable track list is returned as an error.
func Open(cfg *config.Config, logger *slog.Logger) (*Session, bool, error) {
	st, fresh, err := state.LoadOrFresh(cfg.Paths.StateFile)
	if err != nil {
		return nil, false, err
	}
	raw, err := playlist.ReadTrackFile(cfg.Paths.TrackList)
	if err != nil {
		return nil, false, err
	}
	sess, err := New(raw, st, Options{
		StatePath:   cfg.Paths.StateFile,
		OnExhausted: cfg.Playback.OnExhausted,
		Logger:      logger,
	})
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", cfg.Paths.TrackList, err)
	}
	return sess, fresh, nil
}

// State returns the in-memory state.
func (s *Session) State() state.State {
	return s.state
}

// Playlist returns the current shuffled order.
func (s *Session) Playlist() *playlist.Playlist {
	return s.playlist
}

// Upcoming returns the track Next would return without advancing.
func (s *Session) Upcoming() (playlist.Track, bool) {
	return s.playlist.At(s.state.Index)
}

// Next advances the cursor, persists it, and returns the pick. A failed
// save is logged and does not stop playback.
func (s *Session) Next(ctx context.Context) (playlist.Pick, error) {
	if err := ctx.Err(); err != nil {
		return playlist.Pick{}, err
	}
	cursor := s.state.Index
	track, err := s.playlist.Advance(&cursor)
	if errors.Is(err, playlist.ErrExhausted) {
		if recoverErr := s.applyExhaustion(); recoverErr != nil {
			return playlist.Pick{}, recoverErr
		}
		cursor = s.state.Index
		track, err = s.playlist.Advance(&cursor)
	}
	if err != nil {
		return playlist.Pick{}, err
	}

	pick := playlist.Pick{Track: track, Cursor: cursor - 1, Seed: s.state.Seed}
	s.state.Index = cursor
	s.persist()
	return pick, nil
}

// Persist writes the current state, returning any error.
func (s *Session) Persist() error {
	if s.statePath == "" {
		return nil
	}
	return state.Save(s.statePath, s.state)
}

func (s *Session) persist() {
	if err := s.Persist(); err != nil {
		logging.WarnWithContext(s.logger, "failed to persist playlist cursor", "persist_failed",
			logging.Uint64(logging.FieldCursor, s.state.Index),
			logging.String("state_file", s.statePath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions and free space for the state file"),
			logging.String(logging.FieldImpact, "playback continues; a restart may replay earlier tracks"),
		)
	}
}

func (s *Session) applyExhaustion() error {
	switch s.policy {
	case config.ExhaustWrap:
		s.state.Index = 0
		s.logger.Info("playlist wrapped",
			logging.String(logging.FieldEventType, "playlist_wrapped"),
			logging.Int("tracks", s.playlist.Len()),
		)
		return nil
	case config.ExhaustReshuffle:
		next := state.Fresh()
		pl, err := playlist.Build(s.raw, next.Seed)
		if err != nil {
			return err
		}
		s.playlist = pl
		s.state = next
		s.logger.Info("playlist reshuffled",
			logging.String(logging.FieldEventType, "playlist_reshuffled"),
			logging.Uint64("seed", next.Seed),
			logging.Int("tracks", pl.Len()),
		)
		return nil
	default:
		return fmt.Errorf("%w: %d tracks played", playlist.ErrExhausted, s.playlist.Len())
	}
}
