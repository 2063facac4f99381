package daemon

import (
	"context"
	"log/slog"

	"shuffler/internal/history"
	"shuffler/internal/logging"
	"shuffler/internal/playlist"
)

// historyRecorder writes supervisor play attempts to the history store.
type historyRecorder struct {
	store     *history.Store
	sessionID string
	logger    *slog.Logger
}

func (r *historyRecorder) Begin(ctx context.Context, pick playlist.Pick) int64 {
	id, err := r.store.Start(ctx, r.sessionID, pick.Seed, pick.Cursor, string(pick.Track))
	if err != nil {
		logging.WarnWithContext(r.logger, "failed to record play", "history_write_failed",
			logging.String(logging.FieldTrack, string(pick.Track)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "play history incomplete; playback continues"),
		)
		return 0
	}
	return id
}

func (r *historyRecorder) End(ctx context.Context, id int64, outcome history.Outcome, message string) {
	if id <= 0 {
		return
	}
	if err := r.store.Finish(ctx, id, outcome, message); err != nil {
		logging.WarnWithContext(r.logger, "failed to finish play record", "history_write_failed",
			logging.Int64("play_id", id),
			logging.String("outcome", string(outcome)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "play history incomplete; playback continues"),
		)
	}
}
