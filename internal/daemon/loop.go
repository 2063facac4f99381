package daemon

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"shuffler/internal/control"
	"shuffler/internal/logging"
	"shuffler/internal/player"
)

// RequestSource yields control requests with a bounded wait.
type RequestSource interface {
	Receive(ctx context.Context, timeout time.Duration) (*control.Request, bool, error)
}

// Player is the supervisor surface the loop drives.
type Player interface {
	Tick(ctx context.Context)
	Skip(ctx context.Context) error
	Snapshot() player.Snapshot
}

// Loop merges control requests and supervisor polling on one goroutine.
type Loop struct {
	source       RequestSource
	player       Player
	pollTimeout  time.Duration
	strictRoutes bool
	logger       *slog.Logger
}

// NewLoop constructs a loop.
func NewLoop(source RequestSource, p Player, pollTimeout time.Duration, strictRoutes bool, logger *slog.Logger) *Loop {
	if pollTimeout <= 0 {
		pollTimeout = 500 * time.Millisecond
	}
	return &Loop{
		source:       source,
		player:       p,
		pollTimeout:  pollTimeout,
		strictRoutes: strictRoutes,
		logger:       logging.NewComponentLogger(logger, "loop"),
	}
}

// Run iterates until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := l.Step(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// Step runs one iteration: wait for at most one request, dispatch it, then
// poll the supervisor. It returns an error only when ctx is done.
func (l *Loop) Step(ctx context.Context) error {
	req, ok, err := l.source.Receive(ctx, l.pollTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.WarnWithContext(l.logger, "control request wait failed", "control_receive_failed", logging.Error(err))
	} else if ok {
		req.Respond(l.dispatch(ctx, req))
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	l.player.Tick(ctx)
	return nil
}

func (l *Loop) dispatch(ctx context.Context, req *control.Request) control.Response {
	l.logger.Debug("control request",
		logging.String("route", req.Route.String()),
		logging.String("method", req.Method),
		logging.String("path", req.Path),
	)
	switch req.Route {
	case control.RouteStatus:
		return control.RenderStatus(l.player.Snapshot())
	case control.RouteSkip:
		err := l.player.Skip(ctx)
		if err != nil {
			logging.WarnWithContext(l.logger, "skip failed", "skip_failed",
				logging.Error(err),
				logging.Bool("process_control", errors.Is(err, player.ErrProcessControl)),
			)
		}
		return control.RenderSkip(err)
	default:
		return control.RenderUnsupported(l.strictRoutes)
	}
}
