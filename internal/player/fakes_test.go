package player_test

import (
	"context"
	"errors"
	"sync"

	"shuffler/internal/history"
	"shuffler/internal/playlist"
	"shuffler/internal/player"
)

type fakeProcess struct {
	pid          int
	exited       bool
	pollErr      error
	terminateErr error
	ignoreTerm   bool
	terminated   bool
	killed       bool
}

func (p *fakeProcess) PID() int { return p.pid }

func (p *fakeProcess) Poll() (bool, error) {
	if p.pollErr != nil {
		return false, p.pollErr
	}
	return p.exited, nil
}

func (p *fakeProcess) Terminate() error {
	if p.terminateErr != nil {
		return p.terminateErr
	}
	p.terminated = true
	if !p.ignoreTerm {
		p.exited = true
	}
	return nil
}

func (p *fakeProcess) Kill() error {
	p.killed = true
	p.exited = true
	return nil
}

func (p *fakeProcess) Wait(ctx context.Context) error {
	if p.exited {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (p *fakeProcess) ExitErr() error { return nil }

type fakeLauncher struct {
	launched []playlist.Track
	procs    []*fakeProcess
	failNext int
	prepare  func(*fakeProcess)
}

func (l *fakeLauncher) Launch(_ context.Context, track playlist.Track) (player.Process, error) {
	l.launched = append(l.launched, track)
	if l.failNext > 0 {
		l.failNext--
		return nil, player.ErrSpawn
	}
	proc := &fakeProcess{pid: 1000 + len(l.procs)}
	if l.prepare != nil {
		l.prepare(proc)
	}
	l.procs = append(l.procs, proc)
	return proc, nil
}

func (l *fakeLauncher) last() *fakeProcess {
	return l.procs[len(l.procs)-1]
}

type sliceSource struct {
	tracks []playlist.Track
	cursor uint64
	err    error
}

func (s *sliceSource) Next(context.Context) (playlist.Pick, error) {
	if s.err != nil {
		return playlist.Pick{}, s.err
	}
	if s.cursor >= uint64(len(s.tracks)) {
		return playlist.Pick{}, playlist.ErrExhausted
	}
	pick := playlist.Pick{Track: s.tracks[s.cursor], Cursor: s.cursor}
	s.cursor++
	return pick, nil
}

type outcomeLog struct {
	mu       sync.Mutex
	begun    []playlist.Track
	outcomes []history.Outcome
}

func (r *outcomeLog) Begin(_ context.Context, pick playlist.Pick) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.begun = append(r.begun, pick.Track)
	return int64(len(r.begun))
}

func (r *outcomeLog) End(_ context.Context, _ int64, outcome history.Outcome, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

var errBoom = errors.New("boom")

// runningPick reports the pick of the live process, if any.
func runningPick(sup *player.Supervisor) (playlist.Pick, bool) {
	snap := sup.Snapshot()
	return snap.Pick, snap.Running
}
