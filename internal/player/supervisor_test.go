package player_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"shuffler/internal/history"
	"shuffler/internal/playlist"
	"shuffler/internal/player"
)

func newSupervisor(t *testing.T, launcher player.Launcher, source player.Source, rec player.Recorder) *player.Supervisor {
	t.Helper()
	sup, err := player.NewSupervisor(player.Options{
		Launcher:    launcher,
		Source:      source,
		Recorder:    rec,
		KillTimeout: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewSupervisor: %v", err)
	}
	return sup
}

func TestTickStartsAndDetectsExit(t *testing.T) {
	launcher := &fakeLauncher{}
	source := &sliceSource{tracks: []playlist.Track{"a", "b"}}
	rec := &outcomeLog{}
	sup := newSupervisor(t, launcher, source, rec)
	ctx := context.Background()

	if _, ok := runningPick(sup); ok {
		t.Fatal("expected no current track before first tick")
	}
	sup.Tick(ctx)
	pick, ok := runningPick(sup)
	if !ok || pick.Track != "a" {
		t.Fatalf("expected a running, got %+v ok=%v", pick, ok)
	}

	sup.Tick(ctx)
	if len(launcher.launched) != 1 {
		t.Fatalf("tick while running must not spawn, launched %v", launcher.launched)
	}

	launcher.last().exited = true
	sup.Tick(ctx)
	if sup.Snapshot().Running {
		t.Fatal("expected Idle after exit")
	}
	snap := sup.Snapshot()
	if snap.Running || !snap.HasTrack || snap.Pick.Track != "a" {
		t.Fatalf("idle snapshot should keep the last track, got %+v", snap)
	}

	sup.Tick(ctx)
	if pick, _ := runningPick(sup); pick.Track != "b" {
		t.Fatalf("expected b after exit, got %+v", pick)
	}
	if !reflect.DeepEqual(rec.outcomes, []history.Outcome{history.OutcomeFinished}) {
		t.Fatalf("outcomes = %v", rec.outcomes)
	}
}

func TestSkipOnIdleIsNoop(t *testing.T) {
	launcher := &fakeLauncher{}
	sup := newSupervisor(t, launcher, &sliceSource{tracks: []playlist.Track{"a"}}, nil)
	if err := sup.Skip(context.Background()); err != nil {
		t.Fatalf("Skip on idle: %v", err)
	}
	if len(launcher.launched) != 0 || sup.Snapshot().Running {
		t.Fatal("skip on idle must not spawn")
	}
}

func TestSkipTerminatesAndNextTickAdvances(t *testing.T) {
	launcher := &fakeLauncher{}
	rec := &outcomeLog{}
	sup := newSupervisor(t, launcher, &sliceSource{tracks: []playlist.Track{"a", "b"}}, rec)
	ctx := context.Background()

	sup.Tick(ctx)
	proc := launcher.last()
	if err := sup.Skip(ctx); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if !proc.terminated || proc.killed {
		t.Fatalf("expected graceful terminate, got %+v", proc)
	}
	if sup.Snapshot().Running {
		t.Fatal("expected Idle after skip")
	}
	sup.Tick(ctx)
	if pick, _ := runningPick(sup); pick.Track != "b" {
		t.Fatalf("expected b after skip, got %+v", pick)
	}
	if !reflect.DeepEqual(rec.outcomes, []history.Outcome{history.OutcomeSkipped}) {
		t.Fatalf("outcomes = %v", rec.outcomes)
	}
}

func TestSkipEscalatesToKill(t *testing.T) {
	launcher := &fakeLauncher{prepare: func(p *fakeProcess) { p.ignoreTerm = true }}
	sup := newSupervisor(t, launcher, &sliceSource{tracks: []playlist.Track{"a"}}, nil)
	ctx := context.Background()

	sup.Tick(ctx)
	if err := sup.Skip(ctx); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if !launcher.last().killed {
		t.Fatal("expected SIGKILL escalation")
	}
	if sup.Snapshot().Running {
		t.Fatal("expected Idle after escalated skip")
	}
}

func TestSkipFailureSurfacesProcessControl(t *testing.T) {
	launcher := &fakeLauncher{prepare: func(p *fakeProcess) { p.terminateErr = errBoom }}
	sup := newSupervisor(t, launcher, &sliceSource{tracks: []playlist.Track{"a", "b"}}, nil)
	ctx := context.Background()

	sup.Tick(ctx)
	err := sup.Skip(ctx)
	if !errors.Is(err, player.ErrProcessControl) || !errors.Is(err, errBoom) {
		t.Fatalf("expected ErrProcessControl wrapping cause, got %v", err)
	}
	if !sup.Snapshot().Running {
		t.Fatal("failed skip must keep the handle so no second player spawns")
	}
	sup.Tick(ctx)
	if len(launcher.launched) != 1 {
		t.Fatalf("expected no second spawn, launched %v", launcher.launched)
	}
}

func TestStatusCheckErrorTreatedAsRunning(t *testing.T) {
	launcher := &fakeLauncher{}
	sup := newSupervisor(t, launcher, &sliceSource{tracks: []playlist.Track{"a", "b"}}, nil)
	ctx := context.Background()

	sup.Tick(ctx)
	launcher.last().pollErr = errBoom
	for i := 0; i < 3; i++ {
		sup.Tick(ctx)
	}
	if !sup.Snapshot().Running || len(launcher.launched) != 1 {
		t.Fatalf("expected still running with one spawn, launched %v", launcher.launched)
	}
}

func TestSpawnFailureStaysIdleAndSkipsAhead(t *testing.T) {
	launcher := &fakeLauncher{failNext: 1}
	rec := &outcomeLog{}
	source := &sliceSource{tracks: []playlist.Track{"a", "b"}}
	sup := newSupervisor(t, launcher, source, rec)
	ctx := context.Background()

	sup.Tick(ctx)
	if sup.Snapshot().Running {
		t.Fatal("expected Idle after spawn failure")
	}
	if source.cursor != 1 {
		t.Fatalf("cursor should already be advanced, got %d", source.cursor)
	}
	sup.Tick(ctx)
	if pick, _ := runningPick(sup); pick.Track != "b" {
		t.Fatalf("expected b after failed a, got %+v", pick)
	}
	if !reflect.DeepEqual(rec.outcomes, []history.Outcome{history.OutcomeSpawnFailed}) {
		t.Fatalf("outcomes = %v", rec.outcomes)
	}
}

func TestExhaustedSourceStaysIdle(t *testing.T) {
	launcher := &fakeLauncher{}
	sup := newSupervisor(t, launcher, &sliceSource{}, nil)
	for i := 0; i < 3; i++ {
		sup.Tick(context.Background())
	}
	if sup.Snapshot().Running || len(launcher.launched) != 0 {
		t.Fatal("exhausted source must not spawn")
	}
}

func TestStopRecordsInterrupted(t *testing.T) {
	launcher := &fakeLauncher{}
	rec := &outcomeLog{}
	sup := newSupervisor(t, launcher, &sliceSource{tracks: []playlist.Track{"a"}}, rec)
	sup.Tick(context.Background())
	if err := sup.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !reflect.DeepEqual(rec.outcomes, []history.Outcome{history.OutcomeInterrupted}) {
		t.Fatalf("outcomes = %v", rec.outcomes)
	}
}

func TestNewSupervisorRequiresDependencies(t *testing.T) {
	if _, err := player.NewSupervisor(player.Options{}); err == nil {
		t.Fatal("expected error without launcher and source")
	}
}
