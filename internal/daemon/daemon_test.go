package daemon

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"shuffler/internal/control"
	"shuffler/internal/history"
	"shuffler/internal/playlist"
	"shuffler/internal/shuffle"
	"shuffler/internal/state"
	"shuffler/internal/testsupport"
)

func newTestDaemon(t *testing.T, opts ...testsupport.ConfigOption) *Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	d, err := New(cfg, nil, Options{SessionID: "test-session"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		d.shutdown()
		d.Close()
	})
	return d
}

// roundTrip issues GET path and steps the loop until the reply arrives.
func roundTrip(t *testing.T, d *Daemon, path string) (int, string) {
	t.Helper()
	type result struct {
		status int
		body   string
		err    error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := http.Get("http://" + d.Addr() + path)
		if err != nil {
			done <- result{err: err}
			return
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		done <- result{status: resp.StatusCode, body: string(body), err: err}
	}()

	ctx := context.Background()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if err := d.loop.Step(ctx); err != nil {
			t.Fatalf("Step: %v", err)
		}
		select {
		case res := <-done:
			if res.err != nil {
				t.Fatalf("GET %s: %v", path, res.err)
			}
			return res.status, res.body
		default:
		}
	}
	t.Fatalf("GET %s: no reply", path)
	return 0, ""
}

func TestEndToEndShuffleSkipAndPersist(t *testing.T) {
	d := newTestDaemon(t, testsupport.WithState(42, 0))
	d.server.Serve()
	order := shuffle.Permute([]playlist.Track{"a.mp3", "b.mp3", "c.mp3"}, 42)

	before := d.loop.dispatch(context.Background(), newStatusRequest())
	if before.Status != http.StatusOK || !strings.Contains(before.Body, "No track yet") {
		t.Fatalf("status before first tick = %d %q", before.Status, before.Body)
	}

	d.supervisor.Tick(context.Background())
	status, body := roundTrip(t, d, "/")
	if status != http.StatusOK || !strings.Contains(body, string(order[0])) {
		t.Fatalf("expected %s playing, got %d %q", order[0], status, body)
	}

	status, body = roundTrip(t, d, "/skip")
	if status != http.StatusOK || !strings.Contains(body, `http-equiv="refresh"`) {
		t.Fatalf("skip response = %d %q", status, body)
	}
	if snap := d.supervisor.Snapshot(); !snap.Running || snap.Pick.Track != order[1] {
		t.Fatalf("expected %s after skip, got %+v", order[1], snap)
	}

	saved, err := state.Load(d.cfg.Paths.StateFile)
	if err != nil {
		t.Fatalf("Load state: %v", err)
	}
	if saved.Seed != 42 || saved.Index != 2 {
		t.Fatalf("persisted state = %+v", saved)
	}

	status, body = roundTrip(t, d, "/elsewhere")
	if status != http.StatusNotFound || body != "unsupported request" {
		t.Fatalf("catch-all = %d %q", status, body)
	}

	entries, err := d.history.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 || entries[1].Outcome != history.OutcomeSkipped || entries[0].Outcome != history.OutcomePlaying {
		t.Fatalf("unexpected history: %+v", entries)
	}
	if entries[0].SessionID != "test-session" {
		t.Fatalf("session id = %q", entries[0].SessionID)
	}
}

func TestRunStopsPlayerOnCancel(t *testing.T) {
	d := newTestDaemon(t)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for {
		entries, err := d.history.Recent(context.Background(), 1)
		if err == nil && len(entries) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("player never started")
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if d.supervisor.Snapshot().Running {
		t.Fatal("player still running after shutdown")
	}
	entries, err := d.history.Recent(context.Background(), 1)
	if err != nil || entries[0].Outcome != history.OutcomeInterrupted {
		t.Fatalf("expected interrupted play, got %+v %v", entries, err)
	}
}

func TestNewFailsOnMalformedState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.WriteFile(cfg.Paths.StateFile, []byte("[general]\nindex = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(cfg, nil, Options{}); !errors.Is(err, state.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	// The lock must be released so a fixed state file can be retried.
	lock, err := state.AcquireLock(cfg.LockPath())
	if err != nil {
		t.Fatalf("lock leaked after failed startup: %v", err)
	}
	_ = lock.Release()
}

func TestNewFailsWhenLocked(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	lock, err := state.AcquireLock(cfg.LockPath())
	if err != nil {
		t.Fatal(err)
	}
	defer lock.Release()
	if _, err := New(cfg, nil, Options{}); !errors.Is(err, state.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestNewFailsOnEmptyTrackList(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTracks())
	if _, err := New(cfg, nil, Options{}); !errors.Is(err, playlist.ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestNewFailsWhenBindBusy(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer busy.Close()
	cfg := testsupport.NewConfig(t)
	cfg.Control.Bind = busy.Addr().String()
	if _, err := New(cfg, nil, Options{}); err == nil {
		t.Fatal("expected bind failure")
	}
}

func TestFreshStartPersistsSeed(t *testing.T) {
	d := newTestDaemon(t)
	saved, err := state.Load(d.cfg.Paths.StateFile)
	if err != nil {
		t.Fatalf("fresh state not written: %v", err)
	}
	if saved != d.session.State() || saved.Index != 0 {
		t.Fatalf("saved %+v, in memory %+v", saved, d.session.State())
	}
	st := d.Status()
	if st.Total != 3 || st.Cursor != 0 || st.Player.HasTrack {
		t.Fatalf("unexpected status %+v", st)
	}
	order := shuffle.Permute(testsupport.DefaultTracks, saved.Seed)
	if string(st.Next) != order[0] {
		t.Fatalf("next track = %q want %q", st.Next, order[0])
	}
}

func newStatusRequest() *control.Request {
	return control.NewRequest(http.MethodGet, "/")
}
