package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shuffler/internal/config"
	"shuffler/internal/state"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// DefaultTracks is the track list written when no WithTracks option is given.
var DefaultTracks = []string{"a.mp3", "b.mp3", "c.mp3"}

// NewConfig produces a config rooted in a per-test temp directory. The
// player is a long-running /bin/sh sleep, the control surface binds an
// ephemeral loopback port, and the loop polls every 50ms.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.TrackList = filepath.Join(base, "files.txt")
	cfgVal.Paths.StateFile = filepath.Join(base, "state", "state.ini")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.HistoryDB = filepath.Join(base, "state", "history.db")
	cfgVal.Player.Command = "/bin/sh"
	cfgVal.Player.Args = []string{"-c", "sleep 30"}
	cfgVal.Player.AppendTrack = false
	cfgVal.Player.KillTimeoutSeconds = 1
	cfgVal.Control.Bind = "127.0.0.1:0"
	cfgVal.Control.PollTimeoutMS = 50

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	writeTracks(t, cfgVal.Paths.TrackList, DefaultTracks)

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTracks replaces the track list file contents, one line per entry.
func WithTracks(lines ...string) ConfigOption {
	return func(b *configBuilder) {
		writeTracks(b.t, b.cfg.Paths.TrackList, lines)
	}
}

// WithState writes a state file holding seed and cursor.
func WithState(seed, cursor uint64) ConfigOption {
	return func(b *configBuilder) {
		if err := state.Save(b.cfg.Paths.StateFile, state.State{Seed: seed, Index: cursor}); err != nil {
			b.t.Fatalf("write state: %v", err)
		}
	}
}

// WithPlayer overrides the player command line.
func WithPlayer(command string, args ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Player.Command = command
		b.cfg.Player.Args = args
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default player is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"mpv"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.TrackList)
}

func writeTracks(t testing.TB, path string, lines []string) {
	t.Helper()
	body := strings.Join(lines, "\n")
	if len(lines) > 0 {
		body += "\n"
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write track list: %v", err)
	}
}
