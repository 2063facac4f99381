package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"shuffler/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "shuffler", "state.ini")
	if cfg.Paths.StateFile != wantState {
		t.Fatalf("unexpected state file: got %q want %q", cfg.Paths.StateFile, wantState)
	}
	if cfg.Paths.TrackList != filepath.Join(tempHome, ".config", "shuffler", "files.txt") {
		t.Fatalf("unexpected track list: %q", cfg.Paths.TrackList)
	}
	if cfg.Control.Bind != "0.0.0.0:8000" {
		t.Fatalf("unexpected control bind: %q", cfg.Control.Bind)
	}
	if cfg.PollTimeout() != 500*time.Millisecond {
		t.Fatalf("unexpected poll timeout: %s", cfg.PollTimeout())
	}
	if !cfg.Control.StrictRoutes {
		t.Fatal("expected strict routes by default")
	}
	if cfg.Playback.OnExhausted != config.ExhaustReshuffle {
		t.Fatalf("unexpected exhaustion policy: %q", cfg.Playback.OnExhausted)
	}
	if cfg.LockPath() != wantState+".lock" {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, filepath.Dir(cfg.Paths.StateFile)} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "shuffler.toml")

	type payload struct {
		Paths struct {
			StateFile string `toml:"state_file"`
		} `toml:"paths"`
		Player struct {
			Command     string   `toml:"command"`
			Args        []string `toml:"args"`
			AppendTrack bool     `toml:"append_track"`
		} `toml:"player"`
		Control struct {
			Bind          string `toml:"bind"`
			PollTimeoutMS int    `toml:"poll_timeout_ms"`
			StrictRoutes  bool   `toml:"strict_routes"`
		} `toml:"control"`
		Playback struct {
			OnExhausted string `toml:"on_exhausted"`
		} `toml:"playback"`
	}
	custom := payload{}
	custom.Paths.StateFile = filepath.Join(tempDir, "state", "state.ini")
	custom.Player.Command = "/bin/sleep"
	custom.Player.Args = []string{"30", ""}
	custom.Control.Bind = "127.0.0.1:9000"
	custom.Control.PollTimeoutMS = 250
	custom.Playback.OnExhausted = " WRAP "

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got resolved=%q exists=%v", resolved, exists)
	}
	if cfg.Paths.StateFile != custom.Paths.StateFile {
		t.Fatalf("unexpected state file: %q", cfg.Paths.StateFile)
	}
	if cfg.Player.Command != "/bin/sleep" {
		t.Fatalf("unexpected player command: %q", cfg.Player.Command)
	}
	if len(cfg.Player.Args) != 1 || cfg.Player.Args[0] != "30" {
		t.Fatalf("expected empty args to be dropped, got %v", cfg.Player.Args)
	}
	if cfg.Player.AppendTrack {
		t.Fatal("expected append_track false from file")
	}
	if cfg.Control.Bind != "127.0.0.1:9000" {
		t.Fatalf("unexpected bind: %q", cfg.Control.Bind)
	}
	if cfg.Control.StrictRoutes {
		t.Fatal("expected strict routes disabled from file")
	}
	if cfg.Playback.OnExhausted != config.ExhaustWrap {
		t.Fatalf("expected normalized wrap policy, got %q", cfg.Playback.OnExhausted)
	}
}

func TestPlayerCommandFallsBackToEnv(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "shuffler.toml")
	if err := os.WriteFile(configPath, []byte("[player]\ncommand = \"\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SHUFFLER_PLAYER", "ffplay")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Player.Command != "ffplay" {
		t.Fatalf("expected player from env, got %q", cfg.Player.Command)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"empty player", func(c *config.Config) { c.Player.Command = "" }, "player.command"},
		{"kill timeout", func(c *config.Config) { c.Player.KillTimeoutSeconds = 0 }, "player.kill_timeout_seconds"},
		{"bind", func(c *config.Config) { c.Control.Bind = "nope" }, "control.bind"},
		{"poll zero", func(c *config.Config) { c.Control.PollTimeoutMS = 0 }, "control.poll_timeout_ms"},
		{"poll slow", func(c *config.Config) { c.Control.PollTimeoutMS = 2000 }, "control.poll_timeout_ms"},
		{"exhausted", func(c *config.Config) { c.Playback.OnExhausted = "loop" }, "playback.on_exhausted"},
		{"format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	def := config.Default()
	if cfg.Player.Command != def.Player.Command || cfg.Control.Bind != def.Control.Bind {
		t.Fatalf("sample diverges from defaults: %+v", cfg)
	}
}
