package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePlayer()
	c.normalizeControl()
	c.normalizePlayback()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.TrackList) == "" {
		c.Paths.TrackList = defaultTrackList
	}
	if c.Paths.TrackList, err = expandPath(c.Paths.TrackList); err != nil {
		return fmt.Errorf("paths.track_list: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateFile) == "" {
		c.Paths.StateFile = defaultStateFile
	}
	if c.Paths.StateFile, err = expandPath(c.Paths.StateFile); err != nil {
		return fmt.Errorf("paths.state_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryDB) == "" {
		c.Paths.HistoryDB = defaultHistoryDB
	}
	if c.Paths.HistoryDB, err = expandPath(c.Paths.HistoryDB); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	return nil
}

func (c *Config) normalizePlayer() {
	c.Player.Command = strings.TrimSpace(c.Player.Command)
	if c.Player.Command == "" {
		if value, ok := os.LookupEnv("SHUFFLER_PLAYER"); ok {
			c.Player.Command = strings.TrimSpace(value)
		}
	}
	args := c.Player.Args[:0]
	for _, arg := range c.Player.Args {
		if arg == "" {
			continue
		}
		args = append(args, arg)
	}
	c.Player.Args = args
}

func (c *Config) normalizeControl() {
	c.Control.Bind = strings.TrimSpace(c.Control.Bind)
	if c.Control.Bind == "" {
		if value, ok := os.LookupEnv("SHUFFLER_BIND"); ok {
			c.Control.Bind = strings.TrimSpace(value)
		}
	}
	if c.Control.Bind == "" {
		c.Control.Bind = defaultControlBind
	}
}

func (c *Config) normalizePlayback() {
	c.Playback.OnExhausted = strings.ToLower(strings.TrimSpace(c.Playback.OnExhausted))
	if c.Playback.OnExhausted == "" {
		c.Playback.OnExhausted = defaultOnExhausted
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
		c.Logging.Format = "json"
	default:
		c.Logging.Format = format
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
