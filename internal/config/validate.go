package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePlayer(); err != nil {
		return err
	}
	if err := c.validateControl(); err != nil {
		return err
	}
	if err := c.validatePlayback(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePlayer() error {
	if c.Player.Command == "" {
		return errors.New("player.command must be set (or export SHUFFLER_PLAYER)")
	}
	if c.Player.KillTimeoutSeconds <= 0 {
		return errors.New("player.kill_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateControl() error {
	if _, _, err := net.SplitHostPort(c.Control.Bind); err != nil {
		return fmt.Errorf("control.bind %q is not a host:port address: %w", c.Control.Bind, err)
	}
	if c.Control.PollTimeoutMS <= 0 {
		return errors.New("control.poll_timeout_ms must be positive")
	}
	// The supervisor must be polled at least twice per second.
	if c.Control.PollTimeoutMS > 500 {
		return errors.New("control.poll_timeout_ms must not exceed 500")
	}
	return nil
}

func (c *Config) validatePlayback() error {
	switch c.Playback.OnExhausted {
	case ExhaustReshuffle, ExhaustWrap, ExhaustStop:
		return nil
	default:
		return fmt.Errorf("playback.on_exhausted: unsupported value %q (want %s)",
			c.Playback.OnExhausted, strings.Join([]string{ExhaustReshuffle, ExhaustWrap, ExhaustStop}, ", "))
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero or positive")
	}
	return nil
}
