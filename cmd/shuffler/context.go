package main

import (
	"strings"

	"github.com/spf13/cobra"

	"shuffler/internal/config"
)

// noConfigAnnotation marks commands that must run without a loadable config.
const noConfigAnnotation = "shuffler/no-config"

// cliState is shared by every subcommand of one invocation. The config is
// loaded at most once, on first use.
type cliState struct {
	configFlag string

	loaded  bool
	cfg     *config.Config
	cfgPath string
	err     error
}

func (s *cliState) explicitPath() string {
	return strings.TrimSpace(s.configFlag)
}

func (s *cliState) loadConfig() (*config.Config, error) {
	if s.loaded {
		return s.cfg, s.err
	}
	s.loaded = true
	cfg, path, _, err := config.Load(s.explicitPath())
	if err == nil {
		err = cfg.EnsureDirectories()
	}
	if err != nil {
		s.err = err
		return nil, err
	}
	s.cfg, s.cfgPath = cfg, path
	return cfg, nil
}

func needsConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[noConfigAnnotation]; ok {
			return false
		}
	}
	return true
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
