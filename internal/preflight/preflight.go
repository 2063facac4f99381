package preflight

import (
	"path/filepath"

	"shuffler/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional results never block startup.
	Optional bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckFileReadable("Track list", cfg.Paths.TrackList),
		CheckDirectoryAccess("State directory", filepath.Dir(cfg.Paths.StateFile)),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if cfg.History.Enabled {
		history := CheckDirectoryAccess("History directory", filepath.Dir(cfg.Paths.HistoryDB))
		history.Optional = true
		results = append(results, history)
	}
	player := CheckBinary("Player", cfg.Player.Command)
	player.Optional = true
	results = append(results, player)
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
