package config

const (
	defaultConfigPath         = "~/.config/shuffler/config.toml"
	defaultTrackList          = "~/.config/shuffler/files.txt"
	defaultStateFile          = "~/.local/share/shuffler/state.ini"
	defaultLogDir             = "~/.local/share/shuffler/logs"
	defaultHistoryDB          = "~/.local/share/shuffler/history.db"
	defaultPlayerCommand      = "mpv"
	defaultKillTimeoutSeconds = 5
	defaultControlBind        = "0.0.0.0:8000"
	defaultPollTimeoutMS      = 500
	defaultOnExhausted        = ExhaustReshuffle
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			TrackList: defaultTrackList,
			StateFile: defaultStateFile,
			LogDir:    defaultLogDir,
			HistoryDB: defaultHistoryDB,
		},
		Player: Player{
			Command:            defaultPlayerCommand,
			Args:               []string{"--no-video", "--really-quiet"},
			AppendTrack:        true,
			KillTimeoutSeconds: defaultKillTimeoutSeconds,
		},
		Control: Control{
			Bind:          defaultControlBind,
			PollTimeoutMS: defaultPollTimeoutMS,
			StrictRoutes:  true,
		},
		Playback: Playback{
			OnExhausted: defaultOnExhausted,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
