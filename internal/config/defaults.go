package config

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via dotfile.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Runner RunnerConfig `json:"runner"`
	UI     UIConfig     `json:"ui"`
	Log    LogConfig    `json:"log"`
}

type RunnerConfig struct {
	// TestCommand is the command prefix used for every run.
	TestCommand []string `json:"test_command"` // Default: ["go", "test"]

	// JSONEvents controls whether -json is appended so per-test results
	// can be counted for the summary line.
	JSONEvents bool `json:"json_events"` // Default: true

	// RunTimeoutSeconds bounds one test pass. 0 means no timeout: the
	// session blocks until the run completes.
	RunTimeoutSeconds int `json:"run_timeout_seconds"` // Default: 0

	// GracefulShutdownMs is how long a timed-out run gets between
	// interrupt and kill.
	GracefulShutdownMs int `json:"graceful_shutdown_ms"` // Default: 2000

	// MaxOutputSize caps captured runner output in bytes.
	MaxOutputSize int64 `json:"max_output_size"` // Default: 10 * 1024 * 1024 (10MB)
}

type UIConfig struct {
	// Color enables styled output. Ignored when stdout is not a terminal.
	Color bool `json:"color"` // Default: true

	// HighlightColor is the ANSI color used for informational messages.
	HighlightColor string `json:"highlight_color"` // Default: "11"
}

type LogConfig struct {
	// Level is the slog level: debug, info, warn or error.
	Level string `json:"level"` // Default: "warn"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Runner: RunnerConfig{
			TestCommand:        []string{"go", "test"},
			JSONEvents:         true,
			RunTimeoutSeconds:  0,
			GracefulShutdownMs: 2000,
			MaxOutputSize:      10 * 1024 * 1024,
		},
		UI: UIConfig{
			Color:          true,
			HighlightColor: "11",
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}
