package config

import (
	"fmt"
)

var logLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate checks config values for correctness.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	var errs []string

	// Runner validation
	if len(c.Runner.TestCommand) == 0 {
		errs = append(errs, "runner.test_command must not be empty")
	}
	if c.Runner.RunTimeoutSeconds < 0 {
		errs = append(errs, "runner.run_timeout_seconds must be >= 0")
	}
	if c.Runner.GracefulShutdownMs < 1 {
		errs = append(errs, "runner.graceful_shutdown_ms must be >= 1")
	}
	if c.Runner.MaxOutputSize < 1 {
		errs = append(errs, "runner.max_output_size must be >= 1")
	}

	// UI validation
	if c.UI.HighlightColor == "" {
		errs = append(errs, "ui.highlight_color must not be empty")
	}

	// Log validation
	if _, ok := logLevels[c.Log.Level]; !ok {
		errs = append(errs, fmt.Sprintf("log.level %q must be one of debug, info, warn, error", c.Log.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %v", errs)
	}
	return nil
}
