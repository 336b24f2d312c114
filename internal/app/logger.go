package app

import (
	"strings"

	"github.com/charlesng35/rasconsole/pkg/logger"
)

// ConfigureLogging initialises the global logger, defaulting to warn so log lines do not
// drown command output.
func ConfigureLogging(cfg LogConfig) error {
	level := strings.TrimSpace(cfg.Level)
	if level == "" {
		level = "warn"
	}
	return logger.InitWithOptions(logger.Options{Level: level, Format: cfg.Format})
}
