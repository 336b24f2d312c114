package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	stateDirName  = "rasconsole"
	stateFileName = "state.sqlite"
)

// userConfigDir is replaced in tests.
var userConfigDir = os.UserConfigDir

// ApplyRuntimeDefaults fills settings that depend on the machine, such as the state file
// location under the user configuration directory. It returns the keys it filled so callers
// can log them.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	filled := make(map[string]bool)

	driver := strings.ToLower(strings.TrimSpace(cfg.State.Driver))
	if (driver == "" || driver == "sqlite" || driver == "sqlite3") && strings.TrimSpace(cfg.State.Path) == "" && strings.TrimSpace(cfg.State.DSN) == "" {
		dir, err := userConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve user config dir: %w", err)
		}
		cfg.State.Path = filepath.Join(dir, stateDirName, stateFileName)
		filled["state.path"] = true
	}

	if cfg.Remote.Timeout <= 0 {
		cfg.Remote.Timeout = 30 * time.Second
		filled["remote.timeout"] = true
	}

	cfg.Remote.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Remote.BaseURL), "/")
	return filled, nil
}

// Validate reports settings without which no command can run.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if strings.TrimSpace(c.Remote.BaseURL) == "" {
		return fmt.Errorf("remote.base_url is required (set it in config.yaml or RASCONSOLE_REMOTE_BASE_URL)")
	}
	return nil
}
