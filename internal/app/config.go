package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/charlesng35/rasconsole/internal/database"
)

// Config represents the runtime configuration of rasconsole.
type Config struct {
	Remote      RemoteConfig      `mapstructure:"remote"`
	State       StateConfig       `mapstructure:"state"`
	Log         LogConfig         `mapstructure:"log"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// RemoteConfig points at the administration API.
type RemoteConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserID    int64         `mapstructure:"user_id"`
	CSRFToken string        `mapstructure:"csrf_token"`
	// Cookie carries the authenticated session, e.g. "sessionid=...".
	Cookie string `mapstructure:"cookie"`
}

// StateConfig describes where UI state (folder flags, cluster credentials) is persisted.
type StateConfig struct {
	Driver   string            `mapstructure:"driver"`
	Path     string            `mapstructure:"path"`
	DSN      string            `mapstructure:"dsn"`
	Host     string            `mapstructure:"host"`
	Port     int               `mapstructure:"port"`
	User     string            `mapstructure:"user"`
	Password string            `mapstructure:"password"`
	Name     string            `mapstructure:"name"`
	Options  map[string]string `mapstructure:"options"`
	// Passphrase encrypts stored cluster passwords. Empty stores them in plain text.
	Passphrase string `mapstructure:"passphrase"`
}

// Database converts the state settings into database options.
func (s StateConfig) Database() database.Config {
	return database.Config{
		Driver:   s.Driver,
		Path:     s.Path,
		DSN:      s.DSN,
		Host:     s.Host,
		Port:     s.Port,
		User:     s.User,
		Password: s.Password,
		Name:     s.Name,
		Options:  s.Options,
	}
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MaintenanceConfig schedules housekeeping of persisted UI state.
type MaintenanceConfig struct {
	PruneSchedule string `mapstructure:"prune_schedule"`
}

// MetricsConfig toggles the metrics dump of the interactive shell.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig reads config.yaml from ./config and the supplied directories. A path ending in
// .yaml or .yml is used as the config file itself. Environment variables prefixed with
// RASCONSOLE_ override file values (RASCONSOLE_REMOTE_BASE_URL, ...).
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	explicit := false
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			v.SetConfigFile(path)
			explicit = true
		default:
			v.AddConfigPath(path)
		}
	}

	setDefaults(v)

	v.SetEnvPrefix("RASCONSOLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("remote.base_url", "")
	v.SetDefault("remote.timeout", "30s")
	v.SetDefault("remote.user_id", 0)
	v.SetDefault("remote.csrf_token", "")
	v.SetDefault("remote.cookie", "")

	v.SetDefault("state.driver", "sqlite")
	v.SetDefault("state.path", "")
	v.SetDefault("state.passphrase", "")

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")

	v.SetDefault("maintenance.prune_schedule", "@every 1h")

	v.SetDefault("metrics.enabled", false)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
