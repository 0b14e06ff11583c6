// Package config loads persistence settings from the environment.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/jrsteele09/go-persistcell/persistence"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Config holds the runtime configuration shared by every cell in a process.
type Config struct {
	AppName      string `env:"PERSIST_APP_NAME" envDefault:"persistcell"`
	Root         string `env:"PERSIST_ROOT"`
	Backend      string `env:"PERSIST_BACKEND" envDefault:"file"`
	SettingsFile string `env:"PERSIST_SETTINGS_FILE" envDefault:"settings.db"`
	LogLevel     string `env:"PERSIST_LOG_LEVEL" envDefault:"info"`
}

var userConfigDir = os.UserConfigDir

// Load parses the environment. An unset root resolves to the application's
// folder under the user configuration directory.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "config.Load env.Parse")
	}
	if strings.TrimSpace(cfg.Root) == "" {
		root, err := DefaultRoot(cfg.AppName)
		if err != nil {
			return Config{}, err
		}
		cfg.Root = root
	}
	return cfg, nil
}

// DefaultRoot returns the per-application persistent root for appName.
func DefaultRoot(appName string) (string, error) {
	if strings.TrimSpace(appName) == "" {
		return "", errors.New("config.DefaultRoot: app name is required")
	}
	base, err := userConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "config.DefaultRoot os.UserConfigDir")
	}
	return filepath.Join(base, appName), nil
}

// BackendOptions converts the configuration into persistence.Open options.
func (c Config) BackendOptions() (persistence.Options, error) {
	kind, err := persistence.ParseKind(c.Backend)
	if err != nil {
		return persistence.Options{}, errors.Wrap(err, "config.BackendOptions")
	}
	return persistence.Options{
		Kind:         kind,
		Root:         c.Root,
		SettingsFile: c.SettingsFile,
	}, nil
}

// OpenBackend opens the configured backend.
func (c Config) OpenBackend() (persistence.Backend, persistence.Kind, error) {
	opts, err := c.BackendOptions()
	if err != nil {
		return nil, persistence.KindFile, err
	}
	return persistence.Open(opts)
}

// ConfigureLogging applies LogLevel to the global zerolog level.
func (c Config) ConfigureLogging() error {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(c.LogLevel)))
	if err != nil {
		return errors.Wrap(err, "config.ConfigureLogging")
	}
	zerolog.SetGlobalLevel(level)
	return nil
}
