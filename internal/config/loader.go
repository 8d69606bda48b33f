package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"engineguard/internal/errors"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "parse config")
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if len(cfg.Scan.Roots) == 0 {
		cfg.Scan.Roots = []string{"."}
	}
	if len(cfg.Scan.Exclude.Dirs) == 0 {
		cfg.Scan.Exclude.Dirs = []string{".git", "vendor", "node_modules", "tmp", "log"}
	}

	if cfg.Oracle.Timeout <= 0 {
		cfg.Oracle.Timeout = 5 * time.Second
	}
	if cfg.Oracle.Rate <= 0 {
		cfg.Oracle.Rate = 10
	}
	if cfg.Oracle.Burst <= 0 {
		cfg.Oracle.Burst = 5
	}

	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = "engineguard.db"
	}

	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
}

func validate(cfg *Config) error {
	if cfg.Version != 1 {
		return errors.New(errors.CodeNotSupported, fmt.Sprintf("unsupported config version %d", cfg.Version))
	}
	if strings.TrimSpace(cfg.Engines.Path) == "" {
		return errors.New(errors.CodeValidationError, "engines.path is required")
	}
	for i, o := range cfg.Engines.Overrides {
		if strings.TrimSpace(o.Engine) == "" {
			return errors.New(errors.CodeValidationError, fmt.Sprintf("engines.override[%d]: engine name is required", i))
		}
		if len(o.AllowedModules) == 0 {
			return errors.New(errors.CodeValidationError, fmt.Sprintf("engines.override[%d]: allowed_modules must not be empty", i))
		}
	}
	if cfg.Oracle.Enabled && len(cfg.Oracle.Command) == 0 {
		return errors.New(errors.CodeValidationError, "oracle.command is required when the oracle is enabled")
	}
	return nil
}
