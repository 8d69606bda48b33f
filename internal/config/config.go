package config

import (
	"time"
)

type Config struct {
	Version int      `toml:"version"`
	Engines Engines  `toml:"engines"`
	Scan    Scan     `toml:"scan"`
	Oracle  Oracle   `toml:"oracle"`
	DB      Database `toml:"db"`
	Output  Output   `toml:"output"`
	Watch   Watch    `toml:"watch"`
	Metrics Metrics  `toml:"metrics"`
}

type Engines struct {
	// Path is the directory holding one subdirectory per engine.
	Path              string     `toml:"path"`
	Unprotected       []string   `toml:"unprotected"`
	StronglyProtected []string   `toml:"strongly_protected"`
	Overrides         []Override `toml:"override"`
}

// Override grants one engine direct access to a set of fully qualified
// modules, bypassing protection rules for exactly those names.
type Override struct {
	Engine         string   `toml:"engine"`
	AllowedModules []string `toml:"allowed_modules"`
}

type Scan struct {
	Roots   []string `toml:"roots"`
	Exclude Exclude  `toml:"exclude"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Oracle struct {
	Enabled bool          `toml:"enabled"`
	Command []string      `toml:"command"`
	Timeout time.Duration `toml:"timeout"`
	Rate    float64       `toml:"rate"`
	Burst   int           `toml:"burst"`
}

type Database struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Output struct {
	SARIF string `toml:"sarif"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Metrics struct {
	Addr string `toml:"addr"`
}
