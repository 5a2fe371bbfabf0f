// Package config loads the small set of tunables the Pager and B-tree
// engine accept from an optional grove.yaml file (SPEC_FULL.md §10.3),
// mirroring the teacher's convention of a plain YAML-backed struct rather
// than flags or environment variables.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"grovedb/pkg/dberr"
	"grovedb/pkg/logging"
	"grovedb/pkg/pager"
)

// rejectedPageCacheSize mirrors btree.rejectedPageCacheSize; duplicated
// here (rather than imported) to keep pkg/config independent of
// pkg/btree, which itself depends on pkg/pager the way config does.
const rejectedPageCacheSize = 20000

// Log holds the logging.Config fields exposed to YAML.
type Log struct {
	Level      string `yaml:"level"`
	OutputPath string `yaml:"output_path"`
	Format     string `yaml:"format"`
}

// Config is the top-level shape of grove.yaml.
type Config struct {
	PageSize      uint16 `yaml:"page_size"`
	PageCacheSize uint32 `yaml:"page_cache_size"`
	UserCookie    uint32 `yaml:"user_cookie"`
	Log           Log    `yaml:"log"`
}

// Default returns the configuration used when no file is present. It is
// guaranteed byte-identical in its effect to running with no config file
// at all: every field mirrors the package-level defaults pkg/pager and
// pkg/logging already fall back to.
func Default() Config {
	return Config{
		PageSize:      pager.DefaultPageSize,
		PageCacheSize: 0,
		UserCookie:    0,
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads and validates a YAML config file at path. A missing file is
// not an error: Default() is returned instead, so callers can always
// pass a fixed path without special-casing first-run.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, dberr.Wrap(err, dberr.EIO, "config", "Load")
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, dberr.Wrap(err, dberr.EMISUSE, "config", "Load")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	logging.WithComponent("config").Debug("loaded config file", "path", path, "page_size", cfg.PageSize)
	return cfg, nil
}

// Validate checks the fields Load doesn't validate implicitly through
// zero-value defaults: page size against pager.ValidPageSizes, and the
// page-cache-size sentinel every file header also rejects (spec §6,
// enforced a second time here so a bad config is caught before a file is
// ever created — see DESIGN.md Open Question 3).
func (c Config) Validate() error {
	if !pager.ValidPageSizes[c.PageSize] {
		return dberr.New(dberr.EMISUSE, "config", "Validate", "page_size is not a supported page size")
	}
	if c.PageCacheSize == rejectedPageCacheSize {
		return dberr.New(dberr.EMISUSE, "config", "Validate", "page_cache_size must not equal 20000")
	}
	return nil
}

// LoggingConfig adapts c's Log section into logging.Config.
func (c Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:      logging.Level(c.Log.Level),
		OutputPath: c.Log.OutputPath,
		Format:     c.Log.Format,
	}
}
