// Package config loads the YAML configuration governing how a document
// store is opened: the bbolt file directory, sync/growth passthrough
// flags, logger level/format, and whether Prometheus metrics are
// registered (SPEC_FULL.md §10.3).
//
// Grounded on cuemby-warren's defaults-then-override-from-file config
// loading story (cmd/warren/apply.go's yaml.v3 unmarshal shape), adapted
// from a one-off resource file to a persistent store-open config.
package config

import (
	"fmt"
	"os"

	"github.com/cshekharsharma/crdtstore/pkg/log"
	"gopkg.in/yaml.v3"
)

// Config governs how crdtstore.Open and pkg/log/pkg/metrics are wired up
// for a given process.
type Config struct {
	// Store settings.
	DataDir    string `yaml:"dataDir"`
	NoSync     bool   `yaml:"noSync"`
	NoGrowSync bool   `yaml:"noGrowSync"`

	// Logging settings.
	LogLevel  log.Level `yaml:"logLevel"`
	LogFormat string    `yaml:"logFormat"` // "json" or "console"

	// MetricsEnabled toggles whether pkg/metrics collectors are expected
	// to be scraped; it does not itself start an HTTP server (out of
	// scope per spec.md's Non-goals on networking).
	MetricsEnabled bool `yaml:"metricsEnabled"`
}

// Default returns the configuration used when no file is supplied: data
// stored under ./data, synchronous bbolt writes, info-level console
// logging, metrics on.
func Default() *Config {
	return &Config{
		DataDir:        "./data",
		NoSync:         false,
		NoGrowSync:     false,
		LogLevel:       log.InfoLevel,
		LogFormat:      "console",
		MetricsEnabled: true,
	}
}

// Load reads path, starting from Default() and overriding any field the
// file sets explicitly.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LogConfig adapts Config's logging fields into log.Config, ready for
// log.Init.
func (c *Config) LogConfig() log.Config {
	return log.Config{
		Level:      c.LogLevel,
		JSONOutput: c.LogFormat == "json",
	}
}
