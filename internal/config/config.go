// Package config loads layerweave run configuration and builds the
// run-scoped composition context.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the well-known configuration file at the project root.
const ConfigFileName = "layerweave.yaml"

// Config holds all layerweave configuration.
type Config struct {
	// Active extension packs, in precedence order (earlier = lower).
	Packs []string `yaml:"packs"`

	// Content categories to compose (e.g. agents, policies).
	Categories []string `yaml:"categories"`

	// Output directory, relative to the project root unless absolute.
	Output string `yaml:"output"`

	// Maximum parallel workers per phase. 0 means GOMAXPROCS.
	Jobs int `yaml:"jobs"`

	// Arbitrary nested values reachable via dotted-path lookup.
	Values map[string]interface{} `yaml:"values"`

	// Logging configuration (consumed by internal/logging).
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig controls the categorized debug log.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Categories: []string{"agents"},
		Output:     filepath.Join(".layerweave", "out"),
	}
}

// Load reads layerweave.yaml from the project root and applies defaults.
// A missing file is not an error; defaults are returned.
func Load(root string) (*Config, error) {
	cfg := DefaultConfig()

	path := filepath.Join(root, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if len(cfg.Categories) == 0 {
		cfg.Categories = []string{"agents"}
	}
	if cfg.Output == "" {
		cfg.Output = filepath.Join(".layerweave", "out")
	}

	// Packs must be deduplicated before discovery; duplicate activation
	// would double-apply a pack's extends.
	cfg.Packs = dedupe(cfg.Packs)

	return cfg, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
