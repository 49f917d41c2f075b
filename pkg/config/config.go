// Package config loads the toolsmith TOML configuration.
package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/xeipuuv/gojsonschema"

	"toolsmith/pkg/driver"
	envdriver "toolsmith/pkg/driver/env"
)

//go:embed schema.json
var schema string

// DefaultAlternativesPriority is the update-alternatives priority given to activated compilers.
const DefaultAlternativesPriority = 40

type Config struct {
	ToolsDir string `toml:"tools_dir"`
	ShimsDir string `toml:"shims_dir"`
	Database string `toml:"database"`

	// Defaults maps a tool to the version used when none is requested.
	Defaults map[string]string `toml:"defaults"`
	// LinuxDefaults maps a tool to OS major release -> version.
	LinuxDefaults map[string]map[string]string `toml:"linux_defaults"`
	// LinuxDistro limits a linux_defaults table to one distro id, e.g. "ubuntu".
	LinuxDistro map[string]string `toml:"linux_distro"`

	// Drivers overrides provider weights by id.
	Drivers map[string]int `toml:"drivers"`
	// Checksums pins archive URLs to "algo:hex" digests.
	Checksums map[string]string `toml:"checksums"`

	Download   DownloadConfig   `toml:"download"`
	Activation ActivationConfig `toml:"activation"`
}

type DownloadConfig struct {
	Mirrors []string `toml:"mirrors"`
}

type ActivationConfig struct {
	// Profile is a shell file receiving export lines. Empty disables it.
	Profile              string `toml:"profile"`
	AlternativesPriority int    `toml:"alternatives_priority"`
	// GitHubActions toggles writing $GITHUB_ENV and $GITHUB_PATH. Unset means auto.
	GitHubActions *bool `toml:"github_actions"`
}

// Default returns a configuration with no overrides.
func Default() *Config {
	return &Config{
		Defaults:      map[string]string{},
		LinuxDefaults: map[string]map[string]string{},
		LinuxDistro:   map[string]string{},
		Drivers:       map[string]int{},
		Checksums:     map[string]string{},
		Activation: ActivationConfig{
			AlternativesPriority: DefaultAlternativesPriority,
		},
	}
}

// LinuxDefaultTable converts the string keyed linux defaults into OS major -> version tables.
func (c *Config) LinuxDefaultTable() map[string]map[int]string {
	out := make(map[string]map[int]string, len(c.LinuxDefaults))
	for tool, byRelease := range c.LinuxDefaults {
		table := make(map[int]string, len(byRelease))
		for key, v := range byRelease {
			major, err := strconv.Atoi(key)
			if err != nil {
				slog.Warn("ignoring linux default with non numeric release", "tool", tool, "release", key)
				continue
			}
			table[major] = v
		}
		out[tool] = table
	}
	return out
}

// ResolveDirs fills empty directory settings from the user data directory and expands the rest.
func (c *Config) ResolveDirs(ctx context.Context) error {
	if c.ToolsDir == "" || c.ShimsDir == "" || c.Database == "" {
		dataDir, err := envdriver.GetUserDataDir(ctx)
		if err != nil {
			return fmt.Errorf("failed to locate data directory: %w", err)
		}
		if c.ToolsDir == "" {
			c.ToolsDir = filepath.Join(dataDir, "tools")
		}
		if c.ShimsDir == "" {
			c.ShimsDir = filepath.Join(dataDir, "shims")
		}
		if c.Database == "" {
			c.Database = filepath.Join(dataDir, "toolsmith.db")
		}
	}
	c.ToolsDir = envdriver.ExpandPath(c.ToolsDir)
	c.ShimsDir = envdriver.ExpandPath(c.ShimsDir)
	c.Database = envdriver.ExpandPath(c.Database)
	c.Activation.Profile = envdriver.ExpandPath(c.Activation.Profile)
	return nil
}

// Path returns the configuration file location: $TOOLSMITH_CONFIG or <config dir>/config.toml.
func Path(ctx context.Context) (string, error) {
	if p := os.Getenv("TOOLSMITH_CONFIG"); p != "" {
		return envdriver.ExpandPath(p), nil
	}
	dir, err := envdriver.GetConfigDir(ctx)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Parse decodes and validates a TOML document.
func Parse(data []byte) (*Config, error) {
	var raw map[string]any
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := validate(raw); err != nil {
		return nil, err
	}

	cfg := Default()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

func validate(raw map[string]any) error {
	if raw == nil {
		raw = map[string]any{}
	}
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schema), gojsonschema.NewGoLoader(raw))
	if err != nil {
		return fmt.Errorf("failed to validate config: %w", err)
	}
	if !result.Valid() {
		var errs strings.Builder
		for _, desc := range result.Errors() {
			fmt.Fprintf(&errs, "- %s\n", desc)
		}
		return fmt.Errorf("config validation failed:\n%s", errs.String())
	}
	return nil
}

// LoadFile reads path. A missing file yields the default configuration.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("config file not found, using defaults", "path", path)
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

var (
	currentMu sync.Mutex
	current   *Config
)

// Load reads the configuration file, applies its driver weights and makes it Current.
func Load() (*Config, error) {
	ctx := context.Background()
	path, err := Path(ctx)
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	for id, weight := range cfg.Drivers {
		slog.Debug("overriding driver weight", "driver", id, "weight", weight)
		driver.SetWeight(id, weight)
	}
	SetCurrent(cfg)
	return cfg, nil
}

// Current returns the last loaded configuration, or the defaults.
func Current() *Config {
	currentMu.Lock()
	defer currentMu.Unlock()
	if current == nil {
		return Default()
	}
	return current
}

func SetCurrent(cfg *Config) {
	currentMu.Lock()
	defer currentMu.Unlock()
	current = cfg
}
