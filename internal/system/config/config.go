// Released under an MIT license. See LICENSE.

// Package config loads cellar's configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is cellar's configuration.
type Config struct {
	// Language is the language of interactive sessions.
	Language string `yaml:"language"`

	// History is the line editing history file.
	History string `yaml:"history"`

	// Platforms are the agents cellar can connect to, by platform id.
	// An interactive session uses the first.
	Platforms []Platform `yaml:"platforms"`

	// RequestTimeout bounds each agent request other than session
	// initialization and evaluation. Zero means no limit.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// SettleDelay is the pause after each evaluation.
	SettleDelay time.Duration `yaml:"settle_delay"`
}

// Platform is an agent for one target platform.
type Platform struct {
	ID  string `yaml:"id"`
	URL string `yaml:"url"`
}

// Default returns the configuration used when there is no file.
func Default() *Config {
	return &Config{
		Language: "csharp",
		Platforms: []Platform{
			{ID: "Console", URL: "ws://127.0.0.1:5050/agent"},
		},
		RequestTimeout: 30 * time.Second,
		SettleDelay:    250 * time.Millisecond,
	}
}

// Path returns the configuration file used when none is named.
func Path() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = filepath.Join(os.Getenv("HOME"), ".config")
	}

	return filepath.Join(dir, "cellar", "config.yaml")
}

// Load reads the configuration at path. Settings the file leaves out keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	return cfg, nil
}

// LoadDefault reads the configuration at Path, if there is one.
func LoadDefault() (*Config, error) {
	cfg, err := Load(Path())
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}

	return cfg, err
}

// Platform returns the configured platform named id.
func (c *Config) Platform(id string) (Platform, bool) {
	for _, p := range c.Platforms {
		if p.ID == id {
			return p, true
		}
	}

	return Platform{}, false
}
