// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads and saves the pumplink CLI configuration file.
//
// The file lives at $XDG_CONFIG_HOME/pumplink/config.yaml (or
// ~/.config/pumplink/config.yaml). It holds connection defaults only; the
// pairing password is never stored.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/Thermoquad/pumplink/pkg/equil"
)

const (
	appName    = "pumplink"
	configFile = "config.yaml"

	// CurrentVersion is the config schema version written by Save
	CurrentVersion = 1
)

// Defaults
const (
	DefaultBaud     = 115200
	DefaultUsername = "admin"
)

// Config holds connection and display defaults for the CLI
type Config struct {
	Version      int    `yaml:"version"`
	Port         string `yaml:"port,omitempty"`
	Baud         int    `yaml:"baud"`
	URL          string `yaml:"url,omitempty"`
	Username     string `yaml:"username"`
	NoSSLVerify  bool   `yaml:"no_ssl_verify,omitempty"`
	LogLevel     string `yaml:"log_level,omitempty"`
	FragmentSize int    `yaml:"fragment_size"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Version:      CurrentVersion,
		Baud:         DefaultBaud,
		Username:     DefaultUsername,
		FragmentSize: equil.DefaultChunkSize,
	}
}

// Dir returns the OS-appropriate configuration directory
func Dir() (string, error) {
	if runtime.GOOS == "windows" {
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, appName), nil
		}
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// Path returns the default configuration file path
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the configuration at path, or at the default path when path is
// empty. A missing file yields the defaults. Fields absent from the file keep
// their default values.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field ranges
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("unsupported config version: %d (expected %d)", c.Version, CurrentVersion)
	}
	if c.Baud <= 0 {
		return fmt.Errorf("baud must be positive, got %d", c.Baud)
	}
	if c.FragmentSize < 1 || c.FragmentSize > equil.MaxChunkSize {
		return fmt.Errorf("fragment_size must be 1..%d, got %d", equil.MaxChunkSize, c.FragmentSize)
	}
	return nil
}

// Save writes the configuration to path (or the default path), replacing
// the file atomically
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := Path()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	header := []byte("# pumplink configuration\n# The pairing password is never stored here; set PUMPLINK_PASSWORD or enter it when prompted.\n\n")
	data = append(header, data...)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}
