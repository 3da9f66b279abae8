// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package config loads gmkjs settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultConfigName is looked up in the working directory when no path is given.
const DefaultConfigName = "gmkjs.yaml"

// Config holds bridge and CLI settings.
type Config struct {
	Function  string `yaml:"function" description:"Name of the ad-hoc evaluator make function" default:"js"`
	Namespace string `yaml:"namespace" description:"Global name of the make variable lookup object" default:"make"`
	Prefix    string `yaml:"prefix" description:"Leading character that turns a chunk into a returned expression (empty disables)" default:"\x60"`

	// Preload scripts run once, in order, right after setup.
	Preload []string `yaml:"preload" description:"Script files evaluated at setup (relative to the config file)"`

	// Variables seed the built-in host before the makefile is read.
	Variables map[string]string `yaml:"variables" description:"Initial make variables for the built-in host"`

	HistoryFile   string        `yaml:"history_file" description:"REPL history file" default:"~/.gmkjs_history"`
	WatchDebounce time.Duration `yaml:"watch_debounce" description:"Delay before re-running a watched makefile" default:"300ms"`
}

// DefaultConfig returns the settings used when no file is present.
func DefaultConfig() Config {
	return Config{
		Function:      "js",
		Namespace:     "make",
		Prefix:        "`",
		Variables:     map[string]string{},
		HistoryFile:   defaultHistoryFile(),
		WatchDebounce: 300 * time.Millisecond,
	}
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".gmkjs_history")
}

// PrefixRune returns the configured prefix character, or 0 when disabled.
func (c Config) PrefixRune() rune {
	if c.Prefix == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(c.Prefix)
	return r
}

// Validate checks the settings that the bridge depends on.
func (c Config) Validate() error {
	if c.Function == "" {
		return fmt.Errorf("%w: function name is empty", ErrInvalidConfig)
	}
	if c.Namespace == "" {
		return fmt.Errorf("%w: namespace is empty", ErrInvalidConfig)
	}
	if utf8.RuneCountInString(c.Prefix) > 1 {
		return fmt.Errorf("%w: prefix %q must be a single character", ErrInvalidConfig, c.Prefix)
	}
	if c.WatchDebounce < 0 {
		return fmt.Errorf("%w: watch_debounce must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Load reads path. An empty path tries DefaultConfigName in the working
// directory; a missing file yields the defaults.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data, filepath.Dir(path))
}

// Parse decodes YAML over the defaults. Relative preload paths are resolved
// against baseDir.
func Parse(data []byte, baseDir string) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	defaults := DefaultConfig()
	if cfg.Function == "" {
		cfg.Function = defaults.Function
	}
	if cfg.Namespace == "" {
		cfg.Namespace = defaults.Namespace
	}
	if cfg.Variables == nil {
		cfg.Variables = map[string]string{}
	}
	for i, p := range cfg.Preload {
		cfg.Preload[i] = resolvePath(p, baseDir)
	}
	cfg.HistoryFile = expandHome(cfg.HistoryFile)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func resolvePath(p, baseDir string) string {
	p = expandHome(p)
	if p == "" || filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	return filepath.Join(baseDir, p)
}

func expandHome(p string) string {
	if len(p) < 2 || p[:2] != "~/" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
