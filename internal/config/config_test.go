// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Function != "js" || cfg.Namespace != "make" || cfg.Prefix != "`" {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
	if cfg.PrefixRune() != '`' {
		t.Errorf("PrefixRune() = %q", cfg.PrefixRune())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
function: lua
prefix: "="
preload:
  - lib/helpers.js
  - /abs/other.js
variables:
  CC: gcc
watch_debounce: 1s
`)
	cfg, err := Parse(data, "/project")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Function != "lua" {
		t.Errorf("Function = %q", cfg.Function)
	}
	if cfg.Namespace != "make" {
		t.Errorf("Namespace = %q, want default", cfg.Namespace)
	}
	if cfg.PrefixRune() != '=' {
		t.Errorf("PrefixRune() = %q", cfg.PrefixRune())
	}
	wantPreload := []string{filepath.Join("/project", "lib/helpers.js"), "/abs/other.js"}
	for i, want := range wantPreload {
		if cfg.Preload[i] != want {
			t.Errorf("Preload[%d] = %q, want %q", i, cfg.Preload[i], want)
		}
	}
	if cfg.Variables["CC"] != "gcc" {
		t.Errorf("Variables = %v", cfg.Variables)
	}
	if cfg.WatchDebounce != time.Second {
		t.Errorf("WatchDebounce = %v", cfg.WatchDebounce)
	}
}

func TestParseEmptyPrefixDisables(t *testing.T) {
	cfg, err := Parse([]byte(`prefix: ""`), "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.PrefixRune() != 0 {
		t.Errorf("PrefixRune() = %q, want 0", cfg.PrefixRune())
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "long prefix", data: `prefix: "ab"`},
		{name: "negative debounce", data: `watch_debounce: -1s`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), "")
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Parse(%q) = %v, want ErrInvalidConfig", tt.data, err)
			}
		})
	}

	if _, err := Parse([]byte("function: [unterminated"), ""); err == nil {
		t.Error("Parse accepted malformed YAML")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("namespace: mk\npreload: [init.js]\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Namespace != "mk" {
		t.Errorf("Namespace = %q", cfg.Namespace)
	}
	if want := filepath.Join(dir, "init.js"); cfg.Preload[0] != want {
		t.Errorf("Preload[0] = %q, want %q", cfg.Preload[0], want)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load of an explicit missing file succeeded")
	}
}
