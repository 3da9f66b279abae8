// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/aplane-algo/gmkjs/internal/bridge"
	"github.com/aplane-algo/gmkjs/internal/config"
	"github.com/aplane-algo/gmkjs/internal/makehost"
	"github.com/aplane-algo/gmkjs/internal/util"
)

// Session pairs the built-in make host with a bridge installed on it.
type Session struct {
	Config config.Config
	Host   *makehost.Host
	Bridge *bridge.Bridge

	stdout io.Writer
	stderr io.Writer
}

// NewSession seeds the host from the config and command line overrides,
// then installs the bridge so preload scripts can already see those variables.
func NewSession(cfg config.Config, overrides map[string]string, stdout, stderr io.Writer) (*Session, error) {
	host := makehost.New(
		makehost.WithOutput(stdout),
		makehost.WithStderr(stderr),
		makehost.WithLogger(util.Logger),
	)

	for _, name := range sortedKeys(cfg.Variables) {
		host.Set(name, cfg.Variables[name], makehost.OriginFile)
	}
	for _, name := range sortedKeys(overrides) {
		host.Set(name, overrides[name], makehost.OriginCommandLine)
	}

	br, err := bridge.Setup(host,
		bridge.WithConfig(cfg),
		bridge.WithLogger(util.Logger),
		bridge.WithOutput(stdout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set up bridge: %w", err)
	}

	return &Session{
		Config: cfg,
		Host:   host,
		Bridge: br,
		stdout: stdout,
		stderr: stderr,
	}, nil
}

// RunFile evaluates a makefile; "-" reads standard input.
func (s *Session) RunFile(path string) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
		path = "<stdin>"
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read makefile: %w", err)
	}

	util.Debug("evaluating makefile", "path", path)
	return s.Host.EvalFile(path, string(data))
}

// EvalText evaluates makefile text given on the command line.
func (s *Session) EvalText(text string) error {
	return s.Host.EvalFile("<command line>", text)
}

// ExpandAll expands each expression and writes one result per line.
func (s *Session) ExpandAll(exprs []string) error {
	for _, expr := range exprs {
		out := s.Host.Expand(expr)
		if err := s.Host.Err(); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(s.stdout, out); err != nil {
			return err
		}
	}
	return nil
}

// parseOverrides splits NAME=value arguments. Anything else is returned as a
// positional argument.
func parseOverrides(args []string) (map[string]string, []string) {
	overrides := make(map[string]string)
	var rest []string
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(name) == "" || strings.ContainsAny(name, " \t$") {
			rest = append(rest, arg)
			continue
		}
		overrides[strings.TrimSpace(name)] = value
	}
	return overrides, rest
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
