// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package makehost is an in-process build host implementing gmk.Host.
//
// It understands the subset of GNU make needed to drive extension functions:
// variable assignments of every flavor, references and substitution
// references, a handful of text functions, and $(error), $(warning) and
// $(info). Rules are not supported. Once $(error) fires the host refuses to
// evaluate anything else until ClearErr is called, the way make stops a build.
package makehost

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/aplane-algo/gmkjs/internal/gmk"
)

// maxDepth bounds nested expansion so self-referencing functions fail
// instead of exhausting the goroutine stack.
const maxDepth = 512

// Flavor is how a variable's value is treated on reference.
type Flavor int

const (
	// Recursive values are expanded every time they are referenced.
	Recursive Flavor = iota
	// Simple values were expanded once, at assignment.
	Simple
)

// Origin records where a variable was defined, as reported by $(origin).
type Origin string

const (
	OriginUndefined   Origin = "undefined"
	OriginFile        Origin = "file"
	OriginCommandLine Origin = "command line"
	OriginOverride    Origin = "override"
)

type variable struct {
	value  string
	flavor Flavor
	origin Origin
}

type function struct {
	minArgs int
	maxArgs int
	flags   gmk.Flags
	fn      gmk.Func
}

// Host holds the variable database and function table.
// It is not safe for concurrent use.
type Host struct {
	vars      map[string]*variable
	funcs     map[string]*function
	expanding map[string]bool

	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger

	loc   *gmk.Floc
	depth int
	err   error
}

// Option configures a Host.
type Option func(*Host)

// WithOutput sets where $(info) writes.
func WithOutput(w io.Writer) Option {
	return func(h *Host) { h.stdout = w }
}

// WithStderr sets where $(warning) writes.
func WithStderr(w io.Writer) Option {
	return func(h *Host) { h.stderr = w }
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) { h.logger = l }
}

// New creates an empty host.
func New(opts ...Option) *Host {
	h := &Host{
		vars:      make(map[string]*variable),
		funcs:     make(map[string]*function),
		expanding: make(map[string]bool),
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Err returns the error raised by $(error), if any.
func (h *Host) Err() error {
	return h.err
}

// ClearErr lets evaluation continue after a reported error.
func (h *Host) ClearErr() {
	h.err = nil
}

// Set defines name as a simple variable holding value verbatim.
func (h *Host) Set(name, value string, origin Origin) {
	h.vars[name] = &variable{value: value, flavor: Simple, origin: origin}
}

// Var returns the unexpanded value of name.
func (h *Host) Var(name string) (string, bool) {
	v, ok := h.vars[name]
	if !ok {
		return "", false
	}
	return v.value, true
}

// VariableNames returns the defined variable names, sorted.
func (h *Host) VariableNames() []string {
	names := make([]string, 0, len(h.vars))
	for name := range h.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FunctionNames returns builtin and registered function names, sorted.
func (h *Host) FunctionNames() []string {
	names := make([]string, 0, len(builtins)+len(h.funcs))
	for name := range builtins {
		names = append(names, name)
	}
	for name := range h.funcs {
		if _, ok := builtins[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// AddFunction implements gmk.Host.
func (h *Host) AddFunction(name string, minArgs, maxArgs int, flags gmk.Flags, fn gmk.Func) error {
	if err := gmk.ValidateFunction(name, minArgs, maxArgs); err != nil {
		return err
	}
	if _, ok := builtins[name]; ok {
		return fmt.Errorf("%w: cannot redefine builtin function %q", gmk.ErrInvalidName, name)
	}
	if fn == nil {
		return fmt.Errorf("function %q: nil implementation", name)
	}
	h.funcs[name] = &function{minArgs: minArgs, maxArgs: maxArgs, flags: flags, fn: fn}
	h.logger.Debug("function registered", "name", name, "min", minArgs, "max", maxArgs)
	return nil
}

// Expand implements gmk.Host.
func (h *Host) Expand(text string) string {
	return h.expand(text)
}

// fail records a fatal error at the current location. Only the first error
// is kept.
func (h *Host) fail(msg string) {
	if h.err != nil {
		return
	}
	e := &Error{Msg: msg}
	if h.loc != nil {
		loc := *h.loc
		e.Loc = &loc
	}
	h.err = e
	h.logger.Debug("build error", "error", e.Error())
}

func (h *Host) warn(msg string) {
	if h.loc != nil {
		_, _ = fmt.Fprintf(h.stderr, "%s: %s\n", h.loc, msg)
		return
	}
	_, _ = fmt.Fprintln(h.stderr, msg)
}

// Error is a fatal build error.
type Error struct {
	Loc *gmk.Floc
	Msg string
}

func (e *Error) Error() string {
	if e.Loc != nil {
		return fmt.Sprintf("%s: *** %s.  Stop.", e.Loc, e.Msg)
	}
	return fmt.Sprintf("*** %s.  Stop.", e.Msg)
}

// defined reports whether a variable exists.
func (h *Host) defined(name string) bool {
	_, ok := h.vars[name]
	return ok
}

func (h *Host) define(name, value string, flavor Flavor, origin Origin) {
	h.vars[name] = &variable{value: value, flavor: flavor, origin: origin}
}

func (h *Host) undefine(name string) {
	delete(h.vars, name)
}

// isBlank reports whether s is empty after trimming make whitespace.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
