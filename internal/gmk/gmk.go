// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package gmk describes the extension API a build tool exposes to loadable
// objects: expansion, evaluation, and function registration.
//
// It mirrors GNU make's gnumake.h. The cgo plugin adapts the real API to the
// Host interface; makehost provides an in-process implementation used by the
// CLI and the tests.
package gmk

import (
	"errors"
	"fmt"
)

// MaxNameLen is the longest function name GNU make accepts.
const MaxNameLen = 255

// MaxArgs is the argument limit for every function the bridge registers.
const MaxArgs = 8

// Flags control how the host treats a registered function's arguments.
type Flags int

const (
	// FuncDefault asks the host to expand arguments before the call.
	FuncDefault Flags = 0
	// FuncNoExpand passes arguments through unexpanded.
	FuncNoExpand Flags = 1
)

// Floc is a makefile source location used to attribute diagnostics.
type Floc struct {
	Filename string
	Lineno   uint64
}

func (f Floc) String() string {
	return fmt.Sprintf("%s:%d", f.Filename, f.Lineno)
}

// Func is an extension function. The boolean is false when the function has
// no result, which the host treats as expanding to nothing.
type Func func(name string, args []string) (string, bool)

// Host is the build tool side of the bridge.
type Host interface {
	// Expand runs text through the host's expansion engine. The returned
	// string is a copy owned by the caller.
	Expand(text string) string

	// Eval evaluates text as makefile statements for side effect. loc may be
	// nil when no source location is known.
	Eval(text string, loc *Floc)

	// AddFunction registers fn under name, callable as $(name ...) with
	// between minArgs and maxArgs arguments.
	AddFunction(name string, minArgs, maxArgs int, flags Flags, fn Func) error
}

var (
	// ErrInvalidName is returned for empty, oversized or malformed function names.
	ErrInvalidName = errors.New("invalid function name")

	// ErrArity is returned when an argument range is impossible.
	ErrArity = errors.New("invalid argument range")
)

// ValidateFunction checks a registration request the way GNU make does
// before it touches its function table.
func ValidateFunction(name string, minArgs, maxArgs int) error {
	if name == "" || len(name) > MaxNameLen {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for _, c := range name {
		switch c {
		case ' ', '\t', '\n', '$', '(', ')', '{', '}', ',', ':', '=':
			return fmt.Errorf("%w: %q contains %q", ErrInvalidName, name, c)
		}
	}
	if minArgs < 0 || maxArgs < 0 || (maxArgs > 0 && maxArgs < minArgs) {
		return fmt.Errorf("%w: %d..%d", ErrArity, minArgs, maxArgs)
	}
	return nil
}
