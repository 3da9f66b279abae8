// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package bridge

import (
	"errors"
	"fmt"
	"os"

	"github.com/dop251/goja"
)

// ScriptError represents an error that occurred while compiling or running a
// script outside of a host call.
type ScriptError struct {
	Message string
	Err     error
}

func (e *ScriptError) Error() string {
	return e.Message
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// Result holds the outcome of running a script.
type Result struct {
	// Value is the exported result value (nil if IsEmpty is true)
	Value interface{}
	// IsEmpty is true if the script returned undefined/null/void
	IsEmpty bool
}

// Run executes src at global scope, outside any host call. Errors are
// returned to the caller rather than reported to the host.
func (b *Bridge) Run(name, src string) (Result, error) {
	prg, err := goja.Compile(name, src, false)
	if err != nil {
		return Result{}, &ScriptError{Message: err.Error(), Err: err}
	}
	result, err := b.vm.RunProgram(prg)
	if err != nil {
		b.clearInterrupt(err)
		var jsErr *goja.Exception
		if errors.As(err, &jsErr) {
			return Result{}, &ScriptError{Message: jsErr.String(), Err: err}
		}
		return Result{}, &ScriptError{Message: err.Error(), Err: err}
	}

	if result == nil || goja.IsUndefined(result) || goja.IsNull(result) {
		return Result{IsEmpty: true}, nil
	}
	return Result{Value: result.Export()}, nil
}

// RunFile reads and runs a script file at global scope.
func (b *Bridge) RunFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	_, err = b.Run(path, string(src))
	return err
}

func (b *Bridge) clearInterrupt(err error) {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		b.vm.ClearInterrupt()
	}
}
