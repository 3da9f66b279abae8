// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dop251/goja"
)

// maxCallStackSize bounds script recursion, including recursion that passes
// through the host, so runaway scripts fail with a RangeError.
const maxCallStackSize = 4096

// registerStdlib installs the facilities scripts get besides the ECMAScript
// builtins: print, console and load.
func (b *Bridge) registerStdlib() error {
	b.vm.SetMaxCallStackSize(maxCallStackSize)

	if err := b.vm.Set("print", b.jsPrint); err != nil {
		return fmt.Errorf("failed to register print: %w", err)
	}
	if err := b.vm.Set("load", b.jsLoad); err != nil {
		return fmt.Errorf("failed to register load: %w", err)
	}

	console := b.vm.NewObject()
	methods := map[string]func(goja.FunctionCall) goja.Value{
		"log":   b.jsPrint,
		"info":  b.consoleFunc(slog.LevelInfo),
		"debug": b.consoleFunc(slog.LevelDebug),
		"warn":  b.consoleFunc(slog.LevelWarn),
		"error": b.consoleFunc(slog.LevelError),
	}
	for name, fn := range methods {
		if err := console.Set(name, fn); err != nil {
			return fmt.Errorf("failed to register console.%s: %w", name, err)
		}
	}
	if err := b.vm.Set("console", console); err != nil {
		return fmt.Errorf("failed to register console: %w", err)
	}
	return nil
}

func joinArgs(call goja.FunctionCall) string {
	parts := make([]string, len(call.Arguments))
	for i, arg := range call.Arguments {
		parts[i] = arg.String()
	}
	return strings.Join(parts, " ")
}

// jsPrint writes its arguments, space separated, to the bridge output.
func (b *Bridge) jsPrint(call goja.FunctionCall) goja.Value {
	_, _ = fmt.Fprintln(b.stdout, joinArgs(call))
	return goja.Undefined()
}

func (b *Bridge) consoleFunc(level slog.Level) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		b.logger.Log(context.Background(), level, joinArgs(call), "source", "script")
		return goja.Undefined()
	}
}

// jsLoad runs a script file at global scope and returns its completion value.
// load(path) - throws if the file cannot be read or the script fails
func (b *Bridge) jsLoad(call goja.FunctionCall) goja.Value {
	if len(call.Arguments) < 1 {
		panic(b.vm.NewTypeError("load() requires a file path"))
	}
	path := call.Arguments[0].String()

	src, err := os.ReadFile(path)
	if err != nil {
		panic(b.vm.NewGoError(fmt.Errorf("load(%q): %w", path, err)))
	}
	prg, err := goja.Compile(path, string(src), false)
	if err != nil {
		panic(b.vm.NewGoError(err))
	}
	v, err := b.vm.RunProgram(prg)
	if err != nil {
		// Exceptions rethrow as themselves; interrupts stay uncatchable.
		panic(err)
	}
	return v
}
