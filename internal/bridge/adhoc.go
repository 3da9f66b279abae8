// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package bridge

import (
	"strings"

	"github.com/dop251/goja"
)

// adhoc implements $(js script,arg1,...). The script is expanded by the host,
// compiled as a function body and called with the remaining arguments, which
// it sees as `arguments`.
func (b *Bridge) adhoc(name string, argv []string) (string, bool) {
	if len(argv) == 0 {
		return "", false
	}

	script := argv[0]
	if p := b.cfg.PrefixRune(); p != 0 && strings.HasPrefix(script, string(p)) {
		script = "return " + script[len(string(p)):]
	}
	expanded := b.host.Expand(script)

	fn, err := b.compileChunk(name, expanded)
	if err != nil {
		b.clearInterrupt(err)
		b.report(errorMessage(err))
		return "", false
	}
	return b.invoke(name, fn, argv[1:])
}

// compileChunk wraps src in a function expression so that `return` and
// `arguments` work at the top level of the chunk. The opening line is shared
// with the first source line to keep line numbers intact.
func (b *Bridge) compileChunk(name, src string) (goja.Callable, error) {
	prg, err := goja.Compile(name, "(function() {"+src+"\n})", false)
	if err != nil {
		return nil, err
	}
	v, err := b.vm.RunProgram(prg)
	if err != nil {
		return nil, err
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, &ScriptError{Message: name + ": chunk did not compile to a function"}
	}
	return fn, nil
}
