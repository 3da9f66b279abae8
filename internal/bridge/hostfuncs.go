// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package bridge

import (
	"github.com/dop251/goja"

	"github.com/aplane-algo/gmkjs/internal/gmk"
)

// namespace is the read-only make.VAR lookup object. Every property read is
// the host expansion of $(VAR); unset variables read as "". The bridge
// functions are own properties so that make.export works even though
// export is a reserved word. Object.prototype names resolve through the
// prototype so the object still converts to a string.
type namespace struct {
	b       *Bridge
	methods map[string]goja.Value
	proto   map[string]bool
}

func newNamespace(b *Bridge, methods map[string]goja.Value) *namespace {
	n := &namespace{b: b, methods: methods, proto: make(map[string]bool)}
	if ctor, ok := b.vm.Get("Object").(*goja.Object); ok {
		if p, ok := ctor.Get("prototype").(*goja.Object); ok {
			for _, name := range p.GetOwnPropertyNames() {
				n.proto[name] = true
			}
		}
	}
	return n
}

func (n *namespace) Get(key string) goja.Value {
	if fn, ok := n.methods[key]; ok {
		return fn
	}
	if n.proto[key] {
		return nil
	}
	return n.b.vm.ToValue(n.b.lookup(key))
}

// Set rejects writes: assignment is silently ignored in sloppy mode and
// throws a TypeError in strict mode.
func (n *namespace) Set(string, goja.Value) bool { return false }

func (n *namespace) Has(key string) bool {
	if _, ok := n.methods[key]; ok {
		return true
	}
	return key != "" && !n.proto[key]
}

func (n *namespace) Delete(string) bool { return false }

func (n *namespace) Keys() []string {
	keys := make([]string, 0, len(n.methods))
	for _, name := range namespaceMethods {
		if _, ok := n.methods[name]; ok {
			keys = append(keys, name)
		}
	}
	return keys
}

// lookup expands $(name).
func (b *Bridge) lookup(name string) string {
	return b.host.Expand("$(" + name + ")")
}

// jsEval evaluates a string as makefile text for side effect.
// eval(text) - no-op when text is missing or empty
func (b *Bridge) jsEval(call goja.FunctionCall) goja.Value {
	arg := call.Argument(0)
	if goja.IsUndefined(arg) || goja.IsNull(arg) {
		return goja.Undefined()
	}
	text := arg.String()
	if text == "" {
		return goja.Undefined()
	}
	loc := b.callerLocation()
	b.host.Eval(text, &loc)
	return goja.Undefined()
}

// callerLocation returns the position of the nearest script frame above the
// native call, or a placeholder naming the bridge when there is none.
func (b *Bridge) callerLocation() gmk.Floc {
	for _, f := range b.vm.CaptureCallStack(3, nil) {
		pos := f.Position()
		if pos.Line <= 0 {
			continue
		}
		name := pos.Filename
		if name == "" {
			name = f.SrcName()
		}
		return gmk.Floc{Filename: name, Lineno: uint64(pos.Line)}
	}
	return gmk.Floc{Filename: b.cfg.Function, Lineno: 0}
}

// jsExpand expands every argument through the host.
// expand(a, b, ...) - returns an array with one expanded string per argument
func (b *Bridge) jsExpand(call goja.FunctionCall) goja.Value {
	out := make([]interface{}, len(call.Arguments))
	for i, arg := range call.Arguments {
		out[i] = b.host.Expand(arg.String())
	}
	return b.vm.NewArray(out...)
}
