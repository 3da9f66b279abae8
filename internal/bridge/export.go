// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package bridge

import (
	"github.com/dop251/goja"

	"github.com/aplane-algo/gmkjs/internal/gmk"
)

// jsExport makes a script function callable from the host by name.
// make.export(name, fn) - binds fn as global name and registers $(name ...)
func (b *Bridge) jsExport(call goja.FunctionCall) goja.Value {
	nameArg := call.Argument(0)
	if goja.IsUndefined(nameArg) || goja.IsNull(nameArg) {
		panic(b.vm.NewTypeError("make.export() requires a function name"))
	}
	name := nameArg.String()
	if name == "" {
		panic(b.vm.NewTypeError("make.export() requires a non-empty function name"))
	}
	fn := call.Argument(1)

	global := b.vm.GlobalObject()
	prev := global.Get(name)
	if err := global.Set(name, fn); err != nil {
		panic(err)
	}
	if b.exported[name] {
		return goja.Undefined()
	}

	if err := b.host.AddFunction(name, 1, gmk.MaxArgs, gmk.FuncNoExpand, b.dispatch); err != nil {
		if prev != nil {
			_ = global.Set(name, prev)
		} else {
			_ = global.Delete(name)
		}
		panic(b.vm.NewTypeError("make.export(%q): %v", name, err))
	}
	b.exported[name] = true
	b.logger.Debug("function exported", "name", name)
	return goja.Undefined()
}

// dispatch is the host-side trampoline for every exported name. A name that
// no longer resolves to a callable yields no result and no error.
func (b *Bridge) dispatch(name string, argv []string) (string, bool) {
	var (
		fn goja.Callable
		ok bool
	)
	// The global may have been replaced by an accessor that throws.
	if ex := b.vm.Try(func() { fn, ok = goja.AssertFunction(b.vm.Get(name)) }); ex != nil {
		b.report(errorMessage(ex))
		return "", false
	}
	if !ok {
		b.logger.Debug("dispatch target not callable", "name", name)
		return "", false
	}
	b.logger.Debug("dispatch", "name", name, "args", len(argv))
	return b.invoke(name, fn, argv)
}
