// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package bridge embeds a JavaScript interpreter in a build host.
//
// The host calls into scripts through two kinds of extension functions: the
// ad-hoc evaluator ($(js ...)) and names exported by scripts with
// make.export(). Scripts call back into the host with make.eval(),
// make.expand() and the make.VAR lookup object. All calls are synchronous
// and may nest; a single Bridge owns the interpreter for the lifetime of the
// host process.
package bridge

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dop251/goja"

	"github.com/aplane-algo/gmkjs/internal/config"
	"github.com/aplane-algo/gmkjs/internal/gmk"
)

// Bridge connects one goja runtime to one host. It is not safe for
// concurrent use; the host drives it from a single thread.
type Bridge struct {
	vm     *goja.Runtime
	host   gmk.Host
	cfg    config.Config
	logger *slog.Logger
	stdout io.Writer

	// exported tracks names already registered with the host.
	exported map[string]bool

	// depth counts host-initiated calls currently on the stack.
	depth int
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithConfig overrides the default function, namespace and prefix names.
func WithConfig(cfg config.Config) Option {
	return func(b *Bridge) { b.cfg = cfg }
}

// WithLogger sets the diagnostic logger. Errors reported to the host are
// also written here.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) { b.logger = l }
}

// WithOutput sets where print() and console.log() write.
func WithOutput(w io.Writer) Option {
	return func(b *Bridge) { b.stdout = w }
}

// Setup creates the interpreter, installs the script-visible globals and
// registers the ad-hoc evaluator with the host.
func Setup(host gmk.Host, opts ...Option) (*Bridge, error) {
	b := &Bridge{
		host:     host,
		cfg:      config.DefaultConfig(),
		logger:   slog.Default(),
		stdout:   os.Stdout,
		exported: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(b)
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}

	b.vm = goja.New()
	if err := b.registerStdlib(); err != nil {
		return nil, err
	}
	if err := b.registerGlobals(); err != nil {
		return nil, err
	}

	if err := host.AddFunction(b.cfg.Function, 1, gmk.MaxArgs, gmk.FuncNoExpand, b.adhoc); err != nil {
		return nil, fmt.Errorf("failed to register %s function: %w", b.cfg.Function, err)
	}
	b.logger.Debug("bridge ready", "function", b.cfg.Function, "namespace", b.cfg.Namespace)

	for _, path := range b.cfg.Preload {
		if err := b.RunFile(path); err != nil {
			return nil, fmt.Errorf("preload %s: %w", path, err)
		}
	}
	return b, nil
}

// namespaceMethods are the bridge functions, in the order Keys reports them.
var namespaceMethods = []string{"eval", "export", "expand"}

// registerGlobals installs eval, export and expand both on the namespace
// object and as global aliases. Scripts spell export as make.export(...)
// because a bare export(...) does not parse.
func (b *Bridge) registerGlobals() error {
	impls := map[string]func(goja.FunctionCall) goja.Value{
		"eval":   b.jsEval,
		"export": b.jsExport,
		"expand": b.jsExpand,
	}

	methods := make(map[string]goja.Value, len(impls))
	for _, name := range namespaceMethods {
		fn := b.vm.ToValue(impls[name])
		if err := b.vm.Set(name, fn); err != nil {
			return fmt.Errorf("failed to register %s: %w", name, err)
		}
		methods[name] = fn
	}

	ns := b.vm.NewDynamicObject(newNamespace(b, methods))
	if err := b.vm.Set(b.cfg.Namespace, ns); err != nil {
		return fmt.Errorf("failed to register %s: %w", b.cfg.Namespace, err)
	}
	return nil
}

// Depth reports how many host-initiated calls are in progress.
func (b *Bridge) Depth() int {
	return b.depth
}

// Runtime returns the underlying goja runtime.
func (b *Bridge) Runtime() *goja.Runtime {
	return b.vm
}

// Interrupt stops the script currently running. The interrupted call is
// reported to the host as a failed invocation.
// Safe to call from another goroutine.
func (b *Bridge) Interrupt() {
	b.vm.Interrupt("script interrupted")
}
