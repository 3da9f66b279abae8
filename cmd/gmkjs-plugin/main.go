// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

//go:build gnumake

// Command gmkjs-plugin builds the loadable object for GNU make:
//
//	go build -tags gnumake -buildmode=c-shared -o gmkjs.so ./cmd/gmkjs-plugin
//
// A makefile then enables the bridge with "load ./gmkjs.so". Settings come
// from the file named by GMKJS_CONFIG, or ./gmkjs.yaml when present.
package main

/*
#include <stdlib.h>
#include <gnumake.h>

extern void gmkjs_add_function(const char *name, unsigned int min, unsigned int max, unsigned int flags);
extern char *gmkjs_copy(const char *s, size_t n);
*/
import "C"

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/aplane-algo/gmkjs/internal/bridge"
	"github.com/aplane-algo/gmkjs/internal/config"
	"github.com/aplane-algo/gmkjs/internal/gmk"
	"github.com/aplane-algo/gmkjs/internal/util"
)

// ConfigEnv names the config file used by the plugin.
const ConfigEnv = "GMKJS_CONFIG"

// make is single threaded, so the plugin state needs no locking.
var (
	instance *bridge.Bridge
	host     = &gnuMake{funcs: make(map[string]gmk.Func)}
)

// gnuMake implements gmk.Host on top of the running make process.
type gnuMake struct {
	funcs map[string]gmk.Func
}

func (g *gnuMake) Expand(text string) string {
	cs := C.CString(text)
	defer C.free(unsafe.Pointer(cs))

	res := C.gmk_expand(cs)
	if res == nil {
		return ""
	}
	defer C.gmk_free(res)
	return C.GoString(res)
}

func (g *gnuMake) Eval(text string, loc *gmk.Floc) {
	cs := C.CString(text)
	defer C.free(unsafe.Pointer(cs))

	if loc == nil {
		C.gmk_eval(cs, nil)
		return
	}
	name := C.CString(loc.Filename)
	defer C.free(unsafe.Pointer(name))
	floc := C.gmk_floc{filenm: name, lineno: C.ulong(loc.Lineno)}
	C.gmk_eval(cs, &floc)
}

func (g *gnuMake) AddFunction(name string, minArgs, maxArgs int, flags gmk.Flags, fn gmk.Func) error {
	if err := gmk.ValidateFunction(name, minArgs, maxArgs); err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("%w: nil function for %s", gmk.ErrInvalidName, name)
	}

	var cflags C.uint
	if flags&gmk.FuncNoExpand != 0 {
		cflags = C.GMK_FUNC_NOEXPAND
	}

	g.funcs[name] = fn
	// make keeps the name pointer for the life of the process.
	C.gmkjs_add_function(C.CString(name), C.uint(minArgs), C.uint(maxArgs), cflags)
	return nil
}

//export gmkjsCall
func gmkjsCall(name *C.char, argc C.uint, argv **C.char) *C.char {
	fn, ok := host.funcs[C.GoString(name)]
	if !ok {
		return nil
	}

	args := make([]string, int(argc))
	for i, p := range unsafe.Slice(argv, int(argc)) {
		args[i] = C.GoString(p)
	}

	res, ok := fn(C.GoString(name), args)
	if !ok || res == "" {
		return nil
	}
	// The result must live in make's allocator, which frees it.
	return C.gmkjs_copy((*C.char)(unsafe.Pointer(unsafe.StringData(res))), C.size_t(len(res)))
}

//export gmkjs_gmk_setup
func gmkjs_gmk_setup(floc *C.gmk_floc) C.int {
	_ = floc // make 4.2+ passes the load location
	if instance != nil {
		return 1
	}

	util.InitLogger(os.Stderr)

	cfg, err := config.Load(os.Getenv(ConfigEnv))
	if err != nil {
		util.Logger.Error("failed to load config", "error", err)
		return 0
	}

	b, err := bridge.Setup(host, bridge.WithConfig(cfg), bridge.WithLogger(util.Logger))
	if err != nil {
		util.Logger.Error("failed to set up bridge", "error", err)
		return 0
	}
	instance = b
	return 1
}

func main() {}
