// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Command gmkjs evaluates makefiles on a built-in make host with the script
// bridge installed, so $(js ...) and exported functions can be tried without
// a plugin-enabled GNU make.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/aplane-algo/gmkjs/internal/config"
	"github.com/aplane-algo/gmkjs/internal/util"
	"github.com/aplane-algo/gmkjs/internal/version"
)

// Exit codes follow make: 2 for build errors.
const (
	exitOK    = 0
	exitSetup = 1
	exitBuild = 2
)

// stringList collects a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ", ") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// options holds what the command line asked for.
type options struct {
	file        string
	text        string
	exprs       []string
	overrides   map[string]string
	interactive bool
	watch       bool
}

func main() {
	configPath := flag.String("config", "", "Config file (default: ./"+config.DefaultConfigName+" if present)")
	printVersion := flag.Bool("version", false, "Print version and exit")
	file := flag.String("f", "", "Makefile to evaluate (use '-' for stdin)")
	text := flag.String("e", "", "Evaluate makefile text")
	interactive := flag.Bool("i", false, "Start the REPL after evaluation")
	watch := flag.Bool("watch", false, "Re-evaluate the -f makefile whenever it changes")
	var exprs stringList
	flag.Var(&exprs, "x", "Expand and print an expression after evaluation (repeatable)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: gmkjs [flags] [makefile] [NAME=value ...]\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *printVersion {
		fmt.Printf("gmkjs %s\n", version.String())
		os.Exit(exitOK)
	}

	// Initialize logger (supports GMKJS_DEBUG environment variable)
	util.InitLogger(os.Stderr)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitSetup)
	}

	opts, err := buildOptions(*file, *text, exprs, *interactive, *watch, flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(exitSetup)
	}

	os.Exit(run(cfg, opts))
}

// buildOptions validates flag combinations. With nothing to evaluate the
// REPL starts.
func buildOptions(file, text string, exprs []string, interactive, watch bool, args []string) (options, error) {
	overrides, rest := parseOverrides(args)
	if len(rest) > 0 && file == "" {
		file, rest = rest[0], rest[1:]
	}
	if len(rest) > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %s", strings.Join(rest, " "))
	}
	if watch && (file == "" || file == "-") {
		return options{}, fmt.Errorf("-watch requires a makefile path")
	}
	if watch && interactive {
		return options{}, fmt.Errorf("-watch and -i cannot be combined")
	}
	if file == "" && text == "" && len(exprs) == 0 {
		interactive = true
	}
	return options{
		file:        file,
		text:        text,
		exprs:       exprs,
		overrides:   overrides,
		interactive: interactive,
		watch:       watch,
	}, nil
}

// interrupter forwards Ctrl+C to whichever session is running.
type interrupter struct {
	current atomic.Pointer[Session]
}

func (i *interrupter) set(s *Session) { i.current.Store(s) }

func (i *interrupter) interrupt() {
	if s := i.current.Load(); s != nil {
		s.Bridge.Interrupt()
	}
}

func run(cfg config.Config, opts options) int {
	color := supportsColor(os.Stderr)
	var intr interrupter

	if opts.watch {
		return runWatch(cfg, opts, &intr, color)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !opts.interactive {
		go func() {
			<-ctx.Done()
			intr.interrupt()
			stop() // a second Ctrl+C kills the process
		}()
	}

	s, err := evaluate(cfg, opts, &intr)
	if err != nil {
		printError(err, color)
		if s == nil {
			return exitSetup
		}
		if !opts.interactive {
			return exitBuild
		}
		s.Host.ClearErr()
	}

	if opts.interactive {
		stop()
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt)
		defer signal.Stop(sigCh)
		go func() {
			for range sigCh {
				intr.interrupt()
			}
		}()
		startREPL(s)
	}
	return exitOK
}

// evaluate builds a fresh session and runs the requested file, text and
// expressions in that order. The session is returned even on a build error.
func evaluate(cfg config.Config, opts options, intr *interrupter) (*Session, error) {
	s, err := NewSession(cfg, opts.overrides, os.Stdout, os.Stderr)
	if err != nil {
		return nil, err
	}
	intr.set(s)

	if opts.file != "" {
		if err := s.RunFile(opts.file); err != nil {
			return s, err
		}
	}
	if opts.text != "" {
		if err := s.EvalText(opts.text); err != nil {
			return s, err
		}
	}
	return s, s.ExpandAll(opts.exprs)
}

func runWatch(cfg config.Config, opts options, intr *interrupter, color bool) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	changed, err := watchFile(ctx, opts.file, cfg.WatchDebounce)
	if err != nil {
		printError(err, color)
		return exitSetup
	}
	go func() {
		<-ctx.Done()
		intr.interrupt()
	}()

	for {
		// Each run gets a fresh host so removed assignments disappear.
		if _, err := evaluate(cfg, opts, intr); err != nil {
			printError(err, color)
		}
		fmt.Fprintln(os.Stderr, paint(dimStyle, "watching "+opts.file+" (Ctrl+C to stop)", color))

		select {
		case <-ctx.Done():
			return exitOK
		case <-changed:
			util.Debug("makefile changed", "path", opts.file)
		}
	}
}

func printError(err error, color bool) {
	fmt.Fprintln(os.Stderr, paint(errorStyle, "gmkjs: "+err.Error(), color))
}
