// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/aplane-algo/gmkjs/internal/gmk"
)

const replHelp = `Enter makefile statements, or:
  = TEXT      expand TEXT and print the result
  .js CODE    run CODE at global scope and print its value
  .vars       list variables
  .funcs      list extension functions
  .help       show this help
  .quit       exit`

// errQuit ends the REPL loop.
var errQuit = errors.New("quit")

// repl evaluates one line at a time against a session.
type repl struct {
	session *Session
	out     io.Writer
	color   bool
	line    uint64
}

// handle processes a single input line. Statements are attributed to
// <stdin> with the REPL's running line number.
func (r *repl) handle(input string) error {
	r.line++
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil
	}
	// A Ctrl+C that arrived while idle must not abort this line.
	r.session.Bridge.Runtime().ClearInterrupt()

	switch {
	case trimmed == ".quit" || trimmed == ".exit":
		return errQuit
	case trimmed == ".help":
		fmt.Fprintln(r.out, replHelp)
	case trimmed == ".vars":
		for _, name := range r.session.Host.VariableNames() {
			value, _ := r.session.Host.Var(name)
			fmt.Fprintf(r.out, "%s = %s\n", name, value)
		}
	case trimmed == ".funcs":
		for _, name := range r.session.Host.FunctionNames() {
			fmt.Fprintln(r.out, name)
		}
	case strings.HasPrefix(trimmed, ".js"):
		r.runScript(strings.TrimSpace(strings.TrimPrefix(trimmed, ".js")))
	case strings.HasPrefix(trimmed, "="):
		out := r.session.Host.Expand(strings.TrimSpace(trimmed[1:]))
		if !r.reportErr() {
			fmt.Fprintln(r.out, paint(resultStyle, out, r.color))
		}
	case strings.HasPrefix(trimmed, "."):
		fmt.Fprintln(r.out, paint(errorStyle, "unknown command "+trimmed+" (try .help)", r.color))
	default:
		r.session.Host.Eval(input, &gmk.Floc{Filename: "<stdin>", Lineno: r.line})
		r.reportErr()
	}
	return nil
}

func (r *repl) runScript(code string) {
	if code == "" {
		return
	}
	res, err := r.session.Bridge.Run("<stdin>", code)
	if err != nil {
		fmt.Fprintln(r.out, paint(errorStyle, err.Error(), r.color))
		return
	}
	if r.reportErr() || res.IsEmpty {
		return
	}
	fmt.Fprintln(r.out, paint(resultStyle, fmt.Sprint(res.Value), r.color))
}

// reportErr prints and clears a pending host error. Unlike a makefile run,
// the REPL keeps going after an error.
func (r *repl) reportErr() bool {
	err := r.session.Host.Err()
	if err == nil {
		return false
	}
	fmt.Fprintln(r.out, paint(errorStyle, err.Error(), r.color))
	r.session.Host.ClearErr()
	return true
}

// completer offers the dot commands and, after "=", the extension functions
// registered so far.
func (r *repl) completer() readline.AutoCompleter {
	funcs := readline.PcItemDynamic(func(string) []string {
		names := r.session.Host.FunctionNames()
		items := make([]string, 0, len(names))
		for _, name := range names {
			items = append(items, "$("+name+" ")
		}
		return items
	})
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".js"),
		readline.PcItem(".vars"),
		readline.PcItem(".funcs"),
		readline.PcItem(".quit"),
		readline.PcItem("=", funcs),
	)
}

func startBasicREPL(r *repl, in io.Reader) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.out, "gmkjs> ")
		if !scanner.Scan() {
			break
		}
		if err := r.handle(scanner.Text()); errors.Is(err, errQuit) {
			break
		}
	}
}

func startREPL(s *Session) {
	r := &repl{session: s, out: os.Stdout, color: supportsColor(os.Stdout)}

	fmt.Println("gmkjs - make with an embedded script engine")
	fmt.Println(paint(dimStyle, "Type .help for commands, Ctrl+D to exit", r.color))

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            paint(promptStyle, "gmkjs>", r.color) + " ",
		HistoryFile:       s.Config.HistoryFile,
		HistoryLimit:      1000,
		AutoComplete:      r.completer(),
		InterruptPrompt:   "^C",
		EOFPrompt:         ".quit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Printf("Failed to create readline instance, falling back to basic input: %v\n", err)
		startBasicREPL(r, os.Stdin)
		return
	}
	defer func() {
		_ = rl.Close() // Best-effort close, errors during shutdown not critical
	}()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					fmt.Println("Use .quit or Ctrl+D to exit")
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				break
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}
		if err := r.handle(line); errors.Is(err, errQuit) {
			break
		}
	}
}
