// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package makehost

import (
	"strings"

	"github.com/aplane-algo/gmkjs/internal/gmk"
)

// Eval implements gmk.Host. Statements are attributed to loc, counting lines
// from loc.Lineno; a nil loc keeps the location of the enclosing evaluation.
func (h *Host) Eval(text string, loc *gmk.Floc) {
	if loc != nil {
		saved := h.loc
		cur := *loc
		h.loc = &cur
		defer func() { h.loc = saved }()
	}
	h.evalText(text)
}

// EvalFile evaluates a whole makefile and returns the first build error.
func (h *Host) EvalFile(name string, text string) error {
	h.Eval(text, &gmk.Floc{Filename: name, Lineno: 1})
	return h.err
}

func (h *Host) evalText(text string) {
	var first uint64
	if loc := h.loc; loc != nil {
		first = loc.Lineno
		defer func() { loc.Lineno = first }()
	}
	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines) && h.err == nil; i++ {
		lineno := first + uint64(i)
		line := lines[i]
		for strings.HasSuffix(line, "\\") && i+1 < len(lines) {
			i++
			line = strings.TrimRight(line[:len(line)-1], " \t") + " " + strings.TrimLeft(lines[i], " \t")
		}
		if h.loc != nil {
			h.loc.Lineno = lineno
		}
		h.statement(stripComment(line))
	}
}

// stripComment removes a trailing # comment. A # inside a reference or
// escaped with a backslash is kept.
func stripComment(line string) string {
	depth := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '(', '{':
			if i > 0 && line[i-1] == '$' || depth > 0 {
				depth++
			}
		case ')', '}':
			if depth > 0 {
				depth--
			}
		case '\\':
			if i+1 < len(line) && line[i+1] == '#' {
				line = line[:i] + line[i+1:]
			}
		case '#':
			if depth == 0 {
				return line[:i]
			}
		}
	}
	return line
}

// assignOps are checked longest first.
var assignOps = []string{"::=", ":=", "+=", "?=", "!=", "="}

func (h *Host) statement(line string) {
	stmt := strings.TrimSpace(line)
	if stmt == "" {
		return
	}

	origin := OriginFile
	for _, kw := range []string{"export ", "override "} {
		if strings.HasPrefix(stmt, kw) {
			if kw == "override " {
				origin = OriginOverride
			}
			stmt = strings.TrimSpace(stmt[len(kw):])
		}
	}
	if strings.HasPrefix(stmt, "undefine ") {
		h.undefine(strings.TrimSpace(h.expand(stmt[len("undefine "):])))
		return
	}

	if name, op, value, ok := splitAssignment(stmt); ok {
		h.assign(h.expand(name), op, value, origin)
		return
	}

	if indexTopLevel(stmt, ':', '(') >= 0 && !strings.HasPrefix(stmt, "$") {
		h.fail("rules are not supported")
		return
	}
	if out := h.expand(stmt); !isBlank(out) && h.err == nil {
		h.fail("missing separator")
	}
}

// splitAssignment finds the first top-level assignment operator.
func splitAssignment(stmt string) (name, op, value string, ok bool) {
	depth := 0
	for i := 0; i < len(stmt); i++ {
		switch stmt[i] {
		case '(', '{':
			depth++
		case ')', '}':
			depth--
		case '=':
			if depth != 0 {
				continue
			}
			for _, candidate := range assignOps {
				start := i + 1 - len(candidate)
				if start >= 0 && stmt[start:i+1] == candidate {
					name = strings.TrimSpace(stmt[:start])
					if name == "" || strings.ContainsAny(name, " \t") && !strings.Contains(name, "$") {
						return "", "", "", false
					}
					return name, candidate, strings.TrimLeft(stmt[i+1:], " \t"), true
				}
			}
		case ':':
			if depth == 0 && !strings.HasPrefix(stmt[i:], ":=") && !strings.HasPrefix(stmt[i:], "::=") {
				return "", "", "", false
			}
		}
	}
	return "", "", "", false
}

func (h *Host) assign(name, op, value string, origin Origin) {
	if name == "" {
		h.fail("empty variable name")
		return
	}
	// Command line and override definitions beat makefile assignments.
	if prev, ok := h.vars[name]; ok && origin != OriginOverride &&
		(prev.origin == OriginOverride || prev.origin == OriginCommandLine) {
		return
	}
	switch op {
	case "=":
		h.define(name, value, Recursive, origin)
	case ":=", "::=":
		h.define(name, h.expand(value), Simple, origin)
	case "?=":
		if !h.defined(name) {
			h.define(name, value, Recursive, origin)
		}
	case "+=":
		prev, ok := h.vars[name]
		if !ok {
			h.define(name, value, Recursive, origin)
			return
		}
		if prev.flavor == Simple {
			value = h.expand(value)
		}
		if prev.value != "" && value != "" {
			value = prev.value + " " + value
		} else if value == "" {
			value = prev.value
		}
		h.define(name, value, prev.flavor, prev.origin)
	case "!=":
		h.fail("shell assignment is not supported")
	}
}
