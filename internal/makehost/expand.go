// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package makehost

import (
	"strconv"
	"strings"

	"github.com/aplane-algo/gmkjs/internal/gmk"
)

func closerOf(open byte) byte {
	if open == '{' {
		return '}'
	}
	return ')'
}

// matchClose returns the index of the delimiter closing a reference whose
// body starts at start, or -1. Only delimiters of the same kind nest.
func matchClose(s string, start int, open, close byte) int {
	depth := 1
	for i := start; i < len(s); i++ {
		switch s[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func (h *Host) expand(s string) string {
	if h.err != nil {
		return ""
	}
	if strings.IndexByte(s, '$') < 0 {
		return s
	}
	h.depth++
	defer func() { h.depth-- }()
	if h.depth > maxDepth {
		h.fail("expansion nested too deeply")
		return ""
	}

	var b strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		if c != '$' {
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(s) {
			break
		}
		switch n := s[i+1]; n {
		case '$':
			b.WriteByte('$')
			i += 2
		case '(', '{':
			close := closerOf(n)
			end := matchClose(s, i+2, n, close)
			if end < 0 {
				h.fail("unterminated variable reference")
				return ""
			}
			b.WriteString(h.reference(s[i+2:end], n))
			i = end + 1
		default:
			b.WriteString(h.lookup(string(n)))
			i += 2
		}
		if h.err != nil {
			return ""
		}
	}
	return b.String()
}

// reference expands the body of $(...) or ${...}: a function call, a
// substitution reference, or a plain variable reference.
func (h *Host) reference(body string, open byte) string {
	if name, rest, ok := splitFuncName(body); ok {
		if bi, ok := builtins[name]; ok {
			return h.callBuiltin(name, bi, rest, open)
		}
		if fn, ok := h.funcs[name]; ok {
			return h.callFunction(name, fn, rest, open)
		}
	}

	if colon := indexTopLevel(body, ':', open); colon >= 0 {
		if eq := strings.IndexByte(body[colon+1:], '='); eq >= 0 {
			name := h.expand(body[:colon])
			from := h.expand(body[colon+1 : colon+1+eq])
			to := h.expand(body[colon+2+eq:])
			return substRef(h.lookup(name), from, to)
		}
	}
	return h.lookup(h.expand(body))
}

// splitFuncName splits "name args" at the first run of blanks.
func splitFuncName(body string) (string, string, bool) {
	i := strings.IndexAny(body, " \t")
	if i <= 0 {
		return "", "", false
	}
	return body[:i], strings.TrimLeft(body[i:], " \t"), true
}

// indexTopLevel finds c outside nested references.
func indexTopLevel(s string, c byte, open byte) int {
	close := closerOf(open)
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case open:
			depth++
		case close:
			depth--
		case c:
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// lookup returns the value of a variable, expanding recursive ones.
func (h *Host) lookup(name string) string {
	v, ok := h.vars[name]
	if !ok {
		return ""
	}
	if v.flavor == Simple {
		return v.value
	}
	if h.expanding[name] {
		h.fail("Recursive variable '" + name + "' references itself (eventually)")
		return ""
	}
	h.expanding[name] = true
	defer delete(h.expanding, name)
	return h.expand(v.value)
}

// splitArgs splits a function argument string on top-level commas. Once max
// arguments are collected the remainder, commas included, is the last one.
func splitArgs(s string, max int, open byte) []string {
	close := closerOf(open)
	var args []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		if max > 0 && len(args) == max-1 {
			break
		}
		switch s[i] {
		case open:
			depth++
		case close:
			depth--
		case ',':
			if depth == 0 {
				args = append(args, s[start:i])
				start = i + 1
			}
		}
	}
	return append(args, s[start:])
}

func (h *Host) callFunction(name string, fn *function, rest string, open byte) string {
	args := splitArgs(rest, fn.maxArgs, open)
	if len(args) < fn.minArgs {
		h.fail("insufficient number of arguments (" + strconv.Itoa(len(args)) + ") to function '" + name + "'")
		return ""
	}
	if fn.flags&gmk.FuncNoExpand == 0 {
		for i, a := range args {
			args[i] = h.expand(a)
		}
		if h.err != nil {
			return ""
		}
	}
	h.logger.Debug("calling function", "name", name, "args", len(args))
	res, ok := fn.fn(name, args)
	if !ok {
		return ""
	}
	return res
}

// substRef implements $(VAR:from=to). A from without % acts as a suffix.
func substRef(value, from, to string) string {
	if !strings.Contains(from, "%") {
		from = "%" + from
		to = "%" + to
	}
	return patsubst(from, to, value)
}

func patsubst(pattern, replacement, text string) string {
	pi := strings.IndexByte(pattern, '%')
	words := strings.Fields(text)
	for i, w := range words {
		if pi < 0 {
			if w == pattern {
				words[i] = replacement
			}
			continue
		}
		prefix, suffix := pattern[:pi], pattern[pi+1:]
		if len(w) < len(prefix)+len(suffix) || !strings.HasPrefix(w, prefix) || !strings.HasSuffix(w, suffix) {
			continue
		}
		stem := w[len(prefix) : len(w)-len(suffix)]
		words[i] = strings.Replace(replacement, "%", stem, 1)
	}
	return strings.Join(words, " ")
}
