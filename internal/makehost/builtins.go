// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package makehost

import (
	"fmt"
	"strconv"
	"strings"
)

// builtin is a function implemented by the host itself. Lazy builtins
// receive unexpanded arguments and expand what they need.
type builtin struct {
	minArgs int
	maxArgs int
	lazy    bool
	fn      func(h *Host, args []string) string
}

var builtins map[string]builtin

func init() {
	builtins = map[string]builtin{
		"error":     {minArgs: 1, maxArgs: 1, fn: fnError},
		"warning":   {minArgs: 1, maxArgs: 1, fn: fnWarning},
		"info":      {minArgs: 1, maxArgs: 1, fn: fnInfo},
		"subst":     {minArgs: 3, maxArgs: 3, fn: fnSubst},
		"patsubst":  {minArgs: 3, maxArgs: 3, fn: fnPatsubst},
		"strip":     {minArgs: 1, maxArgs: 1, fn: fnStrip},
		"words":     {minArgs: 1, maxArgs: 1, fn: fnWords},
		"word":      {minArgs: 2, maxArgs: 2, fn: fnWord},
		"firstword": {minArgs: 1, maxArgs: 1, fn: fnFirstword},
		"lastword":  {minArgs: 1, maxArgs: 1, fn: fnLastword},
		"if":        {minArgs: 2, maxArgs: 3, lazy: true, fn: fnIf},
		"or":        {minArgs: 1, lazy: true, fn: fnOr},
		"and":       {minArgs: 1, lazy: true, fn: fnAnd},
		"value":     {minArgs: 1, maxArgs: 1, fn: fnValue},
		"origin":    {minArgs: 1, maxArgs: 1, fn: fnOrigin},
		"eval":      {minArgs: 1, maxArgs: 1, fn: fnEval},
	}
}

func (h *Host) callBuiltin(name string, bi builtin, rest string, open byte) string {
	args := splitArgs(rest, bi.maxArgs, open)
	if len(args) < bi.minArgs {
		h.fail("insufficient number of arguments (" + strconv.Itoa(len(args)) + ") to function '" + name + "'")
		return ""
	}
	if !bi.lazy {
		for i, a := range args {
			args[i] = h.expand(a)
		}
		if h.err != nil {
			return ""
		}
	}
	return bi.fn(h, args)
}

func fnError(h *Host, args []string) string {
	h.fail(args[0])
	return ""
}

func fnWarning(h *Host, args []string) string {
	h.warn(args[0])
	return ""
}

func fnInfo(h *Host, args []string) string {
	_, _ = fmt.Fprintln(h.stdout, args[0])
	return ""
}

func fnSubst(_ *Host, args []string) string {
	if args[0] == "" {
		return args[2]
	}
	return strings.ReplaceAll(args[2], args[0], args[1])
}

func fnPatsubst(_ *Host, args []string) string {
	return patsubst(args[0], args[1], args[2])
}

func fnStrip(_ *Host, args []string) string {
	return strings.Join(strings.Fields(args[0]), " ")
}

func fnWords(_ *Host, args []string) string {
	return strconv.Itoa(len(strings.Fields(args[0])))
}

func fnWord(h *Host, args []string) string {
	n, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil || n < 1 {
		h.fail("first argument to 'word' function must be greater than 0")
		return ""
	}
	words := strings.Fields(args[1])
	if n > len(words) {
		return ""
	}
	return words[n-1]
}

func fnFirstword(_ *Host, args []string) string {
	words := strings.Fields(args[0])
	if len(words) == 0 {
		return ""
	}
	return words[0]
}

func fnLastword(_ *Host, args []string) string {
	words := strings.Fields(args[0])
	if len(words) == 0 {
		return ""
	}
	return words[len(words)-1]
}

func fnIf(h *Host, args []string) string {
	cond := strings.TrimSpace(h.expand(args[0]))
	if cond != "" {
		return h.expand(args[1])
	}
	if len(args) > 2 {
		return h.expand(args[2])
	}
	return ""
}

func fnOr(h *Host, args []string) string {
	for _, a := range args {
		if v := strings.TrimSpace(h.expand(a)); v != "" {
			return v
		}
	}
	return ""
}

func fnAnd(h *Host, args []string) string {
	var v string
	for _, a := range args {
		if v = strings.TrimSpace(h.expand(a)); v == "" {
			return ""
		}
	}
	return v
}

func fnValue(h *Host, args []string) string {
	v, _ := h.Var(strings.TrimSpace(args[0]))
	return v
}

func fnOrigin(h *Host, args []string) string {
	v, ok := h.vars[strings.TrimSpace(args[0])]
	if !ok {
		return string(OriginUndefined)
	}
	return string(v.origin)
}

func fnEval(h *Host, args []string) string {
	h.evalText(args[0])
	return ""
}
