// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package makehost

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/aplane-algo/gmkjs/internal/gmk"
)

func newTestHost(t *testing.T) (*Host, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	return New(WithOutput(&out), WithStderr(&errOut)), &out, &errOut
}

func TestAssignmentFlavors(t *testing.T) {
	h, _, _ := newTestHost(t)
	err := h.EvalFile("Makefile", strings.Join([]string{
		"A = $(B)",
		"B = late",
		"C := $(B)",
		"B = later",
		"D ?= first",
		"D ?= second",
		"E = one",
		"E += two",
		"F := x",
		"F += $(B)",
		"G ::= simple",
	}, "\n"))
	if err != nil {
		t.Fatalf("EvalFile: %v", err)
	}

	tests := []struct {
		expr string
		want string
	}{
		{"$(A)", "later"},
		{"$(C)", "late"},
		{"$(D)", "first"},
		{"$(E)", "one two"},
		{"$(F)", "x later"},
		{"$(G)", "simple"},
		{"$(UNSET)", ""},
		{"${A}", "later"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			if got := h.Expand(tt.expr); got != tt.want {
				t.Errorf("Expand(%q) = %q, want %q", tt.expr, got, tt.want)
			}
		})
	}
}

func TestExpandSyntax(t *testing.T) {
	h, _, _ := newTestHost(t)
	h.Set("X", "x", OriginFile)
	h.Set("NAME", "X", OriginFile)
	h.Set("SRCS", "a.c b.c c.h", OriginFile)

	tests := []struct {
		name string
		expr string
		want string
	}{
		{name: "single char", expr: "$X-", want: "x-"},
		{name: "dollar escape", expr: "$$X", want: "$X"},
		{name: "computed name", expr: "$($(NAME))", want: "x"},
		{name: "suffix ref", expr: "$(SRCS:.c=.o)", want: "a.o b.o c.h"},
		{name: "pattern ref", expr: "$(SRCS:%.c=obj/%.o)", want: "obj/a.o obj/b.o c.h"},
		{name: "no references", expr: "plain text", want: "plain text"},
		{name: "trailing dollar", expr: "a$", want: "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.Expand(tt.expr); got != tt.want {
				t.Errorf("Expand(%q) = %q, want %q", tt.expr, got, tt.want)
			}
		})
	}
}

func TestBuiltins(t *testing.T) {
	h, out, errOut := newTestHost(t)
	h.Set("L", "  one   two three ", OriginFile)

	tests := []struct {
		expr string
		want string
	}{
		{"$(subst o,0,foo boo)", "f00 b00"},
		{"$(patsubst %.c,%.o,a.c b.h)", "a.o b.h"},
		{"$(strip $(L))", "one two three"},
		{"$(words $(L))", "3"},
		{"$(word 2,$(L))", "two"},
		{"$(word 9,$(L))", ""},
		{"$(firstword $(L))", "one"},
		{"$(lastword $(L))", "three"},
		{"$(if $(L),yes,no)", "yes"},
		{"$(if $(NOPE),yes,no)", "no"},
		{"$(if $(NOPE),yes)", ""},
		{"$(or $(NOPE),,fallback)", "fallback"},
		{"$(and a,b,c)", "c"},
		{"$(and a,,c)", ""},
		{"$(origin L)", "file"},
		{"$(origin NOPE)", "undefined"},
		{"$(info hello, world)", ""},
		{"$(warning careful)", ""},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			if got := h.Expand(tt.expr); got != tt.want {
				t.Errorf("Expand(%q) = %q, want %q", tt.expr, got, tt.want)
			}
		})
	}

	if got := out.String(); got != "hello, world\n" {
		t.Errorf("info output = %q", got)
	}
	if got := errOut.String(); got != "careful\n" {
		t.Errorf("warning output = %q", got)
	}
}

func TestValueDoesNotExpand(t *testing.T) {
	h, _, _ := newTestHost(t)
	h.Eval("R = $(X) and more", nil)
	if got := h.Expand("$(value R)"); got != "$(X) and more" {
		t.Errorf("$(value R) = %q", got)
	}
}

func TestErrorIsSticky(t *testing.T) {
	h, out, _ := newTestHost(t)
	err := h.EvalFile("build.mk", "A = 1\n$(error broken here)\n$(info unreachable)")

	var buildErr *Error
	if !errors.As(err, &buildErr) {
		t.Fatalf("EvalFile error = %v, want *Error", err)
	}
	if buildErr.Msg != "broken here" {
		t.Errorf("Msg = %q", buildErr.Msg)
	}
	if buildErr.Loc == nil || buildErr.Loc.Lineno != 2 || buildErr.Loc.Filename != "build.mk" {
		t.Errorf("Loc = %v, want build.mk:2", buildErr.Loc)
	}
	if want := "build.mk:2: *** broken here.  Stop."; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if out.Len() != 0 {
		t.Errorf("evaluation continued after error: %q", out.String())
	}
	if got := h.Expand("$(A)"); got != "" {
		t.Errorf("Expand after error = %q, want empty", got)
	}

	h.ClearErr()
	if got := h.Expand("$(A)"); got != "1" {
		t.Errorf("Expand after ClearErr = %q, want 1", got)
	}
}

func TestRecursiveSelfReference(t *testing.T) {
	h, _, _ := newTestHost(t)
	h.Eval("A = $(A) x", nil)
	h.Expand("$(A)")
	if err := h.Err(); err == nil || !strings.Contains(err.Error(), "references itself") {
		t.Errorf("Err() = %v, want self reference error", err)
	}
}

func TestStatementErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "rule", text: "all: prog", want: "rules are not supported"},
		{name: "stray text", text: "hello", want: "missing separator"},
		{name: "shell assign", text: "X != ls", want: "shell assignment is not supported"},
		{name: "unterminated", text: "X := $(oops", want: "unterminated variable reference"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := newTestHost(t)
			h.Eval(tt.text, nil)
			if err := h.Err(); err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Err() = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestCommentsAndContinuations(t *testing.T) {
	h, _, _ := newTestHost(t)
	h.Eval("# a comment\nA = one \\\n    two # trailing\nB = hash\\#tag\nC = $(subst #,-,a#b)", nil)
	if err := h.Err(); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got := h.Expand("$(strip $(A))"); got != "one two" {
		t.Errorf("A = %q", got)
	}
	if got := h.Expand("$(B)"); got != "hash#tag" {
		t.Errorf("B = %q", got)
	}
	if got := h.Expand("$(C)"); got != "a-b" {
		t.Errorf("C = %q", got)
	}
}

func TestOverrideAndUndefine(t *testing.T) {
	h, _, _ := newTestHost(t)
	h.Eval("override O = fixed\nO = changed\nU = x\nundefine U", nil)
	if got := h.Expand("$(O)"); got != "fixed" {
		t.Errorf("O = %q, want fixed", got)
	}
	if _, ok := h.Var("U"); ok {
		t.Error("U still defined after undefine")
	}
}

func TestCommandLineWins(t *testing.T) {
	h, _, _ := newTestHost(t)
	h.Set("CC", "clang", OriginCommandLine)
	h.Eval("CC = gcc\nCC += -O2", nil)
	if got := h.Expand("$(CC)"); got != "clang" {
		t.Errorf("CC = %q, want clang", got)
	}
	if got := h.Expand("$(origin CC)"); got != "command line" {
		t.Errorf("origin = %q", got)
	}
	h.Eval("override CC = tcc", nil)
	if got := h.Expand("$(CC)"); got != "tcc" {
		t.Errorf("CC after override = %q, want tcc", got)
	}
}

func TestExtensionFunctions(t *testing.T) {
	h, _, _ := newTestHost(t)
	h.Set("V", "value", OriginFile)

	var gotArgs []string
	record := func(name string, args []string) (string, bool) {
		gotArgs = append([]string(nil), args...)
		return name + ":" + strings.Join(args, "|"), true
	}
	if err := h.AddFunction("raw", 1, 2, gmk.FuncNoExpand, record); err != nil {
		t.Fatalf("AddFunction raw: %v", err)
	}
	if err := h.AddFunction("cooked", 1, 2, gmk.FuncDefault, record); err != nil {
		t.Fatalf("AddFunction cooked: %v", err)
	}
	if err := h.AddFunction("none", 1, 1, gmk.FuncDefault, func(string, []string) (string, bool) { return "", false }); err != nil {
		t.Fatalf("AddFunction none: %v", err)
	}

	if got := h.Expand("$(raw $(V),a,b)"); got != "raw:$(V)|a,b" {
		t.Errorf("raw = %q", got)
	}
	if len(gotArgs) != 2 {
		t.Errorf("raw args = %q, want 2 (extra commas join the last)", gotArgs)
	}
	if got := h.Expand("$(cooked $(V))"); got != "cooked:value" {
		t.Errorf("cooked = %q", got)
	}
	if got := h.Expand("[$(none x)]"); got != "[]" {
		t.Errorf("none = %q", got)
	}

	names := h.FunctionNames()
	for _, want := range []string{"raw", "cooked", "info"} {
		found := false
		for _, n := range names {
			if n == want {
				found = true
			}
		}
		if !found {
			t.Errorf("FunctionNames() missing %q", want)
		}
	}
}

func TestAddFunctionRejectsBadNames(t *testing.T) {
	h, _, _ := newTestHost(t)
	noop := func(string, []string) (string, bool) { return "", false }
	if err := h.AddFunction("bad name", 1, 1, gmk.FuncDefault, noop); !errors.Is(err, gmk.ErrInvalidName) {
		t.Errorf("AddFunction(bad name) = %v, want ErrInvalidName", err)
	}
	if err := h.AddFunction("subst", 1, 1, gmk.FuncDefault, noop); !errors.Is(err, gmk.ErrInvalidName) {
		t.Errorf("AddFunction(subst) = %v, want ErrInvalidName", err)
	}
	if err := h.AddFunction("nilfn", 1, 1, gmk.FuncDefault, nil); err == nil {
		t.Error("AddFunction with nil fn succeeded")
	}
}

func TestEvalLocationNesting(t *testing.T) {
	h, _, errOut := newTestHost(t)
	h.Eval("\n\n$(warning outer)", &gmk.Floc{Filename: "a.mk", Lineno: 10})
	h.Eval("$(warning inner)", &gmk.Floc{Filename: "b.js", Lineno: 3})
	want := "a.mk:12: outer\nb.js:3: inner\n"
	if got := errOut.String(); got != want {
		t.Errorf("warnings = %q, want %q", got, want)
	}
}
