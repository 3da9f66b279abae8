// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package bridge

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"
)

// invoke calls fn with each raw host argument expanded exactly once and
// converts the first result for the host. Failures are reported through the
// host error channel and yield no result.
func (b *Bridge) invoke(name string, fn goja.Callable, argv []string) (res string, ok bool) {
	b.depth++
	defer func() {
		b.depth--
		if r := recover(); r != nil {
			b.report(fmt.Sprintf("%s: %v", name, r))
			res, ok = "", false
		}
	}()

	args := make([]goja.Value, len(argv))
	for i, raw := range argv {
		args[i] = b.vm.ToValue(b.host.Expand(raw))
	}

	ret, err := fn(goja.Undefined(), args...)
	if err != nil {
		b.clearInterrupt(err)
		b.report(errorMessage(err))
		return "", false
	}

	if ex := b.vm.Try(func() { res, ok = toResult(ret) }); ex != nil {
		b.report(errorMessage(ex))
		return "", false
	}
	return res, ok
}

// toResult converts a script value to a host string. undefined and null are
// "no result", as is the empty string, which the host cannot tell apart
// from no result anyway. Conversion may throw for objects with a custom
// toString.
func toResult(v goja.Value) (string, bool) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return "", false
	}
	s := v.String()
	if s == "" {
		return "", false
	}
	return s, true
}

func errorMessage(err error) string {
	if ex, ok := err.(*goja.Exception); ok && ex.Value() != nil {
		msg := ex.Value().String()
		if frames := ex.Stack(); len(frames) > 0 {
			if pos := frames[0].Position(); pos.Line > 0 {
				msg = fmt.Sprintf("%s:%d: %s", pos.Filename, pos.Line, msg)
			}
		}
		return msg
	}
	return err.Error()
}

// report is the single error channel to the host: the message goes to the
// diagnostic log and into a synthesized $(error ...) call.
func (b *Bridge) report(msg string) {
	if msg == "" {
		msg = "unknown script error"
	}
	b.logger.Error("script error", "error", msg)
	b.host.Eval(errorDirective(msg), nil)
}

var directiveEscaper = strings.NewReplacer("$", "$$", "\r\n", " ", "\n", " ", "\r", " ")

// errorDirective builds $(error msg) so that msg reaches the host verbatim:
// references are escaped, newlines flattened, and parentheses that would end
// the call early are swapped for brackets.
func errorDirective(msg string) string {
	msg = directiveEscaper.Replace(msg)
	if !balanced(msg) {
		msg = strings.NewReplacer("(", "[", ")", "]").Replace(msg)
	}
	return "$(error " + msg + ")"
}

func balanced(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
