// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package main

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestFormatType(t *testing.T) {
	tests := []struct {
		v    any
		want string
	}{
		{"", "string"},
		{0, "int"},
		{true, "bool"},
		{[]string{}, "[]string"},
		{map[string]string{}, "map[string]string"},
		{time.Second, "duration"},
	}
	for _, tt := range tests {
		if got := formatType(reflect.TypeOf(tt.v)); got != tt.want {
			t.Errorf("formatType(%T) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestRenderDocumentsConfig(t *testing.T) {
	var buf bytes.Buffer
	render(&buf)
	out := buf.String()

	for _, want := range []string{
		"| `function` | string | `js` |",
		"| `prefix` | string | `` ` `` |",
		"| `preload` | []string | (none) |",
		"| `watch_debounce` | duration | `300ms` |",
		"| `GMKJS_DEBUG` |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}
