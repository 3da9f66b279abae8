// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package gmk

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateFunction(t *testing.T) {
	tests := []struct {
		name    string
		fn      string
		min     int
		max     int
		wantErr error
	}{
		{name: "simple", fn: "double", min: 1, max: MaxArgs},
		{name: "dashes and dots", fn: "my-func.v2", min: 0, max: 0},
		{name: "empty", fn: "", min: 1, max: 1, wantErr: ErrInvalidName},
		{name: "too long", fn: strings.Repeat("x", MaxNameLen+1), min: 1, max: 1, wantErr: ErrInvalidName},
		{name: "space", fn: "a b", min: 1, max: 1, wantErr: ErrInvalidName},
		{name: "paren", fn: "a)", min: 1, max: 1, wantErr: ErrInvalidName},
		{name: "dollar", fn: "$x", min: 1, max: 1, wantErr: ErrInvalidName},
		{name: "max below min", fn: "f", min: 3, max: 2, wantErr: ErrArity},
		{name: "negative", fn: "f", min: -1, max: 2, wantErr: ErrArity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFunction(tt.fn, tt.min, tt.max)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateFunction(%q) = %v, want nil", tt.fn, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateFunction(%q) = %v, want %v", tt.fn, err, tt.wantErr)
			}
		})
	}
}

func TestFlocString(t *testing.T) {
	loc := Floc{Filename: "build.js", Lineno: 12}
	if got := loc.String(); got != "build.js:12" {
		t.Errorf("String() = %q, want %q", got, "build.js:12")
	}
}
