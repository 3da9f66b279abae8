// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// configdoc generates markdown documentation from Go struct tags.
// Usage: go run ./cmd/configdoc > doc/CONFIG_REFERENCE.md
package main

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/aplane-algo/gmkjs/internal/config"
)

// EnvVar represents an environment variable configuration
type EnvVar struct {
	Name        string
	Description string
	UsedBy      string
}

var envVars = []EnvVar{
	{"GMKJS_CONFIG", "Config file loaded by the make plugin (default: ./" + config.DefaultConfigName + ")", "gmkjs.so"},
	{"GMKJS_DEBUG", "Set to any value to enable debug logging", "gmkjs, gmkjs.so"},
	{"NO_COLOR", "Set to any value to disable colored output", "gmkjs"},
}

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--help" || os.Args[1] == "-h") {
		fmt.Println("Usage: go run ./cmd/configdoc > doc/CONFIG_REFERENCE.md")
		fmt.Println()
		fmt.Println("Generates markdown documentation from Go struct tags.")
		return
	}
	render(os.Stdout)
}

func render(w io.Writer) {
	fmt.Fprintln(w, "# Configuration Reference")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Auto-generated from Go struct tags. Do not edit manually.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "---")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## gmkjs Configuration")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: `%s` in the working directory, or `-config <path>` (CLI) and `GMKJS_CONFIG` (plugin)\n", config.DefaultConfigName)
	fmt.Fprintln(w)
	printStructTable(w, reflect.TypeOf(config.Config{}))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Environment Variables")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Variable | Description | Used By |")
	fmt.Fprintln(w, "|----------|-------------|---------|")
	for _, env := range envVars {
		fmt.Fprintf(w, "| `%s` | %s | %s |\n", env.Name, env.Description, env.UsedBy)
	}
}

func printStructTable(w io.Writer, t reflect.Type) {
	fmt.Fprintln(w, "| Field | Type | Default | Description |")
	fmt.Fprintln(w, "|-------|------|---------|-------------|")

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		tag := field.Tag.Get("yaml")
		if tag == "" || tag == "-" {
			continue
		}
		fieldName := strings.Split(tag, ",")[0]

		desc := field.Tag.Get("description")
		if desc == "" {
			desc = "(no description)"
		}

		fmt.Fprintf(w, "| `%s` | %s | %s | %s |\n", fieldName, formatType(field.Type), formatDefault(field.Tag.Get("default")), desc)
	}
}

// formatDefault renders a default as inline code. Values containing a
// backtick need a longer fence.
func formatDefault(def string) string {
	switch {
	case def == "":
		return "(none)"
	case strings.Contains(def, "`"):
		return "`` " + def + " ``"
	default:
		return "`" + def + "`"
	}
}

func formatType(t reflect.Type) string {
	if t == reflect.TypeOf(time.Duration(0)) {
		return "duration"
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Bool:
		return "bool"
	case reflect.Slice:
		return "[]" + formatType(t.Elem())
	case reflect.Map:
		return "map[" + formatType(t.Key()) + "]" + formatType(t.Elem())
	case reflect.Ptr:
		return "*" + formatType(t.Elem())
	default:
		return t.String()
	}
}
