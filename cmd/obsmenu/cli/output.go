// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"reflect"

	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// Output selects between human-readable tables and JSON. JSON is used
// when --json is given or when stdout is not a terminal.
type Output struct {
	JSON bool
	// Writer defaults to stdout.
	Writer io.Writer
}

// AddFlags registers --json on flagSet.
func (o *Output) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.BoolVar(&o.JSON, "json", false, "output as JSON (default when stdout is not a terminal)")
}

func (o *Output) writer() io.Writer {
	if o.Writer != nil {
		return o.Writer
	}
	return os.Stdout
}

// WantJSON reports whether results should be written as JSON.
func (o *Output) WantJSON() bool {
	if o.JSON {
		return true
	}
	if o.Writer != nil {
		return false
	}
	return !term.IsTerminal(int(os.Stdout.Fd()))
}

// Emit writes value as JSON when JSON output is selected and reports
// whether it did. Nil slices are written as [].
func (o *Output) Emit(value any) (bool, error) {
	if !o.WantJSON() {
		return false, nil
	}
	encoder := json.NewEncoder(o.writer())
	encoder.SetIndent("", "  ")
	return true, encoder.Encode(normalizeNilSlice(value))
}

// Text returns the writer for human-readable output.
func (o *Output) Text() io.Writer {
	return o.writer()
}

func normalizeNilSlice(value any) any {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Slice && v.IsNil() {
		return reflect.MakeSlice(v.Type(), 0, 0).Interface()
	}
	return value
}

// NewCommandLogger creates a logger for CLI diagnostics: text on a
// terminal, JSON when stderr is piped.
func NewCommandLogger(level slog.Level) *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}
