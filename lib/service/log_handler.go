// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"log/slog"
	"strings"
)

// eventLogHandler is a slog.Handler that turns every record at or
// above its level into exactly one Log event. Attributes are rendered
// into the message as "msg (key=value, key=value)" because the Log
// event carries only a level and a string.
//
// Handlers derived via WithAttrs/WithGroup share the emit function.
type eventLogHandler struct {
	level  slog.Leveler
	emit   func(Event)
	attrs  []slog.Attr
	groups []string
}

func newEventLogHandler(level slog.Leveler, emit func(Event)) *eventLogHandler {
	return &eventLogHandler{level: level, emit: emit}
}

// Enabled reports whether the handler is interested in records at the
// given level.
func (handler *eventLogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= handler.level.Level()
}

// Handle formats the record and emits it.
func (handler *eventLogHandler) Handle(_ context.Context, record slog.Record) error {
	var attrParts []string

	// Handler-level attrs first (from WithAttrs), then record attrs.
	for _, attr := range handler.attrs {
		attrParts = appendAttr(attrParts, "", attr)
	}
	prefix := ""
	if len(handler.groups) > 0 {
		prefix = strings.Join(handler.groups, ".") + "."
	}
	record.Attrs(func(attr slog.Attr) bool {
		attrParts = appendAttr(attrParts, prefix, attr)
		return true
	})

	message := record.Message
	if len(attrParts) > 0 {
		message += " (" + strings.Join(attrParts, ", ") + ")"
	}

	handler.emit(Log{Level: record.Level, Message: message})
	return nil
}

// appendAttr renders attr as key=value, flattening groups into dotted
// keys. Empty attrs are dropped as slog handlers are required to.
func appendAttr(parts []string, prefix string, attr slog.Attr) []string {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return parts
	}
	if attr.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if attr.Key != "" {
			groupPrefix += attr.Key + "."
		}
		for _, member := range attr.Value.Group() {
			parts = appendAttr(parts, groupPrefix, member)
		}
		return parts
	}
	return append(parts, prefix+attr.Key+"="+attr.Value.String())
}

// WithAttrs returns a handler with attrs appended. Attrs added inside
// a group get the group prefix baked into their key.
func (handler *eventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return handler
	}
	prefixed := sliceClone(handler.attrs)
	for _, attr := range attrs {
		if len(handler.groups) > 0 {
			attr = slog.Attr{Key: strings.Join(handler.groups, ".") + "." + attr.Key, Value: attr.Value}
		}
		prefixed = append(prefixed, attr)
	}
	return &eventLogHandler{
		level:  handler.level,
		emit:   handler.emit,
		attrs:  prefixed,
		groups: sliceClone(handler.groups),
	}
}

// WithGroup returns a handler that prefixes subsequent record attrs
// with name.
func (handler *eventLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return handler
	}
	return &eventLogHandler{
		level:  handler.level,
		emit:   handler.emit,
		attrs:  sliceClone(handler.attrs),
		groups: append(sliceClone(handler.groups), name),
	}
}

// sliceClone returns a shallow copy of a slice. Avoids aliasing when
// building derived handlers with WithAttrs/WithGroup.
func sliceClone[T any](source []T) []T {
	if source == nil {
		return nil
	}
	result := make([]T, len(source))
	copy(result, source)
	return result
}
