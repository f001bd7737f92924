// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package test provides a logger that records entries for assertions in
// tests. Entries are recorded at every level regardless of the configured
// level.
package test

import (
	"fmt"
	"maps"
	"sync"

	"github.com/open-policy-agent/rdfexpr/logging"
)

// LogEntry represents a log message.
type LogEntry struct {
	Level   logging.Level
	Fields  map[string]any
	Message string
}

// recorder is shared by a logger and the loggers derived from it with
// WithFields.
type recorder struct {
	mtx     sync.Mutex
	level   logging.Level
	entries []LogEntry
}

// Logger records log entries.
type Logger struct {
	rec    *recorder
	fields map[string]any
}

// New returns a Logger at info level.
func New() *Logger {
	return &Logger{rec: &recorder{level: logging.Info}}
}

// WithFields returns a logger that records into the same buffer and adds
// fields to every entry.
func (l *Logger) WithFields(fields map[string]any) logging.Logger {
	merged := maps.Clone(l.fields)
	if merged == nil {
		merged = make(map[string]any, len(fields))
	}
	maps.Copy(merged, fields)
	return &Logger{rec: l.rec, fields: merged}
}

func (l *Logger) Debug(f string, a ...any) { l.record(logging.Debug, f, a) }
func (l *Logger) Info(f string, a ...any)  { l.record(logging.Info, f, a) }
func (l *Logger) Warn(f string, a ...any)  { l.record(logging.Warn, f, a) }
func (l *Logger) Error(f string, a ...any) { l.record(logging.Error, f, a) }

func (l *Logger) SetLevel(level logging.Level) {
	l.rec.mtx.Lock()
	l.rec.level = level
	l.rec.mtx.Unlock()
}

func (l *Logger) GetLevel() logging.Level {
	l.rec.mtx.Lock()
	defer l.rec.mtx.Unlock()
	return l.rec.level
}

// Entries returns a copy of the recorded entries in order.
func (l *Logger) Entries() []LogEntry {
	l.rec.mtx.Lock()
	defer l.rec.mtx.Unlock()
	return append([]LogEntry(nil), l.rec.entries...)
}

// EntriesAt returns the recorded entries of the given level.
func (l *Logger) EntriesAt(level logging.Level) []LogEntry {
	var out []LogEntry
	for _, e := range l.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Messages returns the messages of the recorded entries.
func (l *Logger) Messages() []string {
	entries := l.Entries()
	out := make([]string, len(entries))
	for i := range entries {
		out[i] = entries[i].Message
	}
	return out
}

func (l *Logger) record(level logging.Level, f string, a []any) {
	msg := f
	if len(a) > 0 {
		msg = fmt.Sprintf(f, a...)
	}
	l.rec.mtx.Lock()
	defer l.rec.mtx.Unlock()
	l.rec.entries = append(l.rec.entries, LogEntry{Level: level, Fields: l.fields, Message: msg})
}
