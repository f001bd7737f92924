// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package test contains helpers shared by the package tests.
package test

import (
	"os"
	"path/filepath"
	"testing"
)

// WithTempFS writes files, keyed by slash separated paths, below a temporary
// directory and invokes f with the directory. The directory is removed when
// the test finishes.
func WithTempFS(t *testing.T, files map[string]string, f func(root string)) {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	f(root)
}

// FatalMismatch fails the test reporting the actual and expected values.
func FatalMismatch(t *testing.T, act, exp any) {
	t.Helper()
	t.Fatalf("expected:\n\n%v\n\nbut got:\n\n%v", exp, act)
}
