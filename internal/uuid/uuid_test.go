// Copyright 2017 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.
package uuid

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/google/uuid"
)

func TestUUID4(t *testing.T) {
	id, err := New(bytes.NewReader(make([]byte, 16)))
	if err != nil {
		t.Fatal(err)
	}

	expect := "00000000-0000-4000-8000-000000000000"
	if id != expect {
		t.Errorf("Expected %q, got %q", expect, id)
	}
}

func TestUUID4ShortRead(t *testing.T) {
	if _, err := New(bytes.NewReader(make([]byte, 4))); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewURN(t *testing.T) {
	urn, err := NewURN(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := uuid.Parse(urn)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if parsed.Version() != 4 {
		t.Errorf("Expected version 4, got %v", parsed.Version())
	}
	if urn[:len(URNPrefix)] != URNPrefix {
		t.Errorf("Expected prefix %q in %q", URNPrefix, urn)
	}
}
