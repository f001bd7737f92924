// Copyright 2017 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package uuid generates the random identifiers behind UUID(), STRUUID()
// and unseeded blank nodes.
package uuid

import (
	"io"

	"github.com/google/uuid"
)

// URNPrefix is the scheme prefix of UUID IRIs.
const URNPrefix = "urn:uuid:"

// New creates a version 4 random UUID from the bytes of r.
func New(r io.Reader) (string, error) {
	id, err := uuid.NewRandomFromReader(r)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewURN creates a version 4 random UUID from r and returns it as an IRI.
func NewURN(r io.Reader) (string, error) {
	id, err := New(r)
	if err != nil {
		return "", err
	}
	return URNPrefix + id, nil
}
