// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package topdown

import (
	"crypto/rand"
	"strconv"
	"strings"
	"sync"

	"github.com/open-policy-agent/rdfexpr/internal/uuid"
)

// BlankNodeGenerator produces the identifiers returned by BNODE().
// Implementations must be safe for concurrent use.
type BlankNodeGenerator interface {
	// Next returns an identifier that has not been returned before.
	Next() string

	// Seeded returns the identifier for seed. Equal seeds yield equal
	// identifiers for the lifetime of the generator.
	Seeded(seed string) string
}

// BlankNodeCounter numbers blank nodes sequentially. Its lifetime defines
// the scope in which seeded identifiers are shared, typically one query.
type BlankNodeCounter struct {
	prefix string

	mtx    sync.Mutex
	n      uint64
	seeded map[string]string
}

// NewBlankNodeCounter returns a counter whose identifiers start with
// prefix. An empty prefix is replaced by a random one so that counters of
// different queries do not collide.
func NewBlankNodeCounter(prefix string) *BlankNodeCounter {
	if prefix == "" {
		prefix = "b"
		if id, err := uuid.New(rand.Reader); err == nil {
			prefix += strings.ReplaceAll(id, "-", "")[:8] + "_"
		}
	}
	return &BlankNodeCounter{prefix: prefix, seeded: map[string]string{}}
}

func (c *BlankNodeCounter) Next() string {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.next()
}

func (c *BlankNodeCounter) next() string {
	id := c.prefix + strconv.FormatUint(c.n, 10)
	c.n++
	return id
}

func (c *BlankNodeCounter) Seeded(seed string) string {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if id, ok := c.seeded[seed]; ok {
		return id
	}
	id := c.next()
	c.seeded[seed] = id
	return id
}
