// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package overload

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of argument type tuples remembered when no
// size is configured.
const DefaultCacheSize = 1000

// Cache memoizes search results across trees. Keys combine the operator
// identifier with the datatype or term kind of each argument. A Cache is safe
// for concurrent use; concurrent misses on the same key may both search the
// tree and store the same result.
type Cache[C any] struct {
	entries *lru.Cache[string, entry[C]]
	hits    atomic.Uint64
	misses  atomic.Uint64
}

type entry[C any] struct {
	impl Func[C]
}

// NewCache returns a cache holding up to size results. A non-positive size
// selects DefaultCacheSize.
func NewCache[C any](size int) *Cache[C] {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, _ := lru.New[string, entry[C]](size)
	return &Cache[C]{entries: entries}
}

func (c *Cache[C]) get(key string) (Func[C], bool) {
	e, ok := c.entries.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return e.impl, true
}

func (c *Cache[C]) put(key string, impl Func[C]) {
	c.entries.Add(key, entry[C]{impl: impl})
}

// Len returns the number of cached results.
func (c *Cache[C]) Len() int {
	return c.entries.Len()
}

// Hits returns the number of lookups answered from the cache.
func (c *Cache[C]) Hits() uint64 {
	return c.hits.Load()
}

// Misses returns the number of lookups that searched a tree.
func (c *Cache[C]) Misses() uint64 {
	return c.misses.Load()
}

// Purge drops every cached result.
func (c *Cache[C]) Purge() {
	c.entries.Purge()
}
