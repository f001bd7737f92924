// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package types

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/open-policy-agent/rdfexpr/logging"
)

// DefaultCacheSize is the number of discovered datatypes a Provider
// remembers when no size is configured.
const DefaultCacheSize = 1000

// Discoverer returns the direct parent of a datatype the evaluator does not
// know, or Term when the datatype has no known parent.
type Discoverer func(datatype string) string

// GenericDiscoverer treats every unknown datatype as a root.
func GenericDiscoverer(string) string {
	return Term
}

// MapDiscoverer returns a Discoverer backed by a static parent table.
func MapDiscoverer(parents map[string]string) Discoverer {
	return func(datatype string) string {
		if p, ok := parents[datatype]; ok && p != "" {
			return p
		}
		return Term
	}
}

// ProviderOpts configures a Provider.
type ProviderOpts struct {
	Size   int
	Logger logging.Logger
}

// Provider resolves the ancestor Dict of any datatype. Built-in datatypes
// come from the static table; others are discovered through the callback
// once and remembered in a bounded cache. Concurrent misses for the same
// datatype share a single callback invocation. A Provider is safe for
// concurrent use.
type Provider struct {
	discover  Discoverer
	dicts     *lru.Cache[string, *Dict]
	parents   *lru.Cache[string, string]
	group     singleflight.Group
	logger    logging.Logger
	discovers atomic.Uint64
}

// NewProvider returns a Provider calling discover for unknown datatypes. A
// nil discover treats all unknown datatypes as roots.
func NewProvider(discover Discoverer, opts ProviderOpts) *Provider {
	if discover == nil {
		discover = GenericDiscoverer
	}
	size := opts.Size
	if size <= 0 {
		size = DefaultCacheSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	dicts, _ := lru.New[string, *Dict](size)
	parents, _ := lru.New[string, string](size)
	return &Provider{
		discover: discover,
		dicts:    dicts,
		parents:  parents,
		logger:   logger,
	}
}

// Ancestors returns the Dict of datatype.
func (p *Provider) Ancestors(datatype string) *Dict {
	if d, ok := builtins[datatype]; ok {
		return d
	}
	if d, ok := p.dicts.Get(datatype); ok {
		return d
	}

	chain := []string{datatype}
	seen := map[string]struct{}{datatype: {}}
	var base *Dict

	for cur := datatype; ; {
		parent := p.parentOf(cur)
		if parent == Term {
			break
		}
		if d, ok := builtins[parent]; ok {
			base = d
			break
		}
		if d, ok := p.dicts.Get(parent); ok {
			base = d
			break
		}
		if _, ok := seen[parent]; ok {
			p.logger.WithFields(map[string]any{
				"datatype": datatype,
				"parent":   parent,
			}).Debug("Datatype hierarchy cycle detected, treating %v as a root.", parent)
			break
		}
		seen[parent] = struct{}{}
		chain = append(chain, parent)
		cur = parent
	}

	for i := len(chain) - 1; i >= 0; i-- {
		if base == nil {
			base = rootDict(chain[i])
		} else {
			base = base.extend(chain[i], false)
		}
		p.dicts.Add(chain[i], base)
	}

	return base
}

func (p *Provider) parentOf(datatype string) string {
	if parent, ok := p.parents.Get(datatype); ok {
		return parent
	}
	v, _, _ := p.group.Do(datatype, func() (any, error) {
		if parent, ok := p.parents.Get(datatype); ok {
			return parent, nil
		}
		parent := p.discover(datatype)
		if parent == "" {
			parent = Term
		}
		p.discovers.Add(1)
		p.parents.Add(datatype, parent)
		p.logger.WithFields(map[string]any{
			"datatype": datatype,
			"parent":   parent,
		}).Debug("Discovered datatype.")
		return parent, nil
	})
	return v.(string)
}

// IsSubtypeOf reports whether ancestor is base or one of its ancestors.
// Term is never a subtype of anything.
func (p *Provider) IsSubtypeOf(base, ancestor string) bool {
	if base == Term {
		return false
	}
	return p.Ancestors(base).Contains(ancestor)
}

// Discoveries returns how many times the discovery callback ran.
func (p *Provider) Discoveries() uint64 {
	return p.discovers.Load()
}
