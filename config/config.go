// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package config implements evaluator configuration file parsing and
// validation.
package config

import (
	"fmt"
	"time"

	"github.com/open-policy-agent/rdfexpr/ast"
	"github.com/open-policy-agent/rdfexpr/logging"
	"github.com/open-policy-agent/rdfexpr/metrics"
	"github.com/open-policy-agent/rdfexpr/topdown"
	"github.com/open-policy-agent/rdfexpr/topdown/overload"
	"github.com/open-policy-agent/rdfexpr/types"
	"github.com/open-policy-agent/rdfexpr/util"
)

// Evaluation modes.
const (
	ModeSync  = "sync"
	ModeAsync = "async"
)

// Modes lists the accepted values of the mode field.
var Modes = []string{ModeSync, ModeAsync}

// Config represents the configuration file an evaluator can be created with.
type Config struct {
	BaseIRI         string            `json:"base_iri,omitempty"`
	DefaultTimezone string            `json:"default_timezone,omitempty"`
	Mode            string            `json:"mode,omitempty"`
	Caches          Caches            `json:"caches"`
	Datatypes       map[string]string `json:"datatypes,omitempty"`
	Logging         Logging           `json:"logging"`

	location *time.Location
}

// Caches holds the sizes of the LRU caches. Zero selects the default size.
type Caches struct {
	FunctionArguments int `json:"function_arguments,omitempty"`
	SuperTypes        int `json:"super_types,omitempty"`
	Regex             int `json:"regex,omitempty"`
}

// Logging configures the standard logger.
type Logging struct {
	Level  string `json:"level,omitempty"`
	Format string `json:"format,omitempty"`
}

// ParseConfig returns a valid Config object with defaults injected. raw may
// be YAML or JSON.
func ParseConfig(raw []byte) (*Config, error) {
	var result Config
	if len(raw) > 0 {
		if err := util.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	return &result, result.validateAndInjectDefaults()
}

func (c *Config) validateAndInjectDefaults() error {
	if c.Mode == "" {
		c.Mode = ModeSync
	}
	if c.Mode != ModeSync && c.Mode != ModeAsync {
		return fmt.Errorf("config: invalid mode %q (expected %v or %v)", c.Mode, ModeSync, ModeAsync)
	}

	for name, size := range map[string]int{
		"function_arguments": c.Caches.FunctionArguments,
		"super_types":        c.Caches.SuperTypes,
		"regex":              c.Caches.Regex,
	} {
		if size < 0 {
			return fmt.Errorf("config: caches.%v must not be negative", name)
		}
	}
	if c.Caches.FunctionArguments == 0 {
		c.Caches.FunctionArguments = overload.DefaultCacheSize
	}
	if c.Caches.SuperTypes == 0 {
		c.Caches.SuperTypes = types.DefaultCacheSize
	}
	if c.Caches.Regex == 0 {
		c.Caches.Regex = topdown.DefaultRegexCacheSize
	}

	if c.DefaultTimezone != "" {
		loc, err := ParseTimezone(c.DefaultTimezone)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		c.location = loc
	}

	for dt, parent := range c.Datatypes {
		if dt == "" || parent == "" {
			return fmt.Errorf("config: datatypes entries need a datatype and a parent")
		}
		if dt == parent {
			return fmt.Errorf("config: datatype %v cannot be its own parent", dt)
		}
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Logging.Format {
	case "":
		c.Logging.Format = "text"
	case "text", "json":
	default:
		return fmt.Errorf("config: invalid log format %q", c.Logging.Format)
	}
	return nil
}

// ParseTimezone accepts "Z", a "+hh:mm" offset or an IANA zone name.
func ParseTimezone(s string) (*time.Location, error) {
	if offset, ok := ast.ParseZone(s); ok {
		return ast.FixedZone(offset), nil
	}
	loc, err := time.LoadLocation(s)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", s, err)
	}
	return loc, nil
}

// Location returns the default timezone, or nil when none is configured.
func (c *Config) Location() *time.Location {
	return c.location
}

// Discoverer returns the type discovery callback for the configured
// datatypes, or nil when there are none.
func (c *Config) Discoverer() types.Discoverer {
	if len(c.Datatypes) == 0 {
		return nil
	}
	return types.MapDiscoverer(c.Datatypes)
}

// NewLogger returns a standard logger with the configured level and format.
func (c *Config) NewLogger() (*logging.StandardLogger, error) {
	logger := logging.New()
	level, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)
	if err := logger.SetFormat(c.Logging.Format); err != nil {
		return nil, err
	}
	return logger, nil
}

// EvalConfig returns the evaluator configuration described by c. The
// evaluators created from it share one type provider and one overload
// cache.
func (c *Config) EvalConfig(logger logging.Logger, m metrics.Metrics) topdown.Config {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return topdown.Config{
		BaseIRI:         c.BaseIRI,
		DefaultTimeZone: c.location,
		Types: types.NewProvider(c.Discoverer(), types.ProviderOpts{
			Size:   c.Caches.SuperTypes,
			Logger: logger,
		}),
		OverloadCache:  overload.NewCache[*topdown.BuiltinContext](c.Caches.FunctionArguments),
		RegexCacheSize: c.Caches.Regex,
		Logger:         logger,
		Metrics:        m,
	}
}
