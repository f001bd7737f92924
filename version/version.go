// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package version contains version information that is set at build time.
package version

import (
	"runtime"
	"runtime/debug"
)

// Build information. Version, Vcs, Timestamp and Hostname can be set with
// -ldflags; Vcs and Timestamp otherwise fall back to the module build info.
var (
	Version   = "0.1.0-dev"
	Vcs       = ""
	Timestamp = ""
	Hostname  = ""
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit,omitempty" yaml:"commit,omitempty"`
	Timestamp string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Hostname  string `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// Get returns the build information of the running binary.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Vcs,
		Timestamp: Timestamp,
		Hostname:  Hostname,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func init() {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	settings := make(map[string]string, len(bi.Settings))
	for _, s := range bi.Settings {
		settings[s.Key] = s.Value
	}
	if Timestamp == "" {
		Timestamp = settings["vcs.time"]
	}
	if Vcs == "" && settings["vcs.revision"] != "" {
		Vcs = settings["vcs.revision"]
		if settings["vcs.modified"] == "true" {
			Vcs += "-dirty"
		}
	}
}
