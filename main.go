// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/open-policy-agent/rdfexpr/cmd"
	"github.com/open-policy-agent/rdfexpr/logging"
)

func main() {
	// GOMAXPROCS bounds the fan-out of the async evaluator.
	logger := logging.New()
	if _, err := maxprocs.Set(maxprocs.Logger(logger.Debug)); err != nil {
		logger.Warn("Failed to set GOMAXPROCS: %v", err)
	}
	if err := cmd.RootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
