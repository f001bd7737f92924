// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/open-policy-agent/rdfexpr/presentation"
	"github.com/open-policy-agent/rdfexpr/util"
	"github.com/open-policy-agent/rdfexpr/version"
)

func init() {
	format := util.NewEnumFlag(presentation.Table, presentation.Formats)

	versionCommand := &cobra.Command{
		Use:   "version",
		Short: "Print the version of rdfexpr",
		Long:  "Show version and build information for rdfexpr.",
		RunE: func(*cobra.Command, []string) error {
			return printVersion(os.Stdout, format.String(), version.Get())
		},
	}
	versionCommand.Flags().VarP(format, "format", "f", "set output format")
	RootCommand.AddCommand(versionCommand)
}

func printVersion(w io.Writer, format string, info version.Info) error {
	switch format {
	case presentation.JSON:
		return presentation.PrintJSON(w, info)
	case presentation.YAML:
		return presentation.PrintYAML(w, info)
	}
	for _, line := range [][2]string{
		{"Version", info.Version},
		{"Build Commit", info.Commit},
		{"Build Timestamp", info.Timestamp},
		{"Build Hostname", info.Hostname},
		{"Go Version", info.GoVersion},
		{"Platform", info.Platform},
	} {
		fmt.Fprintf(w, "%v: %v\n", line[0], line[1])
	}
	return nil
}
