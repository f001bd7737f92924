// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/open-policy-agent/rdfexpr/presentation"
	"github.com/open-policy-agent/rdfexpr/topdown"
	"github.com/open-policy-agent/rdfexpr/util"
)

func init() {
	outputFormat := util.NewEnumFlag(presentation.Table, presentation.Formats)

	functionsCommand := &cobra.Command{
		Use:   "functions",
		Short: "List the supported operators and functions",
		Long: `List the operators, functional forms and constructor functions the
evaluator supports, with the number of arguments each accepts.`,
		RunE: func(*cobra.Command, []string) error {
			return printFunctions(os.Stdout, outputFormat.String())
		},
	}
	functionsCommand.Flags().VarP(outputFormat, "format", "f", "set output format")
	RootCommand.AddCommand(functionsCommand)
}

func printFunctions(w io.Writer, format string) error {
	infos := topdown.Functions()
	switch format {
	case presentation.JSON:
		return presentation.PrintJSON(w, infos)
	case presentation.YAML:
		return presentation.PrintYAML(w, infos)
	}
	presentation.PrintFunctions(w, infos)
	return nil
}
