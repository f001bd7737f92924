// Copyright 2018 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package presentation prints results of expression evaluation in json,
// yaml and tabular formats.
package presentation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"sigs.k8s.io/yaml"

	"github.com/open-policy-agent/rdfexpr/topdown"
)

// Output formats.
const (
	Table = "table"
	JSON  = "json"
	YAML  = "yaml"
)

// Formats lists the output formats.
var Formats = []string{Table, JSON, YAML}

// Row is the outcome of evaluating the expression for one binding. Terms are
// rendered in N-Triples syntax.
type Row struct {
	Binding map[string]string `json:"binding,omitempty" yaml:"binding,omitempty"`
	Result  string            `json:"result,omitempty" yaml:"result,omitempty"`
	Error   *RowError         `json:"error,omitempty" yaml:"error,omitempty"`
}

// RowError is the serializable form of an evaluation error.
type RowError struct {
	Code    string `json:"code,omitempty" yaml:"code,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// NewRowError converts err. Evaluation errors keep their code.
func NewRowError(err error) *RowError {
	var e *topdown.Error
	if errors.As(err, &e) {
		return &RowError{Code: e.Code, Message: e.Message}
	}
	return &RowError{Message: err.Error()}
}

// EvalResult holds the rows and metrics of an evaluation.
type EvalResult struct {
	Expression string         `json:"expression" yaml:"expression"`
	Rows       []Row          `json:"rows" yaml:"rows"`
	Metrics    map[string]any `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// Print writes result in the given format.
func Print(writer io.Writer, format string, result EvalResult, prettyLimit int) error {
	switch format {
	case JSON:
		return PrintJSON(writer, result)
	case YAML:
		return PrintYAML(writer, result)
	case Table, "":
		PrintPretty(writer, result, prettyLimit)
		return nil
	}
	return fmt.Errorf("unknown output format %q", format)
}

// PrintJSON prints indented json output.
func PrintJSON(writer io.Writer, x any) error {
	buf, err := json.MarshalIndent(x, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(writer, string(buf))
	return nil
}

// PrintYAML prints yaml output. Field names follow the json tags.
func PrintYAML(writer io.Writer, x any) error {
	buf, err := yaml.Marshal(x)
	if err != nil {
		return err
	}
	_, err = writer.Write(buf)
	return err
}

// PrintPretty prints rows and metrics in a tabular format.
func PrintPretty(writer io.Writer, result EvalResult, prettyLimit int) {
	PrintPrettyRows(writer, result, prettyLimit)
	PrintPrettyMetrics(writer, result, prettyLimit)
}

// PrintPrettyRows prints one line per binding with its result or error.
func PrintPrettyRows(writer io.Writer, result EvalResult, prettyLimit int) {
	vars := resultVars(result.Rows)
	table := generateTableRows(writer, vars)
	for _, row := range result.Rows {
		line := make([]string, 0, len(vars)+2)
		for _, v := range vars {
			line = append(line, checkStrLimit(row.Binding[v], prettyLimit))
		}
		line = append(line, checkStrLimit(row.Result, prettyLimit))
		if row.Error != nil {
			line = append(line, checkStrLimit(row.Error.Code+": "+row.Error.Message, prettyLimit))
		} else {
			line = append(line, "")
		}
		table.Append(line)
	}
	if table.NumLines() > 0 {
		table.Render()
	}
}

// PrintPrettyMetrics prints metrics in a tabular format
func PrintPrettyMetrics(writer io.Writer, result EvalResult, prettyLimit int) {
	tableMetrics := generateTableMetrics(writer)
	populateTableMetrics(result.Metrics, tableMetrics, prettyLimit)
	if tableMetrics.NumLines() > 0 {
		fmt.Fprintln(writer)
		tableMetrics.Render()
	}
}

// PrintFunctions prints the registered functions in a tabular format.
func PrintFunctions(writer io.Writer, infos []topdown.FunctionInfo) {
	table := tablewriter.NewWriter(writer)
	table.SetHeader([]string{"Name", "Kind", "Arity"})
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})
	for _, info := range infos {
		table.Append([]string{info.Name, info.Kind, arityString(info)})
	}
	table.Render()
}

func arityString(info topdown.FunctionInfo) string {
	if info.Variadic {
		return strconv.Itoa(info.MinArity) + "+"
	}
	parts := make([]string, len(info.Arities))
	for i, n := range info.Arities {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}

func checkStrLimit(input string, limit int) string {
	if limit > 0 && len(input) > limit {
		input = input[:limit] + "..."
		return input
	}
	return input
}

func resultVars(rows []Row) []string {
	seen := map[string]struct{}{}
	for _, row := range rows {
		for v := range row.Binding {
			seen[v] = struct{}{}
		}
	}
	vars := make([]string, 0, len(seen))
	for v := range seen {
		vars = append(vars, v)
	}
	slices.Sort(vars)
	return vars
}

func generateTableRows(writer io.Writer, vars []string) *tablewriter.Table {
	table := tablewriter.NewWriter(writer)
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	header := make([]string, 0, len(vars)+2)
	for _, v := range vars {
		header = append(header, "?"+v)
	}
	header = append(header, "Result", "Error")
	table.SetHeader(header)
	alignment := make([]int, len(header))
	for i := range alignment {
		alignment[i] = tablewriter.ALIGN_LEFT
	}
	table.SetColumnAlignment(alignment)
	return table
}

func generateTableMetrics(writer io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(writer)
	table.SetHeader([]string{"Name", "Value"})
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})
	return table
}

func populateTableMetrics(data map[string]any, table *tablewriter.Table, prettyLimit int) {
	lines := [][]string{}
	for varName, varValueInterface := range data {
		val, ok := varValueInterface.(map[string]any)
		if !ok {
			varValue := checkStrLimit(fmt.Sprintf("%v", varValueInterface), prettyLimit)
			lines = append(lines, []string{varName, varValue})
			continue
		}
		for k, v := range val {
			newVarName := fmt.Sprintf("%v_%v", varName, k)
			value := checkStrLimit(fmt.Sprintf("%v", v), prettyLimit)
			lines = append(lines, []string{newVarName, value})
		}
	}
	sortMetricRows(lines)
	table.AppendBulk(lines)
}

func sortMetricRows(data [][]string) {
	sort.Slice(data, func(i, j int) bool {
		return data[i][0] < data[j][0]
	})
}
