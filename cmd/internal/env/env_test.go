// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package env

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

type evalArgs struct {
	mode     string
	limit    int
	metrics  bool
	bindings []string
}

func (a evalArgs) String() string {
	return fmt.Sprintf("%v; %v; %v; %v", a.mode, a.limit, a.metrics, strings.Join(a.bindings, "|"))
}

func mockCommands(writer io.Writer) (*cobra.Command, *cobra.Command) {
	var args evalArgs
	root := &cobra.Command{
		Use: "rdfexpr",
		Run: func(*cobra.Command, []string) {},
	}
	eval := &cobra.Command{
		Use: "eval",
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return CmdFlags.CheckEnvironmentVariables(cmd)
		},
		Run: func(*cobra.Command, []string) {
			fmt.Fprint(writer, args.String())
		},
	}
	eval.Flags().StringVarP(&args.mode, "mode", "m", "sync", "set mode")
	eval.Flags().IntVar(&args.limit, "pretty-limit", 80, "set limit")
	eval.Flags().BoolVar(&args.metrics, "metrics", false, "report metrics")
	eval.Flags().StringArrayVar(&args.bindings, "binding", nil, "set binding")
	root.AddCommand(eval)
	return root, eval
}

func TestCheckEnvironmentVariables(t *testing.T) {
	tests := []struct {
		note    string
		env     map[string]string
		args    []string
		want    string
		wantErr string
	}{
		{
			note: "defaults",
			want: "sync; 80; false; ",
		},
		{
			note: "single variable",
			env:  map[string]string{"RDFEXPR_EVAL_MODE": "async"},
			want: "async; 80; false; ",
		},
		{
			note: "dashes become underscores",
			env: map[string]string{
				"RDFEXPR_EVAL_PRETTY_LIMIT": "10",
				"RDFEXPR_EVAL_METRICS":      "true",
			},
			want: "sync; 10; true; ",
		},
		{
			note: "slice flag",
			env:  map[string]string{"RDFEXPR_EVAL_BINDING": "x=1,y=2"},
			want: "sync; 80; false; x=1|y=2",
		},
		{
			note: "command line wins",
			env:  map[string]string{"RDFEXPR_EVAL_MODE": "async", "RDFEXPR_EVAL_METRICS": "true"},
			args: []string{"--mode", "sync"},
			want: "sync; 80; true; ",
		},
		{
			note: "root prefix ignored by subcommand",
			env:  map[string]string{"RDFEXPR_MODE": "async"},
			want: "sync; 80; false; ",
		},
		{
			note:    "invalid value",
			env:     map[string]string{"RDFEXPR_EVAL_METRICS": "7"},
			wantErr: `invalid argument "7"`,
		},
		{
			note: "multiple invalid values",
			env: map[string]string{
				"RDFEXPR_EVAL_METRICS":      "7",
				"RDFEXPR_EVAL_PRETTY_LIMIT": "true",
			},
			wantErr: errorMessagePrefix,
		},
	}

	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			var buf bytes.Buffer
			root, _ := mockCommands(&buf)
			root.SetArgs(append([]string{"eval"}, tc.args...))
			root.SetOut(io.Discard)
			root.SetErr(io.Discard)

			err := root.Execute()
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if buf.String() != tc.want {
				t.Fatalf("expected %q but got %q", tc.want, buf.String())
			}
		})
	}
}

func TestName(t *testing.T) {
	root, eval := mockCommands(io.Discard)
	if got := Name(root, "config-file"); got != "RDFEXPR_CONFIG_FILE" {
		t.Fatalf("unexpected root variable %v", got)
	}
	if got := Name(eval, "pretty-limit"); got != "RDFEXPR_EVAL_PRETTY_LIMIT" {
		t.Fatalf("unexpected eval variable %v", got)
	}
}
