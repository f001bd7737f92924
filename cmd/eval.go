// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/open-policy-agent/rdfexpr/algebra"
	"github.com/open-policy-agent/rdfexpr/ast"
	"github.com/open-policy-agent/rdfexpr/cmd/internal/env"
	"github.com/open-policy-agent/rdfexpr/config"
	"github.com/open-policy-agent/rdfexpr/metrics"
	"github.com/open-policy-agent/rdfexpr/presentation"
	"github.com/open-policy-agent/rdfexpr/rdf"
	"github.com/open-policy-agent/rdfexpr/topdown"
	"github.com/open-policy-agent/rdfexpr/util"
)

const tracerName = "github.com/open-policy-agent/rdfexpr"

type evalCommandParams struct {
	expression   string
	bindingsFile string
	bindings     []string
	mode         *util.EnumFlag
	outputFormat *util.EnumFlag
	now          string
	timezone     string
	baseIRI      string
	configFile   string
	metrics      bool
	prettyLimit  int
	fail         bool
}

func newEvalCommandParams() evalCommandParams {
	return evalCommandParams{
		mode:         util.NewEnumFlag(config.ModeSync, config.Modes),
		outputFormat: util.NewEnumFlag(presentation.Table, presentation.Formats),
	}
}

// evalIO holds the streams of an eval invocation.
type evalIO struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// errRowsFailed is returned when --fail is set and a row did not evaluate.
var errRowsFailed = errors.New("one or more rows failed to evaluate")

func init() {
	params := newEvalCommandParams()

	evalCommand := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate a SPARQL expression",
		Long: `Evaluate a SPARQL algebra expression against variable bindings.

The expression is read from a JSON or YAML file (or stdin when the path is
"-"). Terms may be written in N-Triples syntax:

	{"expressionType": "operator", "operator": "+", "args": ["?x", "1"]}

Bindings are read from a JSON or YAML file holding a list of objects that map
variable names to terms. Single bindings can be given with --binding using
N-Triples syntax:

	$ rdfexpr eval --expression expr.json --binding 'x=42' --binding 'y="a"@en'

Bindings given with --binding are added to every row of the bindings file.
Every flag can also be set with an environment variable, for example
RDFEXPR_EVAL_MODE=async.

Output Formats
--------------

Set the output format with the --format flag.

	--format=table : one line per row with its bindings, result and error
	--format=json  : rows and metrics as JSON
	--format=yaml  : rows and metrics as YAML
`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return errors.New("unexpected arguments, use --expression")
			}
			if err := env.CmdFlags.CheckEnvironmentVariables(cmd); err != nil {
				return err
			}
			if params.expression == "" {
				return fmt.Errorf("specify --expression or set %v", env.Name(cmd, "expression"))
			}
			if params.expression == "-" && params.bindingsFile == "-" {
				return errors.New("the expression and the bindings cannot both be read from stdin")
			}
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			err := eval(context.Background(), params, evalIO{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr})
			if errors.Is(err, errRowsFailed) {
				os.Exit(1)
			}
			return err
		},
	}

	evalCommand.Flags().StringVarP(&params.expression, "expression", "e", "", `set expression file path ("-" reads stdin)`)
	evalCommand.Flags().StringVarP(&params.bindingsFile, "bindings", "b", "", "set bindings file path")
	evalCommand.Flags().StringArrayVar(&params.bindings, "binding", nil, "set a binding as name=TERM (repeatable)")
	evalCommand.Flags().VarP(params.mode, "mode", "m", "set evaluation mode")
	evalCommand.Flags().VarP(params.outputFormat, "format", "f", "set output format")
	evalCommand.Flags().StringVar(&params.now, "now", "", "set the value of NOW() (RFC3339)")
	evalCommand.Flags().StringVar(&params.timezone, "timezone", "", "set the implicit timezone (Z, +hh:mm or an IANA name)")
	evalCommand.Flags().StringVar(&params.baseIRI, "base", "", "set the base IRI of IRI()")
	evalCommand.Flags().StringVarP(&params.configFile, "config-file", "c", "", "set path of configuration file")
	evalCommand.Flags().BoolVar(&params.metrics, "metrics", false, "report evaluation metrics")
	evalCommand.Flags().IntVar(&params.prettyLimit, "pretty-limit", 80, "set limit after which table output gets truncated")
	evalCommand.Flags().BoolVar(&params.fail, "fail", false, "exits with non-zero exit code when a row fails to evaluate")
	RootCommand.AddCommand(evalCommand)
}

func eval(ctx context.Context, params evalCommandParams, stdio evalIO) error {
	c, err := loadConfig(params.configFile)
	if err != nil {
		return err
	}

	logger, err := c.NewLogger()
	if err != nil {
		return err
	}
	logger.SetOutput(stdio.stderr)

	m := metrics.New()
	cfg := c.EvalConfig(logger, m)
	cfg.Tracer = otel.Tracer(tracerName)

	mode := c.Mode
	if params.mode.IsSet() {
		mode = params.mode.String()
	}
	if params.baseIRI != "" {
		cfg.BaseIRI = params.baseIRI
	}
	if params.timezone != "" {
		loc, err := config.ParseTimezone(params.timezone)
		if err != nil {
			return err
		}
		cfg.DefaultTimeZone = loc
	}
	if params.now != "" {
		now, err := time.Parse(time.RFC3339Nano, params.now)
		if err != nil {
			return fmt.Errorf("invalid --now value: %w", err)
		}
		cfg.Now = now
	}

	bs, err := readFile(params.expression, stdio.stdin)
	if err != nil {
		return err
	}
	expr, err := algebra.ParseExpression(bs)
	if err != nil {
		return fmt.Errorf("%v: %w", params.expression, err)
	}

	rows, err := loadBindings(params, stdio.stdin)
	if err != nil {
		return err
	}

	logger.WithFields(map[string]any{
		"mode": mode,
		"rows": len(rows),
	}).Info("Evaluating expression.")

	evaluate, err := newEvaluateFunc(expr, cfg, mode)
	if err != nil {
		return err
	}

	result := presentation.EvalResult{
		Expression: expr.String(),
		Rows:       make([]presentation.Row, 0, len(rows)),
	}
	failed := false
	for _, row := range rows {
		out := presentation.Row{Binding: renderBinding(row)}
		term, err := evaluate(ctx, ast.NewBinding(row))
		if err != nil {
			failed = true
			out.Error = presentation.NewRowError(err)
		} else {
			out.Result = term.String()
		}
		result.Rows = append(result.Rows, out)
	}

	if params.metrics {
		m.Counter(metrics.OverloadCacheHits).Add(cfg.OverloadCache.Hits())
		m.Counter(metrics.OverloadCacheMisses).Add(cfg.OverloadCache.Misses())
		result.Metrics = m.All()
	}

	if err := presentation.Print(stdio.stdout, params.outputFormat.String(), result, params.prettyLimit); err != nil {
		return err
	}
	if failed && params.fail {
		return errRowsFailed
	}
	return nil
}

type evaluateFunc func(context.Context, ast.Binding) (rdf.Term, error)

func newEvaluateFunc(expr algebra.Expression, cfg topdown.Config, mode string) (evaluateFunc, error) {
	if mode == config.ModeAsync {
		e, err := topdown.NewAsyncEvaluator(expr, cfg)
		if err != nil {
			return nil, err
		}
		return e.Evaluate, nil
	}
	e, err := topdown.NewSyncEvaluator(expr, cfg)
	if err != nil {
		return nil, err
	}
	return func(_ context.Context, b ast.Binding) (rdf.Term, error) {
		return e.Evaluate(b)
	}, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.ParseConfig(nil)
	}
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return config.ParseConfig(bs)
}

func readFile(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// loadBindings returns the rows to evaluate. Without a bindings file there is
// a single row made of the --binding values.
func loadBindings(params evalCommandParams, stdin io.Reader) ([]rdf.Bindings, error) {
	extra := make(rdf.Bindings, len(params.bindings))
	for _, s := range params.bindings {
		name, value, ok := strings.Cut(s, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid binding %q (expected name=TERM)", s)
		}
		t, err := rdf.ParseTerm(value)
		if err != nil {
			return nil, fmt.Errorf("binding %v: %w", name, err)
		}
		extra[rdf.NewVariable(name).Name] = t
	}

	if params.bindingsFile == "" {
		return []rdf.Bindings{extra}, nil
	}

	bs, err := readFile(params.bindingsFile, stdin)
	if err != nil {
		return nil, err
	}
	var rows []rdf.Bindings
	if err := util.Unmarshal(bs, &rows); err != nil {
		return nil, fmt.Errorf("%v: %w", params.bindingsFile, err)
	}
	for i := range rows {
		if rows[i] == nil {
			rows[i] = rdf.Bindings{}
		}
		for k, v := range extra {
			rows[i][k] = v
		}
	}
	return rows, nil
}

func renderBinding(b rdf.Bindings) map[string]string {
	if len(b) == 0 {
		return nil
	}
	out := make(map[string]string, len(b))
	for k, v := range b {
		out[k] = v.String()
	}
	return out
}
