package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/polyexpr/internal/catalog"
	"github.com/roach88/polyexpr/internal/compiler"
	"github.com/roach88/polyexpr/internal/ir"
	"github.com/roach88/polyexpr/internal/operators"
	"github.com/roach88/polyexpr/internal/reduce"
	"github.com/roach88/polyexpr/internal/scan"
	"github.com/roach88/polyexpr/internal/testutil"
	"github.com/roach88/polyexpr/internal/types"
	"github.com/roach88/polyexpr/internal/validate"
)

// Harness holds the per-scenario state: the operator table, a fresh
// catalog and the session ID sequence.
type Harness struct {
	scenario *Scenario
	table    *operators.Table
	parser   *scan.Parser
	catalog  *catalog.Catalog
	ids      *testutil.SequenceIDGenerator
	logger   *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh in-memory catalog. Execution flow:
//  1. build the operator table, layering the scenario's functions
//  2. define the scenario's columns
//  3. validate each step in its own session and record it in the history
//  4. check expectations and assertions
//
// An error is returned only when the scenario cannot be set up; step
// failures are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	table, err := buildTable(scenario.Settings.CaseSensitive, scenario.Settings.Functions)
	if err != nil {
		return nil, fmt.Errorf("failed to load functions: %w", err)
	}

	cat, err := catalog.Open(":memory:", catalog.WithCaseSensitiveNames(scenario.Settings.CaseSensitive))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory catalog: %w", err)
	}
	defer cat.Close()

	for i, c := range scenario.Columns {
		t, err := types.Parse(c.Type)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		if err := cat.DefineColumn(ctx, c.Table, c.Column, t); err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
	}

	ids := make([]string, len(scenario.Steps))
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%d", scenario.Name, i+1)
	}

	h := &Harness{
		scenario: scenario,
		table:    table,
		parser: scan.New(table,
			scan.WithReducer(reduce.New(reduce.WithMaxDepth(scenario.Settings.MaxDepth))),
			scan.WithDefaultCharset(scenario.Settings.DefaultCharset),
			scan.WithDefaultCollation(scenario.Settings.DefaultCollation)),
		catalog: cat,
		ids:     testutil.NewSequenceIDGenerator(ids...),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		event, err := h.runStep(ctx, i, step)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		result.AddTrace(event)
		for _, msg := range checkExpect(event, step.Expect) {
			result.AddError(fmt.Sprintf("step %d (%s): %s", i, step.Expr, msg))
		}
	}

	actx := &AssertionContext{Catalog: cat, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// buildTable returns the standard operators, extended with the functions
// declared in the CUE file at path if path is set.
func buildTable(caseSensitive bool, path string) (*operators.Table, error) {
	table := operators.NewBuilder(operators.WithCaseSensitiveNames(caseSensitive)).
		RegisterAll(operators.StandardOperators()...).
		Freeze()
	if path == "" {
		return table, nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	v := cuecontext.New().CompileBytes(src, cue.Filename(path))
	ops, err := compiler.CompileFunctions(v, table)
	if err != nil {
		return nil, err
	}
	return table.Extend().RegisterAll(ops...).Freeze(), nil
}

// runStep reduces and validates one expression and records the run in
// the catalog history.
func (h *Harness) runStep(ctx context.Context, index int, step Step) (TraceEvent, error) {
	opts := []validate.Option{
		validate.WithIDGenerator(h.ids),
		validate.WithIdentifierResolver(h.catalog.Resolver(ctx)),
		validate.WithMaxDepth(h.scenario.Settings.MaxDepth),
		validate.WithLogger(h.logger),
	}
	if step.GroupCount != nil {
		opts = append(opts, validate.WithGroupCount(*step.GroupCount))
	}
	s := validate.NewSession(h.table, opts...)

	event := TraceEvent{Step: index, Session: s.ID(), Expression: step.Expr}
	run := catalog.Validation{SessionID: s.ID(), Expression: step.Expr}

	tree, err := h.parser.Parse(step.Expr)
	if err == nil {
		event.SQL = ir.String(tree)
		var t types.Type
		if t, err = s.Validate(tree); err == nil {
			event.Type = t.String()
			event.Calls = traceCalls(s, tree)
		}
		// Encoded after validation, with placeholders rebound.
		data, merr := ir.MarshalNode(tree)
		if merr != nil {
			return TraceEvent{}, merr
		}
		fp, ferr := ir.Fingerprint(tree)
		if ferr != nil {
			return TraceEvent{}, ferr
		}
		event.Fingerprint = fp
		run.Tree = string(data)
		run.Fingerprint = fp
	}
	if err != nil {
		event.ErrorCode = string(ir.ErrorCodeOf(err))
		event.Message = err.Error()
	}

	run.ResultType = event.Type
	run.ErrorCode = event.ErrorCode
	run.Message = event.Message
	if _, err := h.catalog.RecordValidation(ctx, run); err != nil {
		return TraceEvent{}, err
	}
	return event, nil
}

func traceCalls(s *validate.Session, root ir.Node) []CallTrace {
	var out []CallTrace
	ir.Walk(root, func(n ir.Node) bool {
		c, ok := n.(*ir.Call)
		if !ok {
			return true
		}
		op := c.Operator()
		ct := CallTrace{Operator: op.Name, Category: op.Category.String()}
		if op.ParamTypes != nil {
			ct.Signature = types.Signature(op.Name, op.ParamTypes)
		}
		if t, ok := s.DerivedType(c.ID()); ok {
			ct.Type = t.String()
		}
		out = append(out, ct)
		return true
	})
	return out
}

// checkExpect compares a step outcome with its expectation.
func checkExpect(event TraceEvent, expect *Expect) []string {
	if expect == nil {
		return nil
	}
	var errs []string
	if expect.Error == "" && event.Failed() {
		errs = append(errs, fmt.Sprintf("unexpected error %s: %s", event.ErrorCode, event.Message))
		return errs
	}
	if expect.Type != "" && expect.Type != event.Type {
		errs = append(errs, fmt.Sprintf("expected type %s, got %s", expect.Type, event.Type))
	}
	if expect.SQL != "" && expect.SQL != event.SQL {
		errs = append(errs, fmt.Sprintf("expected SQL %q, got %q", expect.SQL, event.SQL))
	}
	if expect.Error != "" {
		switch {
		case !event.Failed():
			errs = append(errs, fmt.Sprintf("expected error %s, got type %s", expect.Error, event.Type))
		case expect.Error != event.ErrorCode:
			errs = append(errs, fmt.Sprintf("expected error %s, got %s: %s", expect.Error, event.ErrorCode, event.Message))
		case expect.Message != "" && !strings.Contains(event.Message, expect.Message):
			errs = append(errs, fmt.Sprintf("expected message containing %q, got %q", expect.Message, event.Message))
		}
	}
	return errs
}
