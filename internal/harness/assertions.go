package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/polyexpr/internal/catalog"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			outcome := event.Type
			if event.Failed() {
				outcome = event.ErrorCode
			}
			fmt.Fprintf(&buf, "  [%d] %s => %s\n", event.Step, event.Expression, outcome)
		}
	}

	return buf.String()
}

// assertResolves checks that a call in the step resolved to the named
// operator, with the given category and signature when those are set.
func assertResolves(trace []TraceEvent, assertion Assertion) error {
	event := trace[assertion.Step]
	for _, c := range event.Calls {
		if !strings.EqualFold(c.Operator, assertion.Operator) {
			continue
		}
		if assertion.Category != "" && c.Category != assertion.Category {
			continue
		}
		if assertion.Signature != "" && c.Signature != assertion.Signature {
			continue
		}
		return nil
	}

	calls := make([]string, len(event.Calls))
	for i, c := range event.Calls {
		calls[i] = c.Operator
		if c.Signature != "" {
			calls[i] = c.Signature
		}
	}
	return &AssertionError{
		Type:     AssertResolves,
		Expected: fmt.Sprintf("step %d calls %s %s %s", assertion.Step, assertion.Operator, assertion.Category, assertion.Signature),
		Actual:   fmt.Sprintf("calls [%s]", strings.Join(calls, ", ")),
		Trace:    trace,
	}
}

// assertSameShape checks that the steps reduced to trees with one
// fingerprint.
func assertSameShape(trace []TraceEvent, assertion Assertion) error {
	first := trace[assertion.Steps[0]].Fingerprint
	for _, step := range assertion.Steps {
		fp := trace[step].Fingerprint
		if fp == "" || fp != first {
			return &AssertionError{
				Type:     AssertSameShape,
				Expected: fmt.Sprintf("steps %v share a fingerprint", assertion.Steps),
				Actual:   fmt.Sprintf("step %d has fingerprint %q, step %d has %q", assertion.Steps[0], first, step, fp),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertErrorCount checks how many steps failed.
func assertErrorCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Failed() {
			count++
		}
	}
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertErrorCount,
			Expected: fmt.Sprintf("%d failed steps", assertion.Count),
			Actual:   fmt.Sprintf("%d failed steps", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertHistoryCount checks how many recorded runs share the step's
// fingerprint.
func assertHistoryCount(ctx context.Context, cat *catalog.Catalog, trace []TraceEvent, assertion Assertion) error {
	fp := trace[assertion.Step].Fingerprint
	if fp == "" {
		return &AssertionError{
			Type:     AssertHistoryCount,
			Expected: fmt.Sprintf("step %d reduced to a tree", assertion.Step),
			Actual:   "step has no fingerprint",
			Trace:    trace,
		}
	}
	runs, err := cat.HistoryByFingerprint(ctx, fp)
	if err != nil {
		return fmt.Errorf("history_count: %w", err)
	}
	if len(runs) != assertion.Count {
		return &AssertionError{
			Type:     AssertHistoryCount,
			Expected: fmt.Sprintf("%d recorded runs of step %d's tree", assertion.Count, assertion.Step),
			Actual:   fmt.Sprintf("%d runs", len(runs)),
		}
	}
	return nil
}

// AssertionContext provides what assertions need beyond the trace.
type AssertionContext struct {
	Catalog *catalog.Catalog
	Ctx     context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	inRange := func(step int) bool { return step >= 0 && step < len(result.Trace) }

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertResolves:
			if !inRange(assertion.Step) {
				err = fmt.Errorf("assertion[%d]: step %d out of range", i, assertion.Step)
			} else {
				err = assertResolves(result.Trace, assertion)
			}
		case AssertSameShape:
			for _, step := range assertion.Steps {
				if !inRange(step) {
					err = fmt.Errorf("assertion[%d]: step %d out of range", i, step)
					break
				}
			}
			if err == nil && len(assertion.Steps) > 0 {
				err = assertSameShape(result.Trace, assertion)
			}
		case AssertErrorCount:
			err = assertErrorCount(result.Trace, assertion)
		case AssertHistoryCount:
			switch {
			case actx == nil || actx.Catalog == nil:
				err = fmt.Errorf("assertion[%d]: history_count requires a catalog", i)
			case !inRange(assertion.Step):
				err = fmt.Errorf("assertion[%d]: step %d out of range", i, assertion.Step)
			default:
				err = assertHistoryCount(actx.Ctx, actx.Catalog, result.Trace, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
