package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/polyexpr/internal/catalog"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{
			Step: 0, Expression: "1 + 2", Type: "INTEGER NOT NULL", Fingerprint: "aaaa",
			Calls: []CallTrace{{Operator: "+", Category: "SYSTEM", Type: "INTEGER NOT NULL"}},
		},
		{
			Step: 1, Expression: "(1) + 2", Type: "INTEGER NOT NULL", Fingerprint: "aaaa",
			Calls: []CallTrace{{Operator: "+", Category: "SYSTEM", Type: "INTEGER NOT NULL"}},
		},
		{
			Step: 2, Expression: "score(1)", Type: "BIGINT NOT NULL", Fingerprint: "bbbb",
			Calls: []CallTrace{{Operator: "score", Category: "USER_DEFINED_FUNCTION", Signature: "score(INTEGER)", Type: "BIGINT NOT NULL"}},
		},
		{Step: 3, Expression: "nope(1)", ErrorCode: "NO_MATCH", Fingerprint: "cccc"},
		{Step: 4, Expression: "a +", ErrorCode: "REDUCTION_FAILED"},
	}
}

func TestAssertResolves(t *testing.T) {
	testCases := []struct {
		name      string
		assertion Assertion
		wantErr   bool
	}{
		{name: "operator only", assertion: Assertion{Step: 0, Operator: "+"}},
		{name: "case-insensitive name", assertion: Assertion{Step: 2, Operator: "SCORE"}},
		{name: "with category", assertion: Assertion{Step: 2, Operator: "score", Category: "USER_DEFINED_FUNCTION"}},
		{name: "with signature", assertion: Assertion{Step: 2, Operator: "score", Signature: "score(INTEGER)"}},
		{name: "wrong operator", assertion: Assertion{Step: 0, Operator: "*"}, wantErr: true},
		{name: "wrong category", assertion: Assertion{Step: 0, Operator: "+", Category: "NUMERIC"}, wantErr: true},
		{name: "wrong signature", assertion: Assertion{Step: 2, Operator: "score", Signature: "score(VARCHAR)"}, wantErr: true},
		{name: "failed step has no calls", assertion: Assertion{Step: 3, Operator: "NOPE"}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.assertion.Type = AssertResolves
			err := assertResolves(sampleTrace(), tc.assertion)
			if !tc.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var assertErr *AssertionError
			require.ErrorAs(t, err, &assertErr)
			assert.Equal(t, AssertResolves, assertErr.Type)
			assert.Contains(t, assertErr.Expected, tc.assertion.Operator)
		})
	}
}

func TestAssertResolves_ListsCalls(t *testing.T) {
	err := assertResolves(sampleTrace(), Assertion{Type: AssertResolves, Step: 2, Operator: "bonus"})
	require.Error(t, err)

	var assertErr *AssertionError
	require.ErrorAs(t, err, &assertErr)
	assert.Equal(t, "calls [score(INTEGER)]", assertErr.Actual)
}

func TestAssertSameShape(t *testing.T) {
	testCases := []struct {
		name    string
		steps   []int
		wantErr bool
	}{
		{name: "same fingerprint", steps: []int{0, 1}},
		{name: "different fingerprint", steps: []int{0, 2}, wantErr: true},
		{name: "no tree", steps: []int{4, 4}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := assertSameShape(sampleTrace(), Assertion{Type: AssertSameShape, Steps: tc.steps})
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "Assertion failed: same_shape")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAssertErrorCount(t *testing.T) {
	assert.NoError(t, assertErrorCount(sampleTrace(), Assertion{Type: AssertErrorCount, Count: 2}))

	err := assertErrorCount(sampleTrace(), Assertion{Type: AssertErrorCount, Count: 0})
	require.Error(t, err)
	var assertErr *AssertionError
	require.ErrorAs(t, err, &assertErr)
	assert.Equal(t, "0 failed steps", assertErr.Expected)
	assert.Equal(t, "2 failed steps", assertErr.Actual)
}

func TestAssertHistoryCount(t *testing.T) {
	ctx := context.Background()
	cat, err := catalog.Open(":memory:")
	require.NoError(t, err)
	defer cat.Close()

	for _, id := range []string{"s-1", "s-2"} {
		_, err := cat.RecordValidation(ctx, catalog.Validation{
			SessionID:   id,
			Expression:  "1 + 2",
			Tree:        "{}",
			Fingerprint: "aaaa",
			ResultType:  "INTEGER NOT NULL",
		})
		require.NoError(t, err)
	}

	trace := sampleTrace()
	assert.NoError(t, assertHistoryCount(ctx, cat, trace, Assertion{Type: AssertHistoryCount, Step: 0, Count: 2}))
	assert.NoError(t, assertHistoryCount(ctx, cat, trace, Assertion{Type: AssertHistoryCount, Step: 2, Count: 0}))

	err = assertHistoryCount(ctx, cat, trace, Assertion{Type: AssertHistoryCount, Step: 0, Count: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 runs")

	err = assertHistoryCount(ctx, cat, trace, Assertion{Type: AssertHistoryCount, Step: 4, Count: 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step has no fingerprint")
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertErrorCount,
		Expected: "1 failed steps",
		Actual:   "2 failed steps",
		Trace:    sampleTrace(),
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: error_count")
	assert.Contains(t, msg, "Full trace:")
	assert.Contains(t, msg, "[0] 1 + 2 => INTEGER NOT NULL")
	assert.Contains(t, msg, "[3] nope(1) => NO_MATCH")
}

func TestEvaluateAssertions(t *testing.T) {
	result := NewResult()
	for _, event := range sampleTrace() {
		result.AddTrace(event)
	}

	testCases := []struct {
		name       string
		assertions []Assertion
		actx       *AssertionContext
		wantErrs   []string
	}{
		{
			name: "all pass",
			assertions: []Assertion{
				{Type: AssertResolves, Step: 0, Operator: "+"},
				{Type: AssertSameShape, Steps: []int{0, 1}},
				{Type: AssertErrorCount, Count: 2},
			},
		},
		{
			name:       "step out of range",
			assertions: []Assertion{{Type: AssertResolves, Step: 9, Operator: "+"}},
			wantErrs:   []string{"assertion[0]: step 9 out of range"},
		},
		{
			name:       "same_shape step out of range",
			assertions: []Assertion{{Type: AssertSameShape, Steps: []int{0, 7}}},
			wantErrs:   []string{"assertion[0]: step 7 out of range"},
		},
		{
			name:       "history without catalog",
			assertions: []Assertion{{Type: AssertHistoryCount, Step: 0, Count: 1}},
			wantErrs:   []string{"history_count requires a catalog"},
		},
		{
			name:       "unknown type",
			assertions: []Assertion{{Type: "final_state"}},
			wantErrs:   []string{`unknown assertion type "final_state"`},
		},
		{
			name: "collects every failure",
			assertions: []Assertion{
				{Type: AssertErrorCount, Count: 0},
				{Type: AssertResolves, Step: 0, Operator: "+"},
				{Type: AssertSameShape, Steps: []int{0, 2}},
			},
			wantErrs: []string{"error_count", "same_shape"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			errs := EvaluateAssertions(result, tc.assertions, tc.actx)
			require.Len(t, errs, len(tc.wantErrs))
			for i, want := range tc.wantErrs {
				assert.Contains(t, errs[i], want)
			}
		})
	}
}
