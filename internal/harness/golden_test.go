package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/polyexpr/internal/ir"
)

func TestRunWithGolden_Arithmetic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/arithmetic.yaml")
	require.NoError(t, err)

	// To regenerate:
	//   go test ./internal/harness -run TestRunWithGolden_Arithmetic -update
	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestTraceSnapshot_Canonical(t *testing.T) {
	snapshot := TraceSnapshot{
		ScenarioName: "shapes",
		Trace: []TraceEvent{
			{Step: 0, Session: "shapes-1", Expression: "1", SQL: "1", Type: "INTEGER NOT NULL", Fingerprint: "f1"},
			{Step: 1, Session: "shapes-2", Expression: "x", SQL: "X", ErrorCode: "UNKNOWN_IDENTIFIER", Message: "ignored", Fingerprint: "f2"},
			{Step: 2, Session: "shapes-3", Expression: "(1)", SQL: "1", Type: "INTEGER NOT NULL", Fingerprint: "f1"},
			{Step: 3, Session: "shapes-4", Expression: "1 +", ErrorCode: "REDUCTION_FAILED"},
		},
	}

	data, err := ir.MarshalCanonical(snapshot.canonical())
	require.NoError(t, err)

	want := `{"scenario_name":"shapes","trace":[` +
		`{"expression":"1","session":"shapes-1","shape":1,"sql":"1","step":0,"type":"INTEGER NOT NULL"},` +
		`{"error":"UNKNOWN_IDENTIFIER","expression":"x","session":"shapes-2","shape":2,"sql":"X","step":1},` +
		`{"expression":"(1)","session":"shapes-3","shape":1,"sql":"1","step":2,"type":"INTEGER NOT NULL"},` +
		`{"error":"REDUCTION_FAILED","expression":"1 +","session":"shapes-4","step":3}]}`
	assert.Equal(t, want, string(data))
}

func TestTraceSnapshot_CanonicalCalls(t *testing.T) {
	snapshot := TraceSnapshot{
		ScenarioName: "calls",
		Trace: []TraceEvent{{
			Step: 0, Session: "calls-1", Expression: "score(1)", Fingerprint: "f",
			Calls: []CallTrace{{Operator: "score", Category: "USER_DEFINED_FUNCTION", Signature: "score(INTEGER)", Type: "BIGINT"}},
		}},
	}

	data, err := ir.MarshalCanonical(snapshot.canonical())
	require.NoError(t, err)
	assert.Contains(t, string(data),
		`"calls":[{"category":"USER_DEFINED_FUNCTION","operator":"score","signature":"score(INTEGER)","type":"BIGINT"}]`)
}
