package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/polyexpr/internal/config"
)

func newScenario(name string, steps ...Step) *Scenario {
	return &Scenario{
		Name:        name,
		Description: "test",
		Settings:    config.Default(),
		Steps:       steps,
	}
}

func TestRun_ExpectationsPass(t *testing.T) {
	scenario := newScenario("pass",
		Step{Expr: "1 + 2 * 3", Expect: &Expect{Type: "INTEGER NOT NULL", SQL: "1 + 2 * 3"}},
		Step{Expr: "nope(1)", Expect: &Expect{Error: "NO_MATCH", Message: "NOPE"}},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 2)

	first := result.Trace[0]
	assert.Equal(t, "pass-1", first.Session)
	assert.Equal(t, "INTEGER NOT NULL", first.Type)
	assert.Len(t, first.Fingerprint, 64)
	require.Len(t, first.Calls, 2)
	assert.Equal(t, "+", first.Calls[0].Operator)
	assert.Equal(t, "*", first.Calls[1].Operator)
	assert.Equal(t, "SYSTEM", first.Calls[0].Category)

	second := result.Trace[1]
	assert.Equal(t, "pass-2", second.Session)
	assert.True(t, second.Failed())
	assert.Equal(t, "NO_MATCH", second.ErrorCode)
	assert.Empty(t, second.Calls)
}

func TestRun_ExpectationsFail(t *testing.T) {
	testCases := []struct {
		name    string
		step    Step
		wantErr string
	}{
		{
			name:    "wrong type",
			step:    Step{Expr: "1 + 2", Expect: &Expect{Type: "BIGINT"}},
			wantErr: "expected type BIGINT, got INTEGER NOT NULL",
		},
		{
			name:    "wrong sql",
			step:    Step{Expr: "(1 + 2)", Expect: &Expect{SQL: "(1 + 2)"}},
			wantErr: `expected SQL "(1 + 2)", got "1 + 2"`,
		},
		{
			name:    "unexpected error",
			step:    Step{Expr: "nope(1)", Expect: &Expect{Type: "INTEGER"}},
			wantErr: "unexpected error NO_MATCH",
		},
		{
			name:    "expected error but succeeded",
			step:    Step{Expr: "1", Expect: &Expect{Error: "NO_MATCH"}},
			wantErr: "expected error NO_MATCH, got type INTEGER NOT NULL",
		},
		{
			name:    "wrong error code",
			step:    Step{Expr: "missing + 1", Expect: &Expect{Error: "NO_MATCH"}},
			wantErr: "expected error NO_MATCH, got UNKNOWN_IDENTIFIER",
		},
		{
			name:    "wrong message",
			step:    Step{Expr: "nope(1)", Expect: &Expect{Error: "NO_MATCH", Message: "zzz"}},
			wantErr: `expected message containing "zzz"`,
		},
		{
			name:    "reduction failure",
			step:    Step{Expr: "a +", Expect: &Expect{Type: "INTEGER"}},
			wantErr: "unexpected error REDUCTION_FAILED",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := Run(newScenario("fail", tc.step))
			require.NoError(t, err)
			assert.False(t, result.Pass)
			require.Len(t, result.Errors, 1)
			assert.Contains(t, result.Errors[0], "step 0 ("+tc.step.Expr+")")
			assert.Contains(t, result.Errors[0], tc.wantErr)
		})
	}
}

func TestRun_ReductionFailureHasNoTree(t *testing.T) {
	result, err := Run(newScenario("broken", Step{Expr: "a +"}))
	require.NoError(t, err)
	assert.True(t, result.Pass)

	event := result.Trace[0]
	assert.Equal(t, "REDUCTION_FAILED", event.ErrorCode)
	assert.Empty(t, event.SQL)
	assert.Empty(t, event.Fingerprint)
}

func TestRun_Columns(t *testing.T) {
	scenario := newScenario("columns",
		Step{Expr: "emp.sal + 1", Expect: &Expect{Type: "INTEGER NOT NULL"}},
		Step{Expr: "ename IS NULL", Expect: &Expect{Type: "BOOLEAN NOT NULL"}},
		Step{Expr: "dept.sal", Expect: &Expect{Error: "UNKNOWN_IDENTIFIER"}},
	)
	scenario.Columns = []ColumnDef{
		{Table: "emp", Column: "sal", Type: "INTEGER NOT NULL"},
		{Table: "emp", Column: "ename", Type: "VARCHAR(10)"},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_GroupCount(t *testing.T) {
	zero := 0
	scenario := newScenario("aggregates",
		Step{Expr: "SUM(1)", GroupCount: &zero},
		Step{Expr: "SUM(SUM(1))", GroupCount: &zero, Expect: &Expect{Error: "NESTED_AGGREGATE"}},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.False(t, result.Trace[0].Failed())
}

func TestRun_UserFunctions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fns.cue")
	require.NoError(t, os.WriteFile(path, []byte(`function: bonus: {params: [{name: "amount", type: "INTEGER"}], returns: "BIGINT NOT NULL"}`), 0644))

	scenario := newScenario("udf",
		Step{Expr: "bonus(1)", Expect: &Expect{Type: "BIGINT NOT NULL"}},
		Step{Expr: "bonus(amount => 2)", Expect: &Expect{Type: "BIGINT NOT NULL"}},
		Step{Expr: "bonus('x')", Expect: &Expect{Error: "NO_MATCH"}},
	)
	scenario.Settings.Functions = path

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace[0].Calls, 1)
	call := result.Trace[0].Calls[0]
	assert.Equal(t, "bonus", call.Operator)
	assert.Equal(t, "USER_DEFINED_FUNCTION", call.Category)
	assert.Equal(t, "bonus(INTEGER)", call.Signature)
	assert.Equal(t, "BIGINT NOT NULL", call.Type)
}

func TestRun_SetupErrors(t *testing.T) {
	t.Run("bad functions file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "fns.cue")
		require.NoError(t, os.WriteFile(path, []byte(`function: abs: {returns: "INTEGER"}`), 0644))

		scenario := newScenario("setup", Step{Expr: "1"})
		scenario.Settings.Functions = path
		_, err := Run(scenario)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load functions")
	})

	t.Run("bad column type", func(t *testing.T) {
		scenario := newScenario("setup", Step{Expr: "1"})
		scenario.Columns = []ColumnDef{{Table: "t", Column: "c", Type: "NOT A TYPE"}}
		_, err := Run(scenario)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "column 0")
	})
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/arithmetic.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
}

func TestRun_Testdata(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}
