package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/polyexpr/internal/types"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// decode parses a JSON envelope and, when data is non-nil, its payload.
func decode(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	if data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()
	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"reduce", "unparse", "validate", "literal", "functions", "catalog"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	testCases := []struct {
		name   string
		format string
	}{
		{name: "unknown", format: "yaml"},
		{name: "xml has no cli rendering", format: "xml"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := execute(t, "--format", tc.format, "reduce", "1")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid format")
		})
	}
}

func TestReduce_Text(t *testing.T) {
	out, _, err := execute(t, "reduce", "1 + 2 * 3")
	require.NoError(t, err)
	assert.Equal(t, "+ [BINARY]\n  1\n  * [BINARY]\n    2\n    3\n", out)
}

func TestReduce_JSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "reduce", "COUNT(DISTINCT x)")
	require.NoError(t, err)

	resp := decode(t, out, nil)
	assert.Equal(t, "ok", resp.Status)
	assert.Contains(t, string(resp.Data), "COUNT")
	assert.Contains(t, string(resp.Data), "DISTINCT")
}

func TestReduce_Failure(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "reduce", "a +")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decode(t, out, nil)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "REDUCTION_FAILED", resp.Error.Code)
	assert.Equal(t, "1", resp.Error.Details["line"])
}

func TestUnparse(t *testing.T) {
	testCases := []struct {
		name string
		expr string
		want string
	}{
		{name: "keeps needed parentheses", expr: "(a + b) * c", want: "(A + B) * C"},
		{name: "drops redundant parentheses", expr: "(a * b) + c", want: "A * B + C"},
		{name: "function star", expr: "count(*)", want: "COUNT(*)"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, _, err := execute(t, "unparse", tc.expr)
			require.NoError(t, err)
			assert.Equal(t, tc.want+"\n", out)
		})
	}
}

func TestValidate_JSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "validate", "1 + 2")
	require.NoError(t, err)

	var result ValidateResult
	resp := decode(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, types.IntegerType(false).String(), result.Type)
	assert.Len(t, result.Fingerprint, 64)
	require.Len(t, result.Calls, 1)
	assert.Equal(t, "+", result.Calls[0].Operator)
	assert.Equal(t, "1 + 2", result.Calls[0].Expr)
}

func TestValidate_FingerprintIsStable(t *testing.T) {
	run := func(expr string) string {
		out, _, err := execute(t, "--format", "json", "validate", expr)
		require.NoError(t, err)
		var result ValidateResult
		decode(t, out, &result)
		return result.Fingerprint
	}
	assert.Equal(t, run("1 + 2"), run("(1) + 2"))
	assert.NotEqual(t, run("1 + 2"), run("2 + 1"))
}

func TestValidate_Failures(t *testing.T) {
	testCases := []struct {
		name string
		expr string
		code string
	}{
		{name: "unknown function", expr: "nope(1)", code: "NO_MATCH"},
		{name: "column without catalog", expr: "a + 1", code: "UNKNOWN_IDENTIFIER"},
		{name: "distinct on scalar", expr: "ABS(DISTINCT 1)", code: "QUANTIFIER_NOT_ALLOWED"},
		{name: "filter on scalar", expr: "ABS(1) FILTER (WHERE TRUE)", code: "NOT_AGGREGATE"},
		{name: "bad literal", expr: "DATE '2024-13-01'", code: "INVALID_LITERAL"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, _, err := execute(t, "--format", "json", "validate", tc.expr)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			resp := decode(t, out, nil)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.code, resp.Error.Code)
		})
	}
}

func TestValidate_TextShowsTypedTree(t *testing.T) {
	out, _, err := execute(t, "validate", "ABS(-1)")
	require.NoError(t, err)
	assert.Contains(t, out, "type: "+types.IntegerType(false).String())
	assert.Contains(t, out, "ABS [FUNCTION] : ")
	assert.Contains(t, out, "fingerprint: ")
}

func TestValidate_WithCatalog(t *testing.T) {
	db := filepath.Join(t.TempDir(), "catalog.db")

	_, _, err := execute(t, "--catalog", db, "catalog", "define", "emp", "sal", "INTEGER")
	require.NoError(t, err)

	out, _, err := execute(t, "--catalog", db, "--format", "json", "validate", "emp.sal + 1")
	require.NoError(t, err)
	var result ValidateResult
	decode(t, out, &result)
	assert.Equal(t, types.IntegerType(true).String(), result.Type)
}

func TestValidate_RecordsHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "catalog.db")

	_, _, err := execute(t, "--catalog", db, "validate", "--record", "1 + 2")
	require.NoError(t, err)
	_, _, err = execute(t, "--catalog", db, "validate", "--record", "nope(1)")
	require.Error(t, err)

	out, _, err := execute(t, "--catalog", db, "--format", "json", "catalog", "history")
	require.NoError(t, err)
	var runs HistoryList
	decode(t, out, &runs)
	require.Len(t, runs, 2)
	assert.Equal(t, types.IntegerType(false).String(), runs[0].ResultType)
	assert.Empty(t, runs[0].ErrorCode)
	assert.Equal(t, "NO_MATCH", runs[1].ErrorCode)
	assert.Empty(t, runs[1].ResultType)

	out, _, err = execute(t, "--catalog", db, "--format", "json", "catalog", "history", "--fingerprint", runs[0].Fingerprint)
	require.NoError(t, err)
	var same HistoryList
	decode(t, out, &same)
	require.Len(t, same, 1)
	assert.Equal(t, runs[0].Seq, same[0].Seq)
}

func TestValidate_RecordNeedsCatalog(t *testing.T) {
	_, _, err := execute(t, "validate", "--record", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidate_UserDefinedFunctions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "functions.cue", `package functions

function: score: {
	params: [{name: "points", type: "INTEGER"}]
	returns: "BIGINT NOT NULL"
}
`)

	out, _, err := execute(t, "--functions", dir, "--format", "json", "validate", "score(points => 3)")
	require.NoError(t, err)
	var result ValidateResult
	decode(t, out, &result)
	assert.Equal(t, types.BigIntType(false).String(), result.Type)
	require.Len(t, result.Calls, 1)
	assert.Equal(t, "USER_DEFINED_FUNCTION", result.Calls[0].Category)
}

func TestFunctionsLoadFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "functions.cue", `package functions

function: abs: {
	params: [{type: "INTEGER"}]
	returns: "INTEGER"
}
`)

	out, _, err := execute(t, "--functions", dir, "--format", "json", "functions")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decode(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeLoadFailed, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "E106")
}

func TestFunctions_List(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "functions", "sum")
	require.NoError(t, err)

	var list FunctionList
	decode(t, out, &list)
	require.NotEmpty(t, list)
	for _, f := range list {
		assert.Equal(t, "SUM", f.Name)
		assert.True(t, f.Aggregate)
		assert.Len(t, f.Fingerprint, 64)
	}
}

func TestFunctions_UserDefinedReturns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "functions.cue", `package functions

function: score: {
	params: [{name: "points", type: "INTEGER"}]
	returns: "BIGINT NOT NULL"
}
function: total: {
	params: [{name: "x", type: "INTEGER"}]
	returns: "BIGINT NOT NULL"
	aggregate: true
}
`)

	out, _, err := execute(t, "--functions", dir, "--format", "json", "functions", "--user")
	require.NoError(t, err)
	var list FunctionList
	decode(t, out, &list)
	require.Len(t, list, 2)

	byName := map[string]FunctionInfo{}
	for _, f := range list {
		byName[f.Name] = f
	}
	assert.Equal(t, "score(INTEGER)", byName["score"].Signature)
	assert.Equal(t, "BIGINT NOT NULL", byName["score"].Returns)
	assert.True(t, byName["total"].Aggregate)
	assert.Equal(t, "BIGINT NOT NULL", byName["total"].Returns)
}

func TestFunctions_UnknownName(t *testing.T) {
	_, _, err := execute(t, "functions", "no_such_function")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestFunctions_UserOnly(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "functions", "--user")
	require.NoError(t, err)
	var list FunctionList
	decode(t, out, &list)
	assert.Empty(t, list)
}

func TestLiteral(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		kind      string
		canonical string
	}{
		{name: "date", input: "date '2024-02-29'", kind: "DATE", canonical: "DATE '2024-02-29'"},
		{name: "exact numeric", input: "12.50", kind: "EXACT_NUMERIC", canonical: "12.50"},
		{name: "charset string", input: "_latin1'abc'", kind: "CHAR_STRING", canonical: "_LATIN1'abc'"},
		{name: "null", input: "null", kind: "NULL", canonical: "NULL"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, _, err := execute(t, "--format", "json", "literal", tc.input)
			require.NoError(t, err)
			var result LiteralResult
			decode(t, out, &result)
			assert.Equal(t, tc.kind, result.Kind)
			assert.Equal(t, tc.canonical, result.Canonical)
			assert.NotEmpty(t, result.Type)
		})
	}
}

func TestLiteral_Invalid(t *testing.T) {
	out, _, err := execute(t, "literal", "DATE '2024-13-01'")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [INVALID_LITERAL]")
}

func TestCatalog_ShowAndDrop(t *testing.T) {
	db := filepath.Join(t.TempDir(), "catalog.db")
	for _, col := range [][]string{{"emp", "id", "INTEGER NOT NULL"}, {"emp", "name", "VARCHAR(20)"}, {"dept", "id", "INTEGER"}} {
		_, _, err := execute(t, "--catalog", db, "catalog", "define", col[0], col[1], col[2])
		require.NoError(t, err)
	}

	out, _, err := execute(t, "--catalog", db, "--format", "json", "catalog", "show")
	require.NoError(t, err)
	var cols ColumnList
	decode(t, out, &cols)
	require.Len(t, cols, 3)
	assert.Equal(t, "DEPT", cols[0].Table)
	assert.Equal(t, "EMP", cols[1].Table)
	assert.Equal(t, "ID", cols[1].Column)
	assert.Equal(t, 2, cols[2].Position)

	_, _, err = execute(t, "--catalog", db, "catalog", "drop", "emp")
	require.NoError(t, err)

	out, _, err = execute(t, "--catalog", db, "catalog", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "DEPT")
	assert.NotContains(t, out, "EMP")
}

func TestCatalog_DefineRejectsBadType(t *testing.T) {
	db := filepath.Join(t.TempDir(), "catalog.db")
	_, _, err := execute(t, "--catalog", db, "catalog", "define", "emp", "id", "NOPE")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCatalog_RequiresPath(t *testing.T) {
	out, _, err := execute(t, "catalog", "show")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E007]")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("settings apply", func(t *testing.T) {
		path := writeFile(t, dir, "good.yaml", "default_charset: LATIN1\n")
		out, _, err := execute(t, "--config", path, "unparse", "'abc'")
		require.NoError(t, err)
		assert.Equal(t, "_LATIN1'abc'\n", out)
	})

	t.Run("invalid settings", func(t *testing.T) {
		path := writeFile(t, dir, "bad.yaml", "log_level: loud\n")
		out, _, err := execute(t, "--config", path, "reduce", "1")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error [E008]")
	})
}

func TestVerboseLogsToStderr(t *testing.T) {
	out, errOut, err := execute(t, "-v", "--format", "json", "validate", "ABS(1)")
	require.NoError(t, err)
	decode(t, out, nil)
	assert.Contains(t, errOut, "session ")
}
