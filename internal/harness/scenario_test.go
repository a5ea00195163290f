package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fns.cue"), []byte(`function: f: {returns: "INTEGER"}`), 0644))
	scenarioPath := filepath.Join(dir, "test.yaml")

	content := `
name: test_scenario
description: "Test scenario for validation"
settings:
  functions: fns.cue
  max_depth: 32
columns:
  - { table: emp, column: sal, type: "DECIMAL(10, 2)" }
steps:
  - expr: "ABS(sal)"
    expect:
      type: "DECIMAL(10, 2)"
  - expr: "COUNT(*)"
    group_count: 0
assertions:
  - type: resolves
    step: 0
    operator: ABS
`
	require.NoError(t, os.WriteFile(scenarioPath, []byte(content), 0644))

	scenario, err := LoadScenario(scenarioPath)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Equal(t, filepath.Join(dir, "fns.cue"), scenario.Settings.Functions)
	assert.Equal(t, 32, scenario.Settings.MaxDepth)
	assert.Equal(t, "info", scenario.Settings.LogLevel)
	require.Len(t, scenario.Columns, 1)
	assert.Equal(t, ColumnDef{Table: "emp", Column: "sal", Type: "DECIMAL(10, 2)"}, scenario.Columns[0])
	require.Len(t, scenario.Steps, 2)
	assert.Nil(t, scenario.Steps[0].GroupCount)
	require.NotNil(t, scenario.Steps[1].GroupCount)
	assert.Equal(t, 0, *scenario.Steps[1].GroupCount)
	assert.Len(t, scenario.Assertions, 1)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_MissingFunctionsFile(t *testing.T) {
	dir := t.TempDir()
	scenarioPath := filepath.Join(dir, "test.yaml")
	content := `
name: missing_functions
description: "Functions file does not exist"
settings:
  functions: nowhere.cue
steps:
  - expr: "1"
`
	require.NoError(t, os.WriteFile(scenarioPath, []byte(content), 0644))

	_, err := LoadScenario(scenarioPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "functions file not found")
}

func TestParseScenario_Invalid(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `
description: "no name"
steps: [{expr: "1"}]`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			content: `
name: x
steps: [{expr: "1"}]`,
			wantErr: "description is required",
		},
		{
			name: "no steps",
			content: `
name: x
description: "d"`,
			wantErr: "steps list is required",
		},
		{
			name: "unknown field",
			content: `
name: x
description: "d"
flow: []
steps: [{expr: "1"}]`,
			wantErr: "failed to parse YAML",
		},
		{
			name: "catalog setting",
			content: `
name: x
description: "d"
settings: {catalog: "cat.db"}
steps: [{expr: "1"}]`,
			wantErr: "settings.catalog is not allowed",
		},
		{
			name: "bad settings",
			content: `
name: x
description: "d"
settings: {log_level: loud}
steps: [{expr: "1"}]`,
			wantErr: "settings:",
		},
		{
			name: "column without table",
			content: `
name: x
description: "d"
columns: [{column: a, type: INTEGER}]
steps: [{expr: "1"}]`,
			wantErr: "columns[0]: table and column are required",
		},
		{
			name: "column with bad type",
			content: `
name: x
description: "d"
columns: [{table: t, column: a, type: "NOT A TYPE"}]
steps: [{expr: "1"}]`,
			wantErr: "columns[0]",
		},
		{
			name: "empty expr",
			content: `
name: x
description: "d"
steps: [{expr: ""}]`,
			wantErr: "steps[0]: expr is required",
		},
		{
			name: "type and error",
			content: `
name: x
description: "d"
steps: [{expr: "1", expect: {type: INTEGER, error: NO_MATCH}}]`,
			wantErr: "type and error are mutually exclusive",
		},
		{
			name: "message without error",
			content: `
name: x
description: "d"
steps: [{expr: "1", expect: {message: oops}}]`,
			wantErr: "message requires error",
		},
		{
			name: "assertion without type",
			content: `
name: x
description: "d"
steps: [{expr: "1"}]
assertions: [{count: 1}]`,
			wantErr: "assertions[0]: type is required",
		},
		{
			name: "unknown assertion",
			content: `
name: x
description: "d"
steps: [{expr: "1"}]
assertions: [{type: final_state}]`,
			wantErr: `unknown assertion type "final_state"`,
		},
		{
			name: "resolves without operator",
			content: `
name: x
description: "d"
steps: [{expr: "1"}]
assertions: [{type: resolves, step: 0}]`,
			wantErr: "operator is required for resolves",
		},
		{
			name: "resolves step out of range",
			content: `
name: x
description: "d"
steps: [{expr: "1"}]
assertions: [{type: resolves, step: 3, operator: "+"}]`,
			wantErr: "step 3 out of range",
		},
		{
			name: "same_shape with one step",
			content: `
name: x
description: "d"
steps: [{expr: "1"}]
assertions: [{type: same_shape, steps: [0]}]`,
			wantErr: "same_shape needs at least two steps",
		},
		{
			name: "negative error_count",
			content: `
name: x
description: "d"
steps: [{expr: "1"}]
assertions: [{type: error_count, count: -1}]`,
			wantErr: "count must be non-negative",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestParseScenario_DefaultSettings(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: defaults
description: "settings omitted"
steps: [{expr: "1 + 2"}]`))
	require.NoError(t, err)

	assert.Equal(t, 256, scenario.Settings.MaxDepth)
	assert.False(t, scenario.Settings.CaseSensitive)
	assert.Empty(t, scenario.Settings.Functions)
}

func TestLoadScenario_Testdata(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			_, err := LoadScenario(path)
			require.NoError(t, err)
		})
	}
}
