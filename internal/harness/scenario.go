package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/polyexpr/internal/config"
	"github.com/roach88/polyexpr/internal/types"
)

// Scenario defines a conformance test scenario: a catalog, a list of
// expressions and the outcomes they must have.
type Scenario struct {
	// Name uniquely identifies this scenario. It also prefixes session IDs
	// and names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Settings configure the parser and validator. Functions names a CUE
	// file of function declarations, relative to the scenario file.
	Settings config.Config `yaml:"settings,omitempty"`

	// Columns are defined in the scenario's catalog before any step runs.
	Columns []ColumnDef `yaml:"columns,omitempty"`

	// Steps are validated in order, each in a fresh session.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace and the catalog history.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ColumnDef is one catalog column.
type ColumnDef struct {
	Table  string `yaml:"table"`
	Column string `yaml:"column"`
	Type   string `yaml:"type"`
}

// Step is one expression to reduce and validate.
type Step struct {
	Expr string `yaml:"expr"`

	// GroupCount is the GROUP BY key count aggregates see. Nil means the
	// expression is not part of an aggregate query.
	GroupCount *int `yaml:"group_count,omitempty"`

	// Expect, if set, is checked against the step outcome.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected outcome of a step. Type and Error are
// mutually exclusive.
type Expect struct {
	// Type is the expected derived type, e.g. "INTEGER NOT NULL".
	Type string `yaml:"type,omitempty"`

	// SQL is the expected unparsed text of the reduced tree.
	SQL string `yaml:"sql,omitempty"`

	// Error is the expected ir.ErrorCode.
	Error string `yaml:"error,omitempty"`

	// Message is a substring the error message must contain.
	Message string `yaml:"message,omitempty"`
}

// Assertion validates the trace or the catalog history.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Step indexes the step under test (resolves, history_count).
	Step int `yaml:"step,omitempty"`

	// Steps lists the steps compared by same_shape.
	Steps []int `yaml:"steps,omitempty"`

	// Operator, Category and Signature identify a resolved call
	// (resolves). Empty Category and Signature match anything.
	Operator  string `yaml:"operator,omitempty"`
	Category  string `yaml:"category,omitempty"`
	Signature string `yaml:"signature,omitempty"`

	// Count is the expected count (error_count, history_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertResolves     = "resolves"
	AssertSameShape    = "same_shape"
	AssertErrorCount   = "error_count"
	AssertHistoryCount = "history_count"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields
// (typos) are errors, and the functions path is resolved relative to the
// scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if fn := scenario.Settings.Functions; fn != "" && !filepath.IsAbs(fn) {
		scenario.Settings.Functions = filepath.Join(filepath.Dir(path), fn)
	}
	if fn := scenario.Settings.Functions; fn != "" {
		if _, err := os.Stat(fn); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: functions file not found: %s", fn)
		}
	}
	return scenario, nil
}

// ParseScenario decodes scenario YAML over the default settings and
// validates it.
func ParseScenario(data []byte) (*Scenario, error) {
	scenario := Scenario{Settings: config.Default()}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.Settings.Catalog != "" {
		return fmt.Errorf("settings.catalog is not allowed: scenarios use an in-memory catalog")
	}
	if err := s.Settings.Validate(); err != nil {
		return fmt.Errorf("settings: %w", err)
	}

	for i, c := range s.Columns {
		if c.Table == "" || c.Column == "" {
			return fmt.Errorf("columns[%d]: table and column are required", i)
		}
		if _, err := types.Parse(c.Type); err != nil {
			return fmt.Errorf("columns[%d]: %w", i, err)
		}
	}

	for i, step := range s.Steps {
		if step.Expr == "" {
			return fmt.Errorf("steps[%d]: expr is required", i)
		}
		if e := step.Expect; e != nil {
			if e.Type != "" && e.Error != "" {
				return fmt.Errorf("steps[%d].expect: type and error are mutually exclusive", i)
			}
			if e.Message != "" && e.Error == "" {
				return fmt.Errorf("steps[%d].expect: message requires error", i)
			}
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], len(s.Steps)); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, steps int) error {
	checkStep := func(step int) error {
		if step < 0 || step >= steps {
			return fmt.Errorf("assertions[%d]: step %d out of range", index, step)
		}
		return nil
	}

	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertResolves:
		if a.Operator == "" {
			return fmt.Errorf("assertions[%d]: operator is required for resolves", index)
		}
		return checkStep(a.Step)
	case AssertSameShape:
		if len(a.Steps) < 2 {
			return fmt.Errorf("assertions[%d]: same_shape needs at least two steps", index)
		}
		for _, step := range a.Steps {
			if err := checkStep(step); err != nil {
				return err
			}
		}
	case AssertErrorCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for error_count", index)
		}
	case AssertHistoryCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for history_count", index)
		}
		return checkStep(a.Step)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
