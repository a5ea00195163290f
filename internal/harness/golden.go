package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/polyexpr/internal/ir"
)

// TraceSnapshot is the golden form of a scenario trace.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []TraceEvent
}

// canonical converts the snapshot to an ir.Value for canonical JSON.
//
// Fingerprints are replaced by shape numbers: the first distinct tree is
// shape 1, the next distinct tree shape 2, and so on. Error messages are
// left out; the error code is enough to pin the outcome.
func (s *TraceSnapshot) canonical() ir.Value {
	shapes := make(map[string]int)
	steps := make(ir.Array, len(s.Trace))
	for i, event := range s.Trace {
		obj := ir.Object{
			"step":       ir.Int(event.Step),
			"session":    ir.Text(event.Session),
			"expression": ir.Text(event.Expression),
		}
		if event.SQL != "" {
			obj["sql"] = ir.Text(event.SQL)
		}
		if event.Type != "" {
			obj["type"] = ir.Text(event.Type)
		}
		if event.ErrorCode != "" {
			obj["error"] = ir.Text(event.ErrorCode)
		}
		if event.Fingerprint != "" {
			if _, ok := shapes[event.Fingerprint]; !ok {
				shapes[event.Fingerprint] = len(shapes) + 1
			}
			obj["shape"] = ir.Int(shapes[event.Fingerprint])
		}
		if len(event.Calls) > 0 {
			calls := make(ir.Array, len(event.Calls))
			for j, c := range event.Calls {
				call := ir.Object{
					"operator": ir.Text(c.Operator),
					"category": ir.Text(c.Category),
					"type":     ir.Text(c.Type),
				}
				if c.Signature != "" {
					call["signature"] = ir.Text(c.Signature)
				}
				calls[j] = call
			}
			obj["calls"] = calls
		}
		steps[i] = obj
	}
	return ir.Object{
		"scenario_name": ir.Text(s.ScenarioName),
		"trace":         steps,
	}
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
	}
	traceJSON, err := ir.MarshalCanonical(snapshot.canonical())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
