// Package harness runs expression conformance scenarios.
//
// A scenario declares a catalog, optional user-defined functions and a list
// of expressions. The harness reduces and validates each expression in its
// own session and checks the outcome against the scenario's expectations.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	settings:               # config.Config keys; catalog must be empty
//	  case_sensitive: false
//	  functions: functions.cue
//	columns:
//	  - { table: emp, column: sal, type: "DECIMAL(10, 2)" }
//	steps:
//	  - expr: "ABS(sal)"
//	    expect:
//	      type: "DECIMAL(10, 2)"
//	  - expr: "nope(1)"
//	    expect:
//	      error: NO_MATCH
//	assertions:
//	  - type: resolves
//	    step: 0
//	    operator: ABS
//	  - type: error_count
//	    count: 1
//
// # Assertion Types
//
//   - resolves: a call in the step resolved to the named operator
//   - same_shape: the steps reduced to structurally identical trees
//   - error_count: exactly N steps failed
//   - history_count: the catalog history holds N runs of the step's tree
//
// # Deterministic Testing
//
// Session IDs come from testutil.SequenceIDGenerator ("<name>-1",
// "<name>-2", ...) and every scenario gets a fresh in-memory catalog, so
// traces are byte-identical across runs and can be compared against golden
// files.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/arithmetic.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, msg := range result.Errors {
//	    log.Println(msg)
//	}
package harness
