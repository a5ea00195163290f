package harness

// TraceEvent records the outcome of one scenario step.
type TraceEvent struct {
	Step        int         `json:"step"`
	Session     string      `json:"session"`
	Expression  string      `json:"expression"`
	SQL         string      `json:"sql,omitempty"`  // unparsed tree; empty if reduction failed
	Type        string      `json:"type,omitempty"` // derived type; empty on failure
	Fingerprint string      `json:"fingerprint,omitempty"`
	ErrorCode   string      `json:"error_code,omitempty"`
	Message     string      `json:"message,omitempty"`
	Calls       []CallTrace `json:"calls,omitempty"`
}

// Failed reports whether the step produced an error.
func (e TraceEvent) Failed() bool {
	return e.ErrorCode != ""
}

// CallTrace is one call of a validated tree, in pre-order.
type CallTrace struct {
	Operator  string `json:"operator"`
	Category  string `json:"category"`
	Signature string `json:"signature,omitempty"` // declared parameter types, if any
	Type      string `json:"type"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per step, in step order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step outcome.
func (r *Result) AddTrace(e TraceEvent) {
	r.Trace = append(r.Trace, e)
}
