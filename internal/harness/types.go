package harness

import "github.com/roach88/tickflow/internal/ir"

// TraceEvent records one tick of a scenario run. A tick that failed with a
// runtime error carries the error code and no outputs or registers.
type TraceEvent struct {
	Seq       int64       `json:"seq"`
	Inputs    ir.IRObject `json:"inputs"`
	Outputs   ir.IRObject `json:"outputs,omitempty"`
	Registers ir.IRObject `json:"registers,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// Committed reports whether the tick committed.
func (e TraceEvent) Committed() bool { return e.Error == "" }

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expectation and assertion matched.
	Pass bool `json:"pass"`

	// RunID is the run the ticks were recorded under.
	RunID string `json:"run_id,omitempty"`

	// Trace contains every tick in order, failed ticks included.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Registers is the register storage after the last committed tick.
	Registers ir.IRObject `json:"registers,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Trace:     []TraceEvent{},
		Errors:    []string{},
		Registers: ir.IRObject{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTick appends a committed tick to the trace.
func (r *Result) AddTick(seq int64, inputs, outputs, registers ir.IRObject) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:       seq,
		Inputs:    inputs,
		Outputs:   outputs,
		Registers: registers,
	})
}

// AddFailedTick appends a tick that aborted with a runtime error.
func (r *Result) AddFailedTick(seq int64, inputs ir.IRObject, code string) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:    seq,
		Inputs: inputs,
		Error:  code,
	})
}

// committed returns the committed ticks in order.
func (r *Result) committed() []TraceEvent {
	var out []TraceEvent
	for _, e := range r.Trace {
		if e.Committed() {
			out = append(out, e)
		}
	}
	return out
}
