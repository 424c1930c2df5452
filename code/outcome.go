package code

import "time"

// TestOutcome is the result of invoking one discovered test function.
type TestOutcome struct {
	// Document names the document the test was defined in.
	Document string `json:"document,omitempty"`

	// Name is the name the function was bound under.
	Name string `json:"name"`

	// Line is the document line of the block that defined the test.
	Line int `json:"line"`

	// Passed reports whether the function returned without failing.
	Passed bool `json:"passed"`

	// Err is the failure, when Passed is false.
	Err error `json:"-"`

	// Stdout holds what the test printed.
	Stdout string `json:"stdout,omitempty"`

	// Duration is how long the invocation took.
	Duration time.Duration `json:"duration"`
}

// Message returns the failure message, or "" for a passing test.
func (o TestOutcome) Message() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// BlockResult is what the Evaluator records on a code-block region.
type BlockResult struct {
	// Bound lists the names the block bound, in source order.
	Bound []string

	// Tests holds one outcome per invoked test, in invocation order.
	Tests []TestOutcome

	// Stdout holds what the block itself printed.
	Stdout string

	// ToolCalls records the host tools the block and its tests called.
	ToolCalls []ToolCallRecord
}

// Recorder receives test outcomes as they are produced.
//
// Contract:
// - Concurrency: Record is called from the goroutine running the document.
// - Ownership: the outcome is a copy owned by the recorder.
type Recorder interface {
	Record(outcome TestOutcome)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(TestOutcome)

// Record implements Recorder.
func (f RecorderFunc) Record(outcome TestOutcome) {
	f(outcome)
}
