package suite

import (
	"fmt"
	"time"

	"github.com/jonwraymond/docexec/code"
)

// RegionError reports a region whose evaluation failed.
type RegionError struct {
	// Document names the document.
	Document string

	// Line is the first line of the failing region.
	Line int

	// Extension names the extension that failed.
	Extension string

	// Err is the failure the extension returned.
	Err error
}

func (e *RegionError) Error() string {
	return fmt.Sprintf("%s:%d: %s: %v", e.Document, e.Line, e.Extension, e.Err)
}

// Unwrap returns the extension's failure.
func (e *RegionError) Unwrap() error {
	return e.Err
}

// Result summarizes one document run.
type Result struct {
	// Document names the document.
	Document string

	// Outcomes holds every test outcome recorded on regions, in order.
	Outcomes []code.TestOutcome

	// Failures holds the region failures. Without KeepGoing there is at
	// most one.
	Failures []*RegionError

	// Regions is the number of regions visited.
	Regions int

	// CodeBlocks is the number of code-block regions visited.
	CodeBlocks int

	// Duration is how long the run took.
	Duration time.Duration
}

// OK reports whether the document ran without a failure.
func (r *Result) OK() bool {
	return len(r.Failures) == 0
}

// Passed returns the number of passing test outcomes.
func (r *Result) Passed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Passed {
			n++
		}
	}
	return n
}

// Failed returns the number of failing test outcomes.
func (r *Result) Failed() int {
	return len(r.Outcomes) - r.Passed()
}
