package exec

import (
	"github.com/jonwraymond/docexec/code"
	"github.com/jonwraymond/docexec/report"
	"github.com/jonwraymond/docexec/suite"
	"github.com/jonwraymond/tooldiscovery/index"
)

// Handler is the function signature for local host tools.
type Handler = code.Handler

// Result is the outcome of running one document.
type Result = suite.Result

// Results is the outcome of running several documents, in run order.
type Results []*Result

// Summary counts passes and failures across the results.
func (rs Results) Summary() report.Summary {
	return report.Summarize(rs)
}

// OK reports whether every document ran without a failure.
func (rs Results) OK() bool {
	for _, r := range rs {
		if !r.OK() {
			return false
		}
	}
	return true
}

// ToolSummary is an alias to index.Summary for search results.
type ToolSummary = index.Summary
