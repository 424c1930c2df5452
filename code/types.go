package code

import "time"

// ToolCallRecord captures information about a single tool invocation during
// code execution. It records the tool identifier, arguments, result, and
// timing information for observability and debugging.
type ToolCallRecord struct {
	// ToolID is the canonical identifier of the tool that was called.
	ToolID string `json:"toolId"`

	// Args contains the arguments passed to the tool.
	Args map[string]any `json:"args,omitempty"`

	// Structured contains the structured result from a successful tool execution.
	Structured any `json:"structured,omitempty"`

	// BackendKind indicates which backend executed the tool (mcp, provider, local).
	BackendKind string `json:"backendKind,omitempty"`

	// Error contains the error message if the tool call failed.
	Error string `json:"error,omitempty"`

	// DurationMs is the execution time in milliseconds.
	DurationMs int64 `json:"durationMs"`
}

// Mode selects how an engine treats the source text.
type Mode int

const (
	// ModeExec runs the source as a module chunk.
	ModeExec Mode = iota

	// ModeInteractive runs the source like a REPL line: the value of a
	// trailing expression is echoed to stdout unless it is None.
	ModeInteractive
)

func (m Mode) String() string {
	switch m {
	case ModeInteractive:
		return "interactive"
	default:
		return "exec"
	}
}

// ExecuteParams specifies the parameters for executing a code snippet.
type ExecuteParams struct {
	// Language specifies the language of the snippet.
	// If empty, the executor's default language is used.
	Language string `json:"language"`

	// Code is the source code to execute.
	Code string `json:"code"`

	// Filename names the document the code came from, for diagnostics.
	Filename string `json:"filename,omitempty"`

	// FirstLine is the document line of the first line of Code. Engines add
	// it to snippet-relative positions. Zero means positions stay relative.
	FirstLine int `json:"firstLine,omitempty"`

	// Mode selects module or interactive execution.
	Mode Mode `json:"mode"`

	// Timeout specifies the maximum duration for execution.
	// If zero, the executor's default timeout is used.
	Timeout time.Duration `json:"timeout"`

	// MaxToolCalls limits the number of tool invocations allowed.
	// If zero, the executor's configured limit applies (or unlimited if none).
	MaxToolCalls int `json:"maxToolCalls,omitempty"`
}

// ExecuteResult contains the outcome of executing a code snippet.
type ExecuteResult struct {
	// Bound lists the names the source bound at top level, in source order.
	Bound []string `json:"bound,omitempty"`

	// Value is the value of a trailing expression in interactive mode, or the
	// return value of an invocation.
	Value any `json:"value,omitempty"`

	// Stdout contains any output written via print or Println.
	Stdout string `json:"stdout,omitempty"`

	// Stderr contains any error output from the execution.
	Stderr string `json:"stderr,omitempty"`

	// ToolCalls records all tool invocations made during execution.
	ToolCalls []ToolCallRecord `json:"toolCalls,omitempty"`

	// DurationMs is the total execution time in milliseconds.
	DurationMs int64 `json:"durationMs"`
}
