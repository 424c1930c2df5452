package code

import (
	"errors"
	"fmt"
)

// Sentinel errors for error classification.
var (
	// ErrCodeExecution indicates an error during code snippet execution,
	// such as syntax errors or runtime exceptions in the snippet.
	ErrCodeExecution = errors.New("code execution error")

	// ErrTestFailed indicates that a discovered test function failed.
	ErrTestFailed = errors.New("test failed")

	// ErrConfiguration indicates an invalid or incomplete configuration.
	ErrConfiguration = errors.New("configuration error")

	// ErrLimitExceeded indicates that an execution limit was reached,
	// such as timeout or maximum tool calls.
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrToolNotFound indicates a tool ID that the index cannot resolve to a
	// local handler.
	ErrToolNotFound = errors.New("tool not found")
)

// CodeError represents an error that occurred during code snippet execution.
// It includes optional source location information for debugging.
type CodeError struct {
	// Message describes the error.
	Message string

	// Filename names the document the code came from, if known.
	Filename string

	// Line is the 1-based line number where the error occurred.
	// Zero indicates the line is unknown.
	Line int

	// Column is the 1-based column number where the error occurred.
	// Zero indicates the column is unknown.
	Column int

	// Backtrace is the engine's call stack rendering, if any.
	Backtrace string

	// Err is the underlying error, if any.
	Err error
}

// Error returns the error message, including line and column if available.
func (e *CodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d, col %d)", e.Message, e.Line, e.Column)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *CodeError) Unwrap() error {
	return e.Err
}

// Is reports whether this error matches the target.
// CodeError matches ErrCodeExecution to allow sentinel-style error checking.
func (e *CodeError) Is(target error) bool {
	return target == ErrCodeExecution
}

// InvocationError reports a test function that failed when invoked.
type InvocationError struct {
	// Test is the name the function was bound under.
	Test string

	// Line is the document line of the block that defined the test.
	Line int

	// Err is the failure raised by the function.
	Err error
}

func (e *InvocationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (block at line %d): %v", e.Test, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Test, e.Err)
}

// Unwrap returns the failure raised by the test.
func (e *InvocationError) Unwrap() error {
	return e.Err
}

// Is matches ErrTestFailed.
func (e *InvocationError) Is(target error) bool {
	return target == ErrTestFailed
}
