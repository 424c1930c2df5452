package code

import (
	"fmt"
	"log/slog"
)

// Logger is an optional interface for observability during code execution.
// Implementations can log block executions, test invocations, tool calls
// and timing information.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging must be best-effort; Logf should not panic.
// - Ownership: format/args are read-only.
type Logger interface {
	// Logf logs a formatted message.
	Logf(format string, args ...any)
}

// SlogLogger adapts a *slog.Logger to Logger. Messages are emitted at debug
// level so they only show when the handler is configured verbose.
type SlogLogger struct {
	L *slog.Logger
}

// Logf implements Logger.
func (s SlogLogger) Logf(format string, args ...any) {
	l := s.L
	if l == nil {
		l = slog.Default()
	}
	l.Debug(fmt.Sprintf(format, args...))
}
