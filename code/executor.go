package code

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Executor is the main entry point for executing code snippets.
// It orchestrates configuration, limits, and result collection.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use across namespaces.
// - Context: must honor cancellation/deadlines; deadline exceeded is wrapped with ErrLimitExceeded.
// - Errors: unknown languages return ErrConfiguration; execution failures propagate.
// - Ownership: params are read-only; returned ExecuteResult is caller-owned.
type Executor interface {
	// ExecuteCode runs a code snippet against ns. It applies configuration
	// defaults, enforces limits, and collects tool call traces and output.
	ExecuteCode(ctx context.Context, params ExecuteParams, ns *Namespace) (ExecuteResult, error)

	// InvokeTest calls a zero-argument callable bound by a snippet in language.
	InvokeTest(ctx context.Context, language, name string, value any) (ExecuteResult, error)
}

// DefaultExecutor is the standard implementation of Executor.
type DefaultExecutor struct {
	cfg Config
}

// NewDefaultExecutor creates a new DefaultExecutor with the given configuration.
// Returns ErrConfiguration if any required field is missing.
func NewDefaultExecutor(cfg Config) (*DefaultExecutor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &DefaultExecutor{cfg: cfg}, nil
}

// Supports reports whether an engine is available for language.
func (e *DefaultExecutor) Supports(language string) bool {
	_, ok := e.cfg.resolve(e.language(language))
	return ok
}

// Callable reports whether value, bound by a snippet in language, can be
// invoked with no arguments.
func (e *DefaultExecutor) Callable(language string, value any) bool {
	eng, ok := e.cfg.resolve(e.language(language))
	return ok && eng.Callable(value)
}

// ExecuteCode runs a code snippet with the given parameters.
func (e *DefaultExecutor) ExecuteCode(ctx context.Context, params ExecuteParams, ns *Namespace) (ExecuteResult, error) {
	params.Language = e.language(params.Language)
	if params.Timeout == 0 {
		params.Timeout = e.cfg.DefaultTimeout
	}
	eng, ok := e.cfg.resolve(params.Language)
	if !ok {
		return ExecuteResult{}, fmt.Errorf("%w: no engine for language %q", ErrConfiguration, params.Language)
	}

	tools := newTools(&e.cfg, e.maxCalls(params.MaxToolCalls))

	var cancel context.CancelFunc
	if params.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, params.Timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := eng.Execute(ctx, params, ns, tools)
	duration := time.Since(start).Milliseconds()

	result.ToolCalls = tools.GetToolCalls()
	result.Stdout += tools.GetStdout()
	result.DurationMs = duration

	if e.cfg.Logger != nil {
		e.cfg.Logger.Logf("executed %s block %s:%d binding %d names with %d tool calls in %dms",
			params.Language, params.Filename, params.FirstLine, len(result.Bound), len(result.ToolCalls), duration)
	}

	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return result, fmt.Errorf("%w: timeout after %v", ErrLimitExceeded, params.Timeout)
	}
	return result, err
}

// InvokeTest calls value with no arguments under the default timeout.
func (e *DefaultExecutor) InvokeTest(ctx context.Context, language, name string, value any) (ExecuteResult, error) {
	language = e.language(language)
	eng, ok := e.cfg.resolve(language)
	if !ok {
		return ExecuteResult{}, fmt.Errorf("%w: no engine for language %q", ErrConfiguration, language)
	}

	tools := newTools(&e.cfg, e.maxCalls(0))

	var cancel context.CancelFunc
	if e.cfg.DefaultTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, e.cfg.DefaultTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := eng.Invoke(ctx, name, value, tools)
	duration := time.Since(start).Milliseconds()

	result.ToolCalls = tools.GetToolCalls()
	result.Stdout += tools.GetStdout()
	result.DurationMs = duration

	if e.cfg.Logger != nil {
		e.cfg.Logger.Logf("invoked %s in %dms (err=%v)", name, duration, err)
	}

	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return result, fmt.Errorf("%w: timeout after %v", ErrLimitExceeded, e.cfg.DefaultTimeout)
	}
	return result, err
}

func (e *DefaultExecutor) language(lang string) string {
	if lang == "" {
		return e.cfg.DefaultLanguage
	}
	return lang
}

// maxCalls resolves the per-execution limit, capped by config.
func (e *DefaultExecutor) maxCalls(requested int) int {
	maxCalls := requested
	if e.cfg.MaxToolCalls > 0 {
		if maxCalls == 0 || maxCalls > e.cfg.MaxToolCalls {
			maxCalls = e.cfg.MaxToolCalls
		}
	}
	return maxCalls
}
