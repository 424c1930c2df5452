package code

import "context"

// Engine is the pluggable evaluation facility that runs code blocks against
// a shared namespace. Implementations are responsible for parsing and
// executing source text in the languages they register for.
//
// The Engine should:
//   - Read existing bindings from the namespace and write every top-level
//     binding of the source back into it
//   - Report the names the source bound, in source order, in ExecuteResult.Bound
//   - Remove any helper binding it injected before returning
//   - Wrap execution errors in CodeError with line/column info when available
//
// Contract:
// - Concurrency: a namespace is used by one goroutine at a time; engines may
//   serve several documents concurrently.
// - Context: must honor cancellation/deadlines and return ctx.Err() when canceled.
// - Errors: execution failures should return CodeError where possible; callers use errors.Is.
// - Ownership: params are read-only; the namespace is mutated in place.
type Engine interface {
	// Execute runs source text against the namespace with access to the
	// tools environment. tools may be nil.
	Execute(ctx context.Context, params ExecuteParams, ns *Namespace, tools Tools) (ExecuteResult, error)

	// Callable reports whether value can be invoked with no arguments.
	Callable(value any) bool

	// Invoke calls value with no arguments. name is used in diagnostics.
	// Tool calls and output made by the callee go through tools, which may
	// be nil.
	Invoke(ctx context.Context, name string, value any, tools Tools) (ExecuteResult, error)
}

// EngineResolver selects an Engine for a block language.
type EngineResolver interface {
	// Resolve returns the engine registered for language.
	Resolve(language string) (Engine, bool)
}

// ScopeInjector is implemented by engines that bind helper names into the
// namespace while a snippet runs. After execution the Evaluator deletes any
// of these names that were not bound before and that the snippet did not
// bind itself.
type ScopeInjector interface {
	Injected() []string
}
