// Package code executes the code blocks of a document and runs the test
// functions they define.
//
// code sits between the document model and a pluggable evaluation engine.
// Blocks run one after another against a single [Namespace] owned by the
// document run, so later blocks see what earlier blocks defined.
//
// # Architecture
//
// The package defines three main interfaces:
//
//   - [Engine]: The pluggable evaluation facility that executes source text
//     against a namespace, reports the names the source bound, and invokes
//     callables.
//
//   - [Executor]: Applies defaults and limits around an Engine and collects
//     output and tool-call traces.
//
//   - [Tools]: The host-tool environment exposed to snippets, providing
//     SearchTools, ListNamespaces, DescribeTool, ListToolExamples, RunTool
//     and Println.
//
// [Evaluator] is the region extension built on these: it claims code blocks
// while a document is parsed and, for each block, executes it, diffs the
// namespace, and invokes every newly bound callable whose name starts with
// the test prefix (default "test_").
//
// # Failures
//
// Nothing is suppressed. A block that fails to execute returns a [*CodeError]
// (matches [ErrCodeExecution]); a test function that fails returns an
// [*InvocationError] (matches [ErrTestFailed]) and the remaining tests of the
// block are not run. Timeouts are wrapped with [ErrLimitExceeded].
//
// # Namespace hygiene
//
// After a block executes, any binding the engine introduced that the source
// did not bind is removed, so the namespace holds only the names the
// documentation defined.
package code
