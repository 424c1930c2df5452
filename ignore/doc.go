// Package ignore provides an extension that switches off the next code
// block of a document.
//
// A marker line, either
//
//	.. ignore-next-block
//
// in reStructuredText or
//
//	<!-- ignore-next-block -->
//
// in Markdown, claims itself together with the first code block after it.
// Because the ignore extension parses before the code evaluator, the block
// is never seen by anything else and evaluating it does nothing.
package ignore
