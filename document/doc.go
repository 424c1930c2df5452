// Package document models a documentation source as an ordered sequence of
// regions that extensions claim and later evaluate.
//
// A [Document] starts as a single unclaimed region covering the whole
// source. Parsers call [Document.Claim] with byte spans; each claim splits the
// unclaimed region that contains it. A span overlapping an existing claim is
// refused with [ErrRegionClaimed], which gives parsers that run earlier the
// first refusal on ambiguous text.
//
// The payload stored in [Region.Parsed] tags the region's kind. Executable
// code blocks carry a [*CodeBlock] produced by [CodeBlockParser], which
// recognises reStructuredText code-block directives and Markdown fences.
package document
