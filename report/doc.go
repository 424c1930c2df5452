// Package report renders suite results for people and machines.
//
// [Write] supports three formats: a terminal table, a GitHub-flavoured
// Markdown table, and JSON. Tables carry one row per test outcome plus one
// row per failure that no outcome accounts for (a block that failed to
// execute, a capture with nothing to capture), and a footer with totals.
package report
