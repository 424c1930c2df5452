// Package capture provides an extension that binds literal document text to
// a namespace name.
//
// A directive of the form
//
//	.. -> expected
//
// placed after an indented block binds the dedented text of that block to
// "expected" as a string, so later code blocks can compare against it:
//
//	.. code-block:: text
//
//	    hello, world
//
//	.. -> expected
//
// Only the directive line is claimed. The captured block itself stays
// wherever it was, claimed by another extension or left as prose.
package capture
