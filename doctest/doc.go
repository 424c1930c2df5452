// Package doctest runs interactive examples embedded in documents and
// compares their output with the text that follows them.
//
//	>>> total = 2 + 3
//	>>> print(total)
//	5
//	>>> [x * 2 for x in range(40)]
//	[0, 2, 4, ...]
//
// Each example runs through the document's code.Executor in interactive
// mode against the shared namespace, so names defined by earlier examples
// and by code blocks are visible. Output comparison honors the [Ellipsis]
// and [NormalizeWhitespace] flags, per-example "# doctest: +FLAG" and
// "-FLAG" directives, and "<BLANKLINE>" markers. Both sides are normalised
// to Unicode NFC first.
//
// An example whose expected output starts with a traceback header expects
// the statement to fail; its last line is matched against the error.
package doctest
