package document

import "strings"

// Line is one line of a source text.
type Line struct {
	// Start is the offset of the first byte of the line.
	Start int

	// Next is the offset just past the line terminator (or the end of the
	// source for the last line).
	Next int

	// Text is the line content without the terminator or a trailing '\r'.
	Text string
}

// SplitLines splits src into lines, tolerating CRLF terminators.
func SplitLines(src string) []Line {
	var lines []Line
	start := 0
	for start < len(src) {
		end := strings.IndexByte(src[start:], '\n')
		next := len(src)
		if end < 0 {
			end = len(src)
		} else {
			end += start
			next = end + 1
		}
		lines = append(lines, Line{
			Start: start,
			Next:  next,
			Text:  strings.TrimSuffix(src[start:end], "\r"),
		})
		start = next
	}
	return lines
}

// LineIndex returns the index of the first line starting at or after offset.
func LineIndex(lines []Line, offset int) int {
	for i, l := range lines {
		if l.Start >= offset {
			return i
		}
	}
	return len(lines)
}

// IsBlank reports whether s holds only whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Indent returns the leading whitespace of s.
func Indent(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}

// Dedent removes the longest whitespace prefix common to every non-blank
// line, drops trailing blank lines, and joins the result with '\n'. The
// output ends with a newline unless it is empty.
func Dedent(texts []string) string {
	for len(texts) > 0 && IsBlank(texts[len(texts)-1]) {
		texts = texts[:len(texts)-1]
	}
	if len(texts) == 0 {
		return ""
	}

	prefix := ""
	first := true
	for _, t := range texts {
		if IsBlank(t) {
			continue
		}
		ind := Indent(t)
		if first {
			prefix, first = ind, false
			continue
		}
		for !strings.HasPrefix(ind, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}

	var b strings.Builder
	for _, t := range texts {
		if IsBlank(t) {
			b.WriteByte('\n')
			continue
		}
		b.WriteString(strings.TrimPrefix(t, prefix))
		b.WriteByte('\n')
	}
	return b.String()
}
