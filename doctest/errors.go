package doctest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMismatch matches every *MismatchError.
var ErrMismatch = errors.New("doctest output mismatch")

// MismatchError reports an example whose output differed from the
// expected output.
type MismatchError struct {
	Document string
	Line     int
	Source   string
	Want     string
	Got      string
}

func (e *MismatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%d: example failed\n", e.Document, e.Line)
	b.WriteString(indent("    ", e.Source))
	b.WriteString("Expected:\n")
	if e.Want == "" {
		b.WriteString("    Nothing\n")
	} else {
		b.WriteString(indent("    ", e.Want))
	}
	b.WriteString("Got:\n")
	if e.Got == "" {
		b.WriteString("    Nothing\n")
	} else {
		b.WriteString(indent("    ", e.Got))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Is matches ErrMismatch.
func (e *MismatchError) Is(target error) bool {
	return target == ErrMismatch
}

func indent(prefix, text string) string {
	lines := strings.SplitAfter(strings.TrimSuffix(text, "\n"), "\n")
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(prefix)
		b.WriteString(strings.TrimSuffix(l, "\n"))
		b.WriteByte('\n')
	}
	return b.String()
}
