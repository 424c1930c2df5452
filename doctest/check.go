package doctest

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Flags select output comparison options.
type Flags uint

const (
	// Ellipsis lets "..." in the expected output match any text.
	Ellipsis Flags = 1 << iota

	// NormalizeWhitespace treats every run of whitespace as one space.
	NormalizeWhitespace

	// Skip turns an example off.
	Skip
)

var flagNames = map[string]Flags{
	"ELLIPSIS":             Ellipsis,
	"NORMALIZE_WHITESPACE": NormalizeWhitespace,
	"SKIP":                 Skip,
}

// ParseFlag returns the flag named name, as spelled in directives.
func ParseFlag(name string) (Flags, error) {
	f, ok := flagNames[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("doctest: unknown option %q", name)
	}
	return f, nil
}

func (f Flags) String() string {
	var names []string
	for _, n := range []string{"ELLIPSIS", "NORMALIZE_WHITESPACE", "SKIP"} {
		if f&flagNames[n] != 0 {
			names = append(names, n)
		}
	}
	return strings.Join(names, "|")
}

// Match reports whether got satisfies want under flags.
func Match(want, got string, flags Flags) bool {
	want = norm.NFC.String(want)
	got = norm.NFC.String(got)
	if want == got {
		return true
	}
	if flags&NormalizeWhitespace != 0 {
		want = strings.Join(strings.Fields(want), " ")
		got = strings.Join(strings.Fields(got), " ")
		if want == got {
			return true
		}
	}
	if flags&Ellipsis != 0 {
		return ellipsisMatch(want, got)
	}
	return false
}

// ellipsisMatch matches want against got where each "..." in want stands
// for any run of text, including none.
func ellipsisMatch(want, got string) bool {
	if !strings.Contains(want, "...") {
		return want == got
	}
	pieces := strings.Split(want, "...")
	first, last := pieces[0], pieces[len(pieces)-1]
	if !strings.HasPrefix(got, first) {
		return false
	}
	got = got[len(first):]
	if !strings.HasSuffix(got, last) || len(got) < len(last) {
		return false
	}
	got = got[:len(got)-len(last)]
	for _, p := range pieces[1 : len(pieces)-1] {
		i := strings.Index(got, p)
		if i < 0 {
			return false
		}
		got = got[i+len(p):]
	}
	return true
}
