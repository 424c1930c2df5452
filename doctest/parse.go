package doctest

import (
	"regexp"
	"strings"

	"github.com/jonwraymond/docexec/document"
)

const blankLineMarker = "<BLANKLINE>"

var (
	promptRe    = regexp.MustCompile(`^([ \t]*)>>>(?: (.*))?$`)
	directiveRe = regexp.MustCompile(`#\s*doctest:\s*([^\n'"]*)$`)
)

// Example is one interactive statement and its expected output.
type Example struct {
	// Source is the statement without prompts.
	Source string

	// Want is the expected output. Empty means no output.
	Want string

	// Line is the document line of the first prompt.
	Line int

	// Enable and Disable hold the flags the example's directives turn on
	// and off.
	Enable  Flags
	Disable Flags
}

// Flags returns the effective flags given the suite-wide defaults.
func (ex *Example) Flags(defaults Flags) Flags {
	return (defaults | ex.Enable) &^ ex.Disable
}

// ExpectsError reports whether the expected output is a traceback.
func (ex *Example) ExpectsError() bool {
	return strings.HasPrefix(ex.Want, "Traceback (most recent call last):")
}

// span is an example located in a source text.
type span struct {
	start, end int
	example    *Example
}

// findExamples returns the examples of src in source order.
func findExamples(src string) ([]span, error) {
	lines := document.SplitLines(src)
	var spans []span
	for i := 0; i < len(lines); i++ {
		m := promptRe.FindStringSubmatch(lines[i].Text)
		if m == nil {
			continue
		}
		indent := m[1]
		start := i

		source := []string{m[2]}
		for i+1 < len(lines) {
			next := lines[i+1].Text
			rest, ok := strings.CutPrefix(next, indent+"...")
			if !ok || (rest != "" && !strings.HasPrefix(rest, " ")) {
				break
			}
			source = append(source, strings.TrimPrefix(rest, " "))
			i++
		}

		var want []string
		for i+1 < len(lines) {
			next := lines[i+1].Text
			if document.IsBlank(next) || promptRe.MatchString(next) || !strings.HasPrefix(next, indent) {
				break
			}
			text := strings.TrimPrefix(next, indent)
			if strings.TrimSpace(text) == blankLineMarker {
				text = ""
			}
			want = append(want, text)
			i++
		}

		ex := &Example{
			Source: strings.Join(source, "\n") + "\n",
		}
		if len(want) > 0 {
			ex.Want = strings.Join(want, "\n") + "\n"
		}
		if err := parseDirectives(ex, source); err != nil {
			return nil, err
		}
		spans = append(spans, span{start: lines[start].Start, end: lines[i].Next, example: ex})
	}
	return spans, nil
}

func parseDirectives(ex *Example, source []string) error {
	for _, line := range source {
		m := directiveRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		for _, opt := range strings.FieldsFunc(m[1], func(r rune) bool { return r == ',' || r == ' ' || r == '\t' }) {
			if len(opt) < 2 || (opt[0] != '+' && opt[0] != '-') {
				continue
			}
			f, err := ParseFlag(opt[1:])
			if err != nil {
				return err
			}
			if opt[0] == '+' {
				ex.Enable |= f
			} else {
				ex.Disable |= f
			}
		}
	}
	return nil
}
