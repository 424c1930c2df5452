package capture

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jonwraymond/docexec/code"
	"github.com/jonwraymond/docexec/document"
)

var directiveRe = regexp.MustCompile(`(?m)^([ \t]*)\.\.[ \t]*->[ \t]*([A-Za-z_]\w*)[ \t]*\r?$\n?`)

// ErrNothingCaptured is returned when a directive has no indented block
// before it.
var ErrNothingCaptured = errors.New("nothing to capture")

// Capture is the payload of a claimed directive.
type Capture struct {
	// Name is the namespace name the text is bound to.
	Name string

	// Line is the document line of the directive.
	Line int

	// Indent is the directive's leading whitespace. Captured lines must be
	// indented further.
	Indent string

	// Text is the captured text, filled in by Evaluate.
	Text string
}

// Extension claims capture directives.
type Extension struct {
	logger code.Logger
}

// New creates a capture extension. The logger is optional.
func New(logger code.Logger) *Extension {
	return &Extension{logger: logger}
}

// Name identifies the extension in failures.
func (e *Extension) Name() string { return "capture" }

// Parse claims every capture directive of doc.
func (e *Extension) Parse(doc *document.Document) error {
	for _, m := range directiveRe.FindAllStringSubmatchIndex(doc.Source, -1) {
		c := &Capture{
			Name:   doc.Source[m[4]:m[5]],
			Line:   doc.LineAt(m[0]),
			Indent: doc.Source[m[2]:m[3]],
		}
		if _, err := doc.Claim(m[0], m[1], c); err != nil {
			if errors.Is(err, document.ErrRegionClaimed) {
				continue
			}
			return err
		}
	}
	return nil
}

// Evaluate binds the block before a directive region to its name.
func (e *Extension) Evaluate(_ context.Context, region *document.Region, doc *document.Document, ns *code.Namespace) error {
	c, ok := region.Parsed.(*Capture)
	if !ok {
		return nil
	}
	prev := doc.Previous(region)
	if prev == nil {
		return fmt.Errorf("%w for %q at %s:%d", ErrNothingCaptured, c.Name, doc.Name, c.Line)
	}
	text, ok := trailingBlock(prev.Source, c.Indent)
	if !ok {
		return fmt.Errorf("%w for %q at %s:%d", ErrNothingCaptured, c.Name, doc.Name, c.Line)
	}

	c.Text = text
	ns.Set(c.Name, text)
	region.Evaluated = text
	if e.logger != nil {
		e.logger.Logf("captured %d bytes into %s at %s:%d", len(text), c.Name, doc.Name, c.Line)
	}
	return nil
}

// trailingBlock returns the dedented block at the end of src whose lines
// are indented deeper than indent.
func trailingBlock(src, indent string) (string, bool) {
	lines := document.SplitLines(src)
	end := len(lines)
	for end > 0 && document.IsBlank(lines[end-1].Text) {
		end--
	}
	start := end
	for start > 0 {
		t := lines[start-1].Text
		if !document.IsBlank(t) && len(document.Indent(t)) <= len(indent) {
			break
		}
		start--
	}
	for start < end && document.IsBlank(lines[start].Text) {
		start++
	}
	if start == end {
		return "", false
	}

	texts := make([]string, 0, end-start)
	for _, l := range lines[start:end] {
		texts = append(texts, l.Text)
	}
	return document.Dedent(texts), true
}
