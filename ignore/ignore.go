package ignore

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jonwraymond/docexec/code"
	"github.com/jonwraymond/docexec/document"
)

var markerRe = regexp.MustCompile(`(?m)^[ \t]*(?:\.\.[ \t]+ignore-next-block[ \t]*|<!--[ \t]*ignore-next-block[ \t]*-->[ \t]*)\r?$`)

// Ignored is the payload of a claimed marker and its block.
type Ignored struct {
	// Line is the document line of the marker.
	Line int

	// Block is the code block that was switched off.
	Block *document.CodeBlock
}

// Config configures the ignore extension.
type Config struct {
	// Parser selects which code blocks a marker can switch off. It should
	// match the options of the code evaluator.
	Parser document.ParserOptions

	// Logger is an optional logger for observability.
	Logger code.Logger
}

// Extension claims ignore markers and the blocks they precede.
type Extension struct {
	parser *document.CodeBlockParser
	logger code.Logger
}

// New creates an ignore extension.
func New(cfg Config) (*Extension, error) {
	p, err := document.NewCodeBlockParser(cfg.Parser)
	if err != nil {
		return nil, fmt.Errorf("%w: ignore: %v", code.ErrConfiguration, err)
	}
	return &Extension{parser: p, logger: cfg.Logger}, nil
}

// Name identifies the extension in failures.
func (e *Extension) Name() string { return "ignore" }

// Parse claims every marker and the first code block following it. A
// marker with no block after it is left alone.
func (e *Extension) Parse(doc *document.Document) error {
	for _, m := range markerRe.FindAllStringIndex(doc.Source, -1) {
		span, ok := e.parser.FindAfter(doc.Source, m[1])
		if !ok {
			continue
		}
		span.Block.Line = doc.LineAt(span.BodyStart)
		ig := &Ignored{Line: doc.LineAt(m[0]), Block: span.Block}
		if _, err := doc.Claim(m[0], span.End, ig); err != nil {
			if errors.Is(err, document.ErrRegionClaimed) {
				continue
			}
			return err
		}
	}
	return nil
}

// Evaluate does nothing beyond noting skipped blocks.
func (e *Extension) Evaluate(_ context.Context, region *document.Region, doc *document.Document, _ *code.Namespace) error {
	ig, ok := region.Parsed.(*Ignored)
	if !ok {
		return nil
	}
	if e.logger != nil {
		e.logger.Logf("ignoring %s block at %s:%d", ig.Block.Language, doc.Name, ig.Block.Line)
	}
	return nil
}
