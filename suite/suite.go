package suite

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jonwraymond/docexec/code"
	"github.com/jonwraymond/docexec/document"
)

// Extension contributes one kind of test semantics to a suite.
//
// Contract:
// - Parse claims the regions the extension owns; spans already claimed are skipped.
// - Evaluate must ignore regions it does not own and return nil for them.
// - Evaluate may read and write ns; it is the only writer while it runs.
// - Errors are returned as-is; the suite never retries.
type Extension interface {
	// Name identifies the extension in failures.
	Name() string

	// Parse claims regions of doc.
	Parse(doc *document.Document) error

	// Evaluate processes one region.
	Evaluate(ctx context.Context, region *document.Region, doc *document.Document, ns *code.Namespace) error
}

// Suite is an ordered pipeline of extensions.
// Configure it before running documents; Run itself does not modify it.
type Suite struct {
	exts []Extension
	cfg  Config
}

// New creates an empty Suite.
func New(opts ...ConfigOption) *Suite {
	s := &Suite{}
	for _, opt := range opts {
		opt(&s.cfg)
	}
	return s
}

// AddExtension appends ext to the pipeline. Registration order is the order
// in which extensions parse and evaluate.
func (s *Suite) AddExtension(ext Extension) {
	s.exts = append(s.exts, ext)
}

// Extensions returns the registered extensions in order.
func (s *Suite) Extensions() []Extension {
	return append([]Extension(nil), s.exts...)
}

// Parse builds a document from source and lets every extension claim its
// regions.
func (s *Suite) Parse(name, source string) (*document.Document, error) {
	doc := document.New(name, source)
	for _, ext := range s.exts {
		if err := ext.Parse(doc); err != nil {
			return nil, fmt.Errorf("suite: %s: parse %s: %w", ext.Name(), name, err)
		}
	}
	return doc, nil
}

// Run offers every region of doc to every extension. A nil ns gets a fresh
// namespace. The returned Result is always non-nil; the error is the first
// region failure unless KeepGoing is set, or the context error.
func (s *Suite) Run(ctx context.Context, doc *document.Document, ns *code.Namespace) (*Result, error) {
	if ns == nil {
		ns = code.NewNamespace()
	}
	start := time.Now()
	res := &Result{Document: doc.Name}
	defer func() {
		res.Duration = time.Since(start)
		if s.cfg.Logger != nil {
			s.cfg.Logger.Logf("ran %s: %d regions, %d tests, %d failures in %v",
				doc.Name, res.Regions, len(res.Outcomes), len(res.Failures), res.Duration)
		}
	}()

	for _, region := range doc.Regions() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Regions++
		if _, ok := region.Parsed.(*document.CodeBlock); ok {
			res.CodeBlocks++
		}

		failure := s.evaluate(ctx, region, doc, ns)
		if br, ok := region.Evaluated.(*code.BlockResult); ok {
			res.Outcomes = append(res.Outcomes, br.Tests...)
		}
		if failure == nil {
			continue
		}
		res.Failures = append(res.Failures, failure)
		if !s.cfg.KeepGoing {
			return res, failure
		}
	}
	return res, nil
}

// evaluate offers region to each extension and stops at the first failure.
func (s *Suite) evaluate(ctx context.Context, region *document.Region, doc *document.Document, ns *code.Namespace) *RegionError {
	for _, ext := range s.exts {
		if err := ext.Evaluate(ctx, region, doc, ns); err != nil {
			return &RegionError{
				Document:  doc.Name,
				Line:      region.StartLine,
				Extension: ext.Name(),
				Err:       err,
			}
		}
	}
	return nil
}

// RunSource parses source and runs it with a fresh namespace.
func (s *Suite) RunSource(ctx context.Context, name, source string) (*Result, error) {
	doc, err := s.Parse(name, source)
	if err != nil {
		return &Result{Document: name}, err
	}
	return s.Run(ctx, doc, nil)
}

// RunFile reads path and runs it with a fresh namespace.
func (s *Suite) RunFile(ctx context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return &Result{Document: path}, fmt.Errorf("suite: %w", err)
	}
	return s.RunSource(ctx, path, string(data))
}
