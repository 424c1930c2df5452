package doctest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonwraymond/docexec/code"
	"github.com/jonwraymond/docexec/document"
)

const tracebackHeader = "Traceback (most recent call last):"

// Config configures the doctest extension.
type Config struct {
	// Executor runs examples. Required.
	Executor code.Executor

	// Language is the language examples are written in. Defaults to the
	// executor's default language.
	Language string

	// Flags are the comparison options every example starts with.
	Flags Flags

	// Recorder receives one outcome per example. Optional.
	Recorder code.Recorder

	// Logger is an optional logger for observability.
	Logger code.Logger
}

// Extension claims and runs interactive examples.
type Extension struct {
	cfg Config
}

// New creates a doctest extension.
func New(cfg Config) (*Extension, error) {
	if cfg.Executor == nil {
		return nil, fmt.Errorf("%w: doctest: missing required fields: Executor", code.ErrConfiguration)
	}
	return &Extension{cfg: cfg}, nil
}

// Name identifies the extension in failures.
func (e *Extension) Name() string { return "doctest" }

// Parse claims every example of doc that no earlier extension owns.
func (e *Extension) Parse(doc *document.Document) error {
	spans, err := findExamples(doc.Source)
	if err != nil {
		return fmt.Errorf("%s: %w", doc.Name, err)
	}
	for _, s := range spans {
		s.example.Line = doc.LineAt(s.start)
		if _, err := doc.Claim(s.start, s.end, s.example); err != nil {
			if errors.Is(err, document.ErrRegionClaimed) {
				continue
			}
			return err
		}
	}
	return nil
}

// Evaluate runs region if it holds an example and compares its output.
func (e *Extension) Evaluate(ctx context.Context, region *document.Region, doc *document.Document, ns *code.Namespace) error {
	ex, ok := region.Parsed.(*Example)
	if !ok {
		return nil
	}
	flags := ex.Flags(e.cfg.Flags)
	if flags&Skip != 0 {
		return nil
	}

	start := time.Now()
	res, err := e.cfg.Executor.ExecuteCode(ctx, code.ExecuteParams{
		Language:  e.cfg.Language,
		Code:      ex.Source,
		Filename:  doc.Name,
		FirstLine: ex.Line,
		Mode:      code.ModeInteractive,
	}, ns)

	failure := e.check(ex, flags, res.Stdout, err, doc.Name)
	outcome := code.TestOutcome{
		Document: doc.Name,
		Name:     fmt.Sprintf("doctest:%d", ex.Line),
		Line:     ex.Line,
		Passed:   failure == nil,
		Err:      failure,
		Stdout:   res.Stdout,
		Duration: time.Since(start),
	}
	region.Evaluated = &code.BlockResult{
		Bound:     res.Bound,
		Tests:     []code.TestOutcome{outcome},
		Stdout:    res.Stdout,
		ToolCalls: res.ToolCalls,
	}
	if e.cfg.Recorder != nil {
		e.cfg.Recorder.Record(outcome)
	}
	if e.cfg.Logger != nil {
		e.cfg.Logger.Logf("doctest %s:%d passed=%v", doc.Name, ex.Line, failure == nil)
	}
	return failure
}

// check compares the outcome of one example with its expectation.
func (e *Extension) check(ex *Example, flags Flags, got string, err error, docName string) error {
	if ex.ExpectsError() {
		if err == nil {
			return &MismatchError{Document: docName, Line: ex.Line, Source: ex.Source, Want: ex.Want, Got: got}
		}
		want := lastLine(ex.Want)
		msg := errorMessage(err)
		if Match(want, msg, flags) || strings.Contains(msg, want) {
			return nil
		}
		if _, detail, ok := strings.Cut(want, ": "); ok && Match(detail, msg, flags) {
			return nil
		}
		return &MismatchError{
			Document: docName,
			Line:     ex.Line,
			Source:   ex.Source,
			Want:     ex.Want,
			Got:      tracebackHeader + "\n" + msg + "\n",
		}
	}
	if err != nil {
		return err
	}
	if !Match(ex.Want, got, flags) {
		return &MismatchError{Document: docName, Line: ex.Line, Source: ex.Source, Want: ex.Want, Got: got}
	}
	return nil
}

// errorMessage returns the engine's message without position decoration.
func errorMessage(err error) string {
	var ce *code.CodeError
	if errors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}

func lastLine(s string) string {
	s = strings.TrimRight(s, "\n")
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
