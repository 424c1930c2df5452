package code

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jonwraymond/docexec/document"
)

// Evaluator is the region extension that runs code blocks and the tests they
// define. It holds no per-document state; everything a document run shares
// lives in the Namespace passed to Evaluate.
type Evaluator struct {
	exec     *DefaultExecutor
	parser   *document.CodeBlockParser
	prefix   string
	recorder Recorder
	logger   Logger
}

// NewEvaluator creates an Evaluator with the given configuration.
// Returns ErrConfiguration if any required field is missing.
func NewEvaluator(cfg Config) (*Evaluator, error) {
	exec, err := NewDefaultExecutor(cfg)
	if err != nil {
		return nil, err
	}
	parser, err := document.NewCodeBlockParser(cfg.Parser)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return &Evaluator{
		exec:     exec,
		parser:   parser,
		prefix:   exec.cfg.TestPrefix,
		recorder: cfg.Recorder,
		logger:   cfg.Logger,
	}, nil
}

// Name identifies the extension in failures.
func (ev *Evaluator) Name() string { return "code" }

// Executor returns the executor the evaluator runs blocks through.
func (ev *Evaluator) Executor() *DefaultExecutor { return ev.exec }

// Parse claims the code blocks of doc that no earlier extension owns.
func (ev *Evaluator) Parse(doc *document.Document) error {
	return ev.parser.Parse(doc)
}

// Evaluate runs region if it holds a code block, then invokes each test
// function the block newly bound, in source order. Other regions are
// ignored. The first failing test stops the block and is returned as an
// *InvocationError.
func (ev *Evaluator) Evaluate(ctx context.Context, region *document.Region, doc *document.Document, ns *Namespace) error {
	block, ok := region.Parsed.(*document.CodeBlock)
	if !ok {
		return nil
	}
	if !ev.exec.Supports(block.Language) {
		if ev.logger != nil {
			ev.logger.Logf("skipping %s block at %s:%d: no engine", block.Language, doc.Name, block.Line)
		}
		return nil
	}

	before := ns.Snapshot()
	res, err := ev.exec.ExecuteCode(ctx, ExecuteParams{
		Language:  block.Language,
		Code:      block.Code,
		Filename:  doc.Name,
		FirstLine: block.Line,
		Mode:      ModeExec,
	}, ns)
	ev.scrub(block.Language, ns, before, res.Bound)

	result := &BlockResult{
		Bound:     res.Bound,
		Stdout:    res.Stdout,
		ToolCalls: res.ToolCalls,
	}
	region.Evaluated = result
	if err != nil {
		return err
	}

	for _, name := range newBindings(before, res.Bound, ns) {
		if !strings.HasPrefix(name, ev.prefix) {
			continue
		}
		value, _ := ns.Get(name)
		if !ev.exec.Callable(block.Language, value) {
			continue
		}

		start := time.Now()
		out, err := ev.exec.InvokeTest(ctx, block.Language, name, value)
		outcome := TestOutcome{
			Document: doc.Name,
			Name:     name,
			Line:     block.Line,
			Passed:   err == nil,
			Err:      err,
			Stdout:   out.Stdout,
			Duration: time.Since(start),
		}
		result.Tests = append(result.Tests, outcome)
		result.ToolCalls = append(result.ToolCalls, out.ToolCalls...)
		if ev.recorder != nil {
			ev.recorder.Record(outcome)
		}
		if err != nil {
			return &InvocationError{Test: name, Line: block.Line, Err: err}
		}
	}
	return nil
}

// scrub deletes helper names the engine injected, so ns only holds what
// snippets bound.
func (ev *Evaluator) scrub(language string, ns *Namespace, before map[string]struct{}, bound []string) {
	eng, ok := ev.exec.cfg.resolve(ev.exec.language(language))
	if !ok {
		return
	}
	inj, ok := eng.(ScopeInjector)
	if !ok {
		return
	}
	keep := make(map[string]struct{}, len(bound))
	for _, name := range bound {
		keep[name] = struct{}{}
	}
	for _, name := range inj.Injected() {
		if _, existed := before[name]; existed {
			continue
		}
		if _, user := keep[name]; user {
			continue
		}
		ns.Delete(name)
	}
}

// newBindings returns the names bound since before: the engine-reported
// names in source order first, then any others sorted.
func newBindings(before map[string]struct{}, bound []string, ns *Namespace) []string {
	seen := make(map[string]bool)
	var names []string
	for _, name := range bound {
		if _, old := before[name]; old || seen[name] || !ns.Has(name) {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}

	var rest []string
	for _, name := range ns.Keys() {
		if _, old := before[name]; old || seen[name] {
			continue
		}
		rest = append(rest, name)
	}
	sort.Strings(rest)
	return append(names, rest...)
}
