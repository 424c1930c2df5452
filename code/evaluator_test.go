package code

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jonwraymond/docexec/document"
)

func newTestEvaluator(t *testing.T, engine *scriptEngine, rec Recorder) *Evaluator {
	t.Helper()
	ev, err := NewEvaluator(Config{Engine: engine, Recorder: rec})
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}
	return ev
}

// fence wraps script lines in a python code fence.
func fence(lines ...string) string {
	return "```python\n" + strings.Join(lines, "\n") + "\n```\n"
}

// runDoc parses src and evaluates every region in order, stopping at the
// first error.
func runDoc(t *testing.T, ev *Evaluator, src string, ns *Namespace) (*document.Document, error) {
	t.Helper()
	doc := document.New("doc.md", src)
	if err := ev.Parse(doc); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	for _, r := range doc.Regions() {
		if err := ev.Evaluate(context.Background(), r, doc, ns); err != nil {
			return doc, err
		}
	}
	return doc, nil
}

func TestEvaluator_NoCodeBlocks(t *testing.T) {
	engine := &scriptEngine{}
	ev := newTestEvaluator(t, engine, nil)
	ns := NewNamespace()
	ns.Set("existing", 1)

	if _, err := runDoc(t, ev, "# Title\n\nJust prose.\n", ns); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"existing"}, ns.Keys()); diff != "" {
		t.Errorf("namespace changed (-want +got):\n%s", diff)
	}
	if len(engine.executeCalls) != 0 {
		t.Errorf("expected no executions, got %d", len(engine.executeCalls))
	}
}

func TestEvaluator_NonTestNameBindsWithoutInvocation(t *testing.T) {
	engine := &scriptEngine{}
	ev := newTestEvaluator(t, engine, nil)
	ns := NewNamespace()

	if _, err := runDoc(t, ev, fence("greeting = hello", "test helper"), ns); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := ns.Get("greeting"); v != "hello" {
		t.Errorf("greeting = %v, want hello", v)
	}
	if got := engine.invocations(); len(got) != 0 {
		t.Errorf("expected no invocations, got %v", got)
	}
}

func TestEvaluator_InvokesPassingTestOnce(t *testing.T) {
	engine := &scriptEngine{}
	var outcomes []TestOutcome
	ev := newTestEvaluator(t, engine, RecorderFunc(func(o TestOutcome) { outcomes = append(outcomes, o) }))
	ns := NewNamespace()

	doc, err := runDoc(t, ev, fence("x = 2", "test test_positive"), ns)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"test_positive"}, engine.invocations()); diff != "" {
		t.Errorf("invocations mismatch (-want +got):\n%s", diff)
	}
	if len(outcomes) != 1 || !outcomes[0].Passed || outcomes[0].Name != "test_positive" {
		t.Fatalf("unexpected outcomes: %+v", outcomes)
	}
	if outcomes[0].Line != 2 || outcomes[0].Document != "doc.md" {
		t.Errorf("outcome position = %s:%d, want doc.md:2", outcomes[0].Document, outcomes[0].Line)
	}

	var block *BlockResult
	for _, r := range doc.Regions() {
		if br, ok := r.Evaluated.(*BlockResult); ok {
			block = br
		}
	}
	if block == nil {
		t.Fatal("expected a BlockResult on the code region")
	}
	if diff := cmp.Diff([]string{"x", "test_positive"}, block.Bound); diff != "" {
		t.Errorf("Bound mismatch (-want +got):\n%s", diff)
	}
	if block.Tests[0].Stdout != "running test_positive\n" {
		t.Errorf("test stdout = %q", block.Tests[0].Stdout)
	}
}

func TestEvaluator_FailingTestStopsBlock(t *testing.T) {
	engine := &scriptEngine{}
	ev := newTestEvaluator(t, engine, nil)
	ns := NewNamespace()

	_, err := runDoc(t, ev, "intro\n\n"+fence("test test_fail fail boom", "test test_later"), ns)
	if !errors.Is(err, ErrTestFailed) {
		t.Fatalf("error = %v, want ErrTestFailed", err)
	}
	var invErr *InvocationError
	if !errors.As(err, &invErr) {
		t.Fatalf("expected *InvocationError, got %T", err)
	}
	if invErr.Test != "test_fail" {
		t.Errorf("Test = %q, want test_fail", invErr.Test)
	}
	if invErr.Line != 4 {
		t.Errorf("Line = %d, want 4", invErr.Line)
	}
	if invErr.Err.Error() != "boom" {
		t.Errorf("underlying error = %v, want boom", invErr.Err)
	}
	if diff := cmp.Diff([]string{"test_fail"}, engine.invocations()); diff != "" {
		t.Errorf("test_later must not run (-want +got):\n%s", diff)
	}
}

func TestEvaluator_SourceOrderInvocation(t *testing.T) {
	engine := &scriptEngine{}
	ev := newTestEvaluator(t, engine, nil)

	_, err := runDoc(t, ev, fence("test test_zeta", "test test_alpha", "test test_mid"), NewNamespace())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"test_zeta", "test_alpha", "test_mid"}
	if diff := cmp.Diff(want, engine.invocations()); diff != "" {
		t.Errorf("invocation order mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluator_OrderIsLoadBearing(t *testing.T) {
	define := fence("x = 1")
	use := fence("use x")

	t.Run("define then use", func(t *testing.T) {
		ev := newTestEvaluator(t, &scriptEngine{}, nil)
		if _, err := runDoc(t, ev, define+"\n"+use, NewNamespace()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("use then define", func(t *testing.T) {
		ev := newTestEvaluator(t, &scriptEngine{}, nil)
		_, err := runDoc(t, ev, use+"\n"+define, NewNamespace())
		if !errors.Is(err, ErrCodeExecution) {
			t.Fatalf("error = %v, want ErrCodeExecution", err)
		}
		if !strings.Contains(err.Error(), "undefined: x") {
			t.Errorf("error = %v, want name-resolution failure", err)
		}
	})
}

func TestEvaluator_NamespaceHygiene(t *testing.T) {
	engine := &scriptEngine{}
	leaked := NewNamespace()
	if _, err := engine.Execute(context.Background(), ExecuteParams{Code: "a = 1"}, leaked, nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !leaked.Has("__scope__") {
		t.Fatal("engine should leave its injected binding behind")
	}

	ev := newTestEvaluator(t, engine, nil)
	ns := NewNamespace()
	ns.Set("prior", true)

	if _, err := runDoc(t, ev, fence("a = 1", "test test_a"), ns); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a", "prior", "test_a"}
	if diff := cmp.Diff(want, ns.Keys()); diff != "" {
		t.Errorf("namespace keys mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluator_HygieneAfterExecutionError(t *testing.T) {
	ev := newTestEvaluator(t, &scriptEngine{}, nil)
	ns := NewNamespace()

	_, err := runDoc(t, ev, fence("a = 1", "raise nope"), ns)
	if !errors.Is(err, ErrCodeExecution) {
		t.Fatalf("error = %v, want ErrCodeExecution", err)
	}
	if ns.Has("__scope__") {
		t.Error("injected binding left in namespace after failure")
	}
}

func TestEvaluator_UserRebindingInjectedNameSurvives(t *testing.T) {
	ev := newTestEvaluator(t, &scriptEngine{}, nil)
	ns := NewNamespace()

	if _, err := runDoc(t, ev, fence("__scope__ = mine"), ns); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := ns.Get("__scope__"); v != "mine" {
		t.Errorf("__scope__ = %v, want the user's value", v)
	}
}

func TestEvaluator_ExistingTestsNotReinvoked(t *testing.T) {
	engine := &scriptEngine{}
	ev := newTestEvaluator(t, engine, nil)
	ns := NewNamespace()

	src := fence("test test_once") + "\n" + fence("use test_once", "test test_twice")
	if _, err := runDoc(t, ev, src, ns); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"test_once", "test_twice"}, engine.invocations()); diff != "" {
		t.Errorf("invocations mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluator_NonCallableTestNameSkipped(t *testing.T) {
	engine := &scriptEngine{}
	ev := newTestEvaluator(t, engine, nil)

	if _, err := runDoc(t, ev, fence("test_data = 42"), NewNamespace()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := engine.invocations(); len(got) != 0 {
		t.Errorf("expected no invocations, got %v", got)
	}
}

func TestEvaluator_CustomPrefix(t *testing.T) {
	engine := &scriptEngine{}
	ev, err := NewEvaluator(Config{Engine: engine, TestPrefix: "check_"})
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}
	if _, err := runDoc(t, ev, fence("test test_a", "test check_b"), NewNamespace()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"check_b"}, engine.invocations()); diff != "" {
		t.Errorf("invocations mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluator_SkipsLanguageWithoutEngine(t *testing.T) {
	engine := &scriptEngine{}
	logger := &mockLogger{}
	ev, err := NewEvaluator(Config{
		Resolver: mockResolver{"starlark": engine},
		Parser:   document.ParserOptions{Languages: []string{"python", "starlark"}},
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}
	src := fence("x = 1") + "\n```starlark\ny = 2\n```\n"
	ns := NewNamespace()
	if _, err := runDoc(t, ev, src, ns); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ns.Has("x") || !ns.Has("y") {
		t.Errorf("expected only the starlark block to run, keys = %v", ns.Keys())
	}
	if len(logger.messages) == 0 || !strings.Contains(logger.messages[0], "skipping python block") {
		t.Errorf("expected a skip log, got %v", logger.messages)
	}
}

func TestEvaluator_PassesDocumentPosition(t *testing.T) {
	engine := &scriptEngine{}
	ev := newTestEvaluator(t, engine, nil)

	if _, err := runDoc(t, ev, "line one\nline two\n"+fence("x = 1"), NewNamespace()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := engine.executeCalls[0]
	if p.Filename != "doc.md" || p.FirstLine != 4 || p.Mode != ModeExec {
		t.Errorf("params = %+v", p)
	}
}

func TestNewEvaluator_InvalidConfig(t *testing.T) {
	if _, err := NewEvaluator(Config{}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
	pattern := regexp.MustCompile(`\.\. sourcecode::`)
	_, err := NewEvaluator(Config{
		Engine: &scriptEngine{},
		Parser: document.ParserOptions{StartPattern: pattern},
	})
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration for pattern without groups", err)
	}
}
