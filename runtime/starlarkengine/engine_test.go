package starlarkengine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.starlark.net/starlark"

	"github.com/jonwraymond/docexec/code"
)

func exec(t *testing.T, e *Engine, ns *code.Namespace, src string) (code.ExecuteResult, error) {
	t.Helper()
	return e.Execute(context.Background(), code.ExecuteParams{Code: src, Filename: "doc.md"}, ns, nil)
}

func TestEngine_ImplementsInterfaces(t *testing.T) {
	t.Helper()
	var _ code.Engine = (*Engine)(nil)
	var _ code.ScopeInjector = (*Engine)(nil)
}

func TestExecute_BindsInSourceOrder(t *testing.T) {
	e := New(Config{})
	ns := code.NewNamespace()

	src := "zeta = 1\ndef test_b():\n    pass\nalpha, (beta, gamma) = 2, (3, 4)\nload_like = [i for i in range(3)]\nfor k in [1]:\n    last = k\n"
	res, err := exec(t, e, ns, src)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	want := []string{"zeta", "test_b", "alpha", "beta", "gamma", "load_like", "k", "last"}
	if diff := cmp.Diff(want, res.Bound); diff != "" {
		t.Errorf("Bound mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"alpha", "beta", "gamma", "k", "last", "load_like", "test_b", "zeta"}, ns.Keys()); diff != "" {
		t.Errorf("namespace keys mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_SharedMutableNamespace(t *testing.T) {
	e := New(Config{})
	ns := code.NewNamespace()

	if _, err := exec(t, e, ns, "items = [1]\n"); err != nil {
		t.Fatalf("first block: %v", err)
	}
	if _, err := exec(t, e, ns, "items.append(2)\ncount = len(items)\n"); err != nil {
		t.Fatalf("second block: %v", err)
	}
	v, _ := ns.Get("count")
	if !isInt(v, 2) {
		t.Errorf("count = %v, want 2", v)
	}
}

func TestExecute_HelpersNotLeaked(t *testing.T) {
	e := New(Config{})
	ns := code.NewNamespace()

	res, err := exec(t, e, ns, "s = json.encode({'a': 1})\nassert.eq(s, '{\"a\":1}')\nr = math.sqrt(4)\n")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if diff := cmp.Diff([]string{"r", "s"}, ns.Keys()); diff != "" {
		t.Errorf("namespace keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"s", "r"}, res.Bound); diff != "" {
		t.Errorf("Bound mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_UserBindingShadowsHelper(t *testing.T) {
	e := New(Config{})
	ns := code.NewNamespace()
	ns.Set("json", "mine")

	if _, err := exec(t, e, ns, "kind = type(json)\n"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if v, _ := ns.Get("kind"); v != starlark.String("string") {
		t.Errorf("kind = %v, want the user's string binding", v)
	}

	if _, err := exec(t, e, ns, "time = 5\n"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if v, _ := ns.Get("time"); !isInt(v, 5) {
		t.Errorf("time = %v, want the rebound value", v)
	}
}

func TestExecute_ConvertsGoValues(t *testing.T) {
	e := New(Config{})
	ns := code.NewNamespace()
	ns.Set("captured", "line one\n")
	ns.Set("config", map[string]any{"retries": 3})

	if _, err := exec(t, e, ns, "n = len(captured.splitlines()) + config['retries']\n"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if v, _ := ns.Get("n"); !isInt(v, 4) {
		t.Errorf("n = %v, want 4", v)
	}
	if v, _ := ns.Get("captured"); v != "line one\n" {
		t.Errorf("unbound Go values must stay untouched, got %#v", v)
	}
}

func TestExecute_PrintCaptured(t *testing.T) {
	e := New(Config{})
	res, err := exec(t, e, code.NewNamespace(), "print('hello')\nprint(1, 2)\n")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Stdout != "hello\n1 2\n" {
		t.Errorf("Stdout = %q", res.Stdout)
	}
}

func TestExecute_ErrorPositionsAreDocumentLines(t *testing.T) {
	e := New(Config{})
	tests := []struct {
		name string
		src  string
		msg  string
		line int
	}{
		{"syntax", "x = 1\nx = = 2\n", "want primary expression", 11},
		{"undefined", "x = 1\ny = undefined_name\n", "undefined: undefined_name", 11},
		{"runtime", "x = 1\ny = 1 // 0\n", "floored division by zero", 11},
		{"failed assert", "assert.eq(1, 2)\n", "1 != 2", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Execute(context.Background(), code.ExecuteParams{
				Code: tt.src, Filename: "guide.md", FirstLine: 10,
			}, code.NewNamespace(), nil)
			if !errors.Is(err, code.ErrCodeExecution) {
				t.Fatalf("error = %v, want ErrCodeExecution", err)
			}
			var ce *code.CodeError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *code.CodeError, got %T", err)
			}
			if !strings.Contains(ce.Message, tt.msg) {
				t.Errorf("Message = %q, want it to contain %q", ce.Message, tt.msg)
			}
			if ce.Line != tt.line {
				t.Errorf("Line = %d, want %d", ce.Line, tt.line)
			}
			if ce.Filename != "guide.md" {
				t.Errorf("Filename = %q, want guide.md", ce.Filename)
			}
		})
	}
}

func TestExecute_SeedsRebindingsWithoutLeaking(t *testing.T) {
	e := New(Config{})
	ns := code.NewNamespace()
	for _, src := range []string{"n = 1\n", "n += 1\nn *= 5\n"} {
		if _, err := exec(t, e, ns, src); err != nil {
			t.Fatalf("Execute(%q) error = %v", src, err)
		}
	}
	if diff := cmp.Diff([]string{"n"}, ns.Keys()); diff != "" {
		t.Errorf("namespace keys mismatch (-want +got):\n%s", diff)
	}
	if v, _ := ns.Get("n"); v.(starlark.Value).String() != "10" {
		t.Errorf("n = %v, want 10", v)
	}
	for name := range e.scope(ns) {
		if strings.HasPrefix(name, priorPrefix) {
			t.Errorf("scope kept seed entry %q", name)
		}
	}
}

func TestExecute_ScopeFollowsNamespace(t *testing.T) {
	e := New(Config{})
	ns := code.NewNamespace()
	if _, err := exec(t, e, ns, "def greet():\n    return 'hi ' + who\n"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	ns.Set("who", "there")
	if _, err := exec(t, e, ns, "msg = greet()\n"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if v, _ := ns.Get("msg"); v != starlark.String("hi there") {
		t.Errorf("msg = %v, want hi there", v)
	}

	ns.Delete("who")
	_, err := exec(t, e, ns, "again = greet()\n")
	if err == nil || !strings.Contains(err.Error(), "undefined: who") {
		t.Errorf("error = %v, want undefined: who", err)
	}
}

func TestExecute_PartialBindingsSurviveFailure(t *testing.T) {
	e := New(Config{})
	ns := code.NewNamespace()
	if _, err := exec(t, e, ns, "before = 1\nfail('stop')\nafter = 2\n"); err == nil {
		t.Fatal("expected failure")
	}
	if !ns.Has("before") || ns.Has("after") {
		t.Errorf("keys = %v, want only before", ns.Keys())
	}
}

func TestExecute_InteractiveEchoesExpression(t *testing.T) {
	e := New(Config{})
	ns := code.NewNamespace()
	ns.Set("x", starlark.MakeInt(20))

	res, err := e.Execute(context.Background(), code.ExecuteParams{Code: "x + 1", Mode: code.ModeInteractive}, ns, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Stdout != "21\n" || res.Value != int64(21) {
		t.Errorf("Stdout = %q, Value = %#v", res.Stdout, res.Value)
	}

	res, err = e.Execute(context.Background(), code.ExecuteParams{Code: "None", Mode: code.ModeInteractive}, ns, nil)
	if err != nil || res.Stdout != "" {
		t.Errorf("None should print nothing: %q, %v", res.Stdout, err)
	}

	res, err = e.Execute(context.Background(), code.ExecuteParams{Code: "y = x * 2", Mode: code.ModeInteractive}, ns, nil)
	if err != nil || res.Stdout != "" {
		t.Errorf("assignment should print nothing: %q, %v", res.Stdout, err)
	}
	if v, _ := ns.Get("y"); !isInt(v, 40) {
		t.Errorf("y = %v, want 40", v)
	}
}

func TestExecute_ContextCancellation(t *testing.T) {
	e := New(Config{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := e.Execute(ctx, code.ExecuteParams{Code: "while True:\n    pass\n"}, code.NewNamespace(), nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestExecute_MaxSteps(t *testing.T) {
	e := New(Config{MaxSteps: 1000})
	_, err := exec(t, e, code.NewNamespace(), "n = 0\nwhile True:\n    n += 1\n")
	if !errors.Is(err, code.ErrLimitExceeded) {
		t.Errorf("error = %v, want ErrLimitExceeded", err)
	}
}

func TestEngine_Callable(t *testing.T) {
	e := New(Config{})
	ns := code.NewNamespace()
	src := "def none(): pass\ndef opt(a=1, *args, **kw): pass\ndef req(a): pass\nlam = lambda: 1\nnum = 3\nsize = len\n"
	if _, err := exec(t, e, ns, src); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	tests := []struct {
		name string
		want bool
	}{
		{"none", true},
		{"opt", true},
		{"req", false},
		{"lam", true},
		{"num", false},
		{"size", false},
	}
	for _, tt := range tests {
		v, _ := ns.Get(tt.name)
		if got := e.Callable(v); got != tt.want {
			t.Errorf("Callable(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
	if e.Callable(starlark.NewBuiltin("b", nil)) {
		t.Error("builtins should not be test callables")
	}
}

func TestInvoke(t *testing.T) {
	e := New(Config{})
	ns := code.NewNamespace()
	src := "x = 2\ndef test_ok():\n    print('ran')\n    return x\ndef test_bad():\n    assert.true(x < 0, 'x negative')\n"
	if _, err := e.Execute(context.Background(), code.ExecuteParams{Code: src, Filename: "doc.md", FirstLine: 5}, ns, nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	ok, _ := ns.Get("test_ok")
	res, err := e.Invoke(context.Background(), "test_ok", ok, nil)
	if err != nil {
		t.Fatalf("Invoke(test_ok) error = %v", err)
	}
	if res.Stdout != "ran\n" || res.Value != int64(2) {
		t.Errorf("result = %+v", res)
	}

	bad, _ := ns.Get("test_bad")
	_, err = e.Invoke(context.Background(), "test_bad", bad, nil)
	var ce *code.CodeError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *code.CodeError, got %v", err)
	}
	if ce.Line != 10 {
		t.Errorf("Line = %d, want 10", ce.Line)
	}
	if !strings.Contains(ce.Message, "x negative") {
		t.Errorf("Message = %q", ce.Message)
	}
	if !strings.Contains(ce.Backtrace, "test_bad") {
		t.Errorf("Backtrace = %q, want the test frame", ce.Backtrace)
	}

	if _, err := e.Invoke(context.Background(), "num", starlark.MakeInt(1), nil); err == nil {
		t.Error("expected error invoking a non-callable")
	}
}

func TestInjected(t *testing.T) {
	e := New(Config{Modules: starlark.StringDict{"extra": starlark.True}})
	want := []string{"assert", "extra", "json", "math", "struct", "time", "tools"}
	if diff := cmp.Diff(want, e.Injected()); diff != "" {
		t.Errorf("Injected() mismatch (-want +got):\n%s", diff)
	}
}

func isInt(v any, want int64) bool {
	i, ok := v.(starlark.Int)
	if !ok {
		return false
	}
	got, ok := i.Int64()
	return ok && got == want
}
