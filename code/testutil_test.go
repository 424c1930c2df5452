package code

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jonwraymond/tooldiscovery/index"
	"github.com/jonwraymond/tooldiscovery/tooldoc"
	"github.com/jonwraymond/toolfoundation/model"
)

// mockIndex implements index.Index for testing.
type mockIndex struct {
	mu sync.Mutex

	// Configurable returns
	searchResult     []index.Summary
	searchErr        error
	namespacesResult []string
	getToolResult    model.Tool
	getToolBackend   model.ToolBackend
	getToolErr       error

	// Call tracking
	searchCalls     []searchCall
	getToolCalls    []string
	namespacesCalls int
}

type searchCall struct {
	query string
	limit int
}

func (m *mockIndex) Search(query string, limit int) ([]index.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls = append(m.searchCalls, searchCall{query, limit})
	return m.searchResult, m.searchErr
}

func (m *mockIndex) SearchPage(query string, limit int, _ string) ([]index.Summary, string, error) {
	results, err := m.Search(query, limit)
	return results, "", err
}

func (m *mockIndex) ListNamespaces() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.namespacesCalls++
	return m.namespacesResult, nil
}

func (m *mockIndex) ListNamespacesPage(limit int, _ string) ([]string, string, error) {
	results, err := m.ListNamespaces()
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, "", err
}

func (m *mockIndex) GetTool(id string) (model.Tool, model.ToolBackend, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getToolCalls = append(m.getToolCalls, id)
	return m.getToolResult, m.getToolBackend, m.getToolErr
}

func (m *mockIndex) GetAllBackends(_ string) ([]model.ToolBackend, error) {
	return nil, nil
}

func (m *mockIndex) RegisterTool(_ model.Tool, _ model.ToolBackend) error {
	return nil
}

func (m *mockIndex) RegisterTools(_ []index.ToolRegistration) error {
	return nil
}

func (m *mockIndex) RegisterToolsFromMCP(_ string, _ []model.Tool) error {
	return nil
}

func (m *mockIndex) UnregisterBackend(_ string, _ model.BackendKind, _ string) error {
	return nil
}

// mockStore implements tooldoc.Store for testing.
type mockStore struct {
	mu sync.Mutex

	describeResult tooldoc.ToolDoc
	describeErr    error
	examplesResult []tooldoc.ToolExample
	examplesErr    error

	describeCalls []string
	examplesCalls []string
}

func (m *mockStore) DescribeTool(id string, _ tooldoc.DetailLevel) (tooldoc.ToolDoc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.describeCalls = append(m.describeCalls, id)
	return m.describeResult, m.describeErr
}

func (m *mockStore) ListExamples(id string, _ int) ([]tooldoc.ToolExample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.examplesCalls = append(m.examplesCalls, id)
	return m.examplesResult, m.examplesErr
}

// testFunc is the callable value the script engine binds for "test" lines.
type testFunc struct {
	name string
	fail string
}

// scriptEngine implements Engine over a line-oriented toy language:
//
//	name = value      bind a string
//	test name         bind a passing test function
//	test name fail m  bind a test function failing with m
//	use name          fail unless name is bound
//	raise message     fail the block
//	tool id           call a host tool
//	print text        write to stdout
//
// Every execution binds "__scope__" into the namespace, which it reports
// through Injected.
type scriptEngine struct {
	mu sync.Mutex

	// Call tracking
	executeCalls []ExecuteParams
	invoked      []string
}

func (e *scriptEngine) Injected() []string { return []string{"__scope__"} }

func (e *scriptEngine) Execute(ctx context.Context, params ExecuteParams, ns *Namespace, tools Tools) (ExecuteResult, error) {
	e.mu.Lock()
	e.executeCalls = append(e.executeCalls, params)
	e.mu.Unlock()

	var res ExecuteResult
	ns.Set("__scope__", "machinery")
	for i, line := range strings.Split(strings.TrimSpace(params.Code), "\n") {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		lineNo := params.FirstLine + i
		switch {
		case len(fields) == 3 && fields[1] == "=":
			ns.Set(fields[0], fields[2])
			res.Bound = append(res.Bound, fields[0])
		case fields[0] == "test" && len(fields) >= 2:
			fn := &testFunc{name: fields[1]}
			if len(fields) >= 4 && fields[2] == "fail" {
				fn.fail = strings.Join(fields[3:], " ")
			}
			ns.Set(fields[1], fn)
			res.Bound = append(res.Bound, fields[1])
		case fields[0] == "use" && len(fields) == 2:
			if !ns.Has(fields[1]) {
				return res, &CodeError{Message: fmt.Sprintf("undefined: %s", fields[1]), Line: lineNo, Column: 5}
			}
		case fields[0] == "raise":
			return res, &CodeError{Message: strings.Join(fields[1:], " "), Line: lineNo, Column: 1}
		case fields[0] == "tool" && len(fields) == 2:
			if _, err := tools.RunTool(ctx, fields[1], nil); err != nil {
				return res, &CodeError{Message: "tool failed", Line: lineNo, Err: err}
			}
		case fields[0] == "print":
			tools.Println(strings.Join(fields[1:], " "))
		default:
			return res, &CodeError{Message: "syntax error", Line: lineNo, Column: 1}
		}
	}
	return res, nil
}

func (e *scriptEngine) Callable(value any) bool {
	_, ok := value.(*testFunc)
	return ok
}

func (e *scriptEngine) Invoke(_ context.Context, name string, value any, tools Tools) (ExecuteResult, error) {
	e.mu.Lock()
	e.invoked = append(e.invoked, name)
	e.mu.Unlock()

	fn := value.(*testFunc)
	if tools != nil {
		tools.Println("running " + fn.name)
	}
	if fn.fail != "" {
		return ExecuteResult{}, errors.New(fn.fail)
	}
	return ExecuteResult{}, nil
}

func (e *scriptEngine) invocations() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.invoked...)
}

// mockResolver implements EngineResolver for testing.
type mockResolver map[string]Engine

func (m mockResolver) Resolve(language string) (Engine, bool) {
	eng, ok := m[language]
	return eng, ok
}

// mockLogger implements Logger for testing.
type mockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *mockLogger) Logf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf(format, args...))
}
