package code

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/jonwraymond/tooldiscovery/index"
	"github.com/jonwraymond/tooldiscovery/tooldoc"
	"github.com/jonwraymond/toolfoundation/model"
)

// Handler is the function signature for local host tools.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// LocalRegistry resolves the handler name of a local tool backend.
type LocalRegistry interface {
	Get(name string) (Handler, bool)
}

// HandlerMap is a LocalRegistry backed by a map.
type HandlerMap map[string]Handler

// Get implements LocalRegistry.
func (m HandlerMap) Get(name string) (Handler, bool) {
	h, ok := m[name]
	return h, ok
}

// Tools is the host-tool environment exposed to code snippets during
// execution. It provides functions for discovering, documenting, and running
// tools registered by the embedding program.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods must honor cancellation/deadlines and return ctx.Err() when canceled.
// - Errors: discovery without an index returns ErrConfiguration; unknown tools return ErrToolNotFound.
// - Ownership: args are read-only; returned slices/results are caller-owned snapshots.
type Tools interface {
	// SearchTools searches for tools matching the query, returning up to limit results.
	SearchTools(ctx context.Context, query string, limit int) ([]index.Summary, error)

	// ListNamespaces returns all available tool namespaces.
	ListNamespaces(ctx context.Context) ([]string, error)

	// DescribeTool returns documentation for a tool at the specified detail level.
	DescribeTool(ctx context.Context, id string, level tooldoc.DetailLevel) (tooldoc.ToolDoc, error)

	// ListToolExamples returns up to maxExamples usage examples for a tool.
	ListToolExamples(ctx context.Context, id string, maxExamples int) ([]tooldoc.ToolExample, error)

	// RunTool executes a single tool and returns its structured result.
	// Each call is recorded in the tool call trace.
	RunTool(ctx context.Context, id string, args map[string]any) (any, error)

	// Println writes output to the captured stdout buffer.
	Println(args ...any)
}

// toolsImpl is the internal implementation of Tools that tracks tool calls
// and enforces limits.
type toolsImpl struct {
	index        index.Index
	docs         tooldoc.Store
	handlers     LocalRegistry
	logger       Logger
	maxToolCalls int

	mu        sync.Mutex
	toolCalls []ToolCallRecord
	stdout    strings.Builder
	callCount int
}

// newTools creates a new Tools implementation with the given configuration
// and limit. A limit of 0 is treated as unlimited.
func newTools(cfg *Config, maxToolCalls int) *toolsImpl {
	return &toolsImpl{
		index:        cfg.Index,
		docs:         cfg.Docs,
		handlers:     cfg.Handlers,
		logger:       cfg.Logger,
		maxToolCalls: maxToolCalls,
	}
}

func (t *toolsImpl) SearchTools(ctx context.Context, query string, limit int) ([]index.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.index == nil {
		return nil, fmt.Errorf("%w: no tool index configured", ErrConfiguration)
	}
	return t.index.Search(query, limit)
}

func (t *toolsImpl) ListNamespaces(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.index == nil {
		return nil, fmt.Errorf("%w: no tool index configured", ErrConfiguration)
	}
	return t.index.ListNamespaces()
}

func (t *toolsImpl) DescribeTool(ctx context.Context, id string, level tooldoc.DetailLevel) (tooldoc.ToolDoc, error) {
	if err := ctx.Err(); err != nil {
		return tooldoc.ToolDoc{}, err
	}
	if t.docs == nil {
		return tooldoc.ToolDoc{}, fmt.Errorf("%w: no tool docs configured", ErrConfiguration)
	}
	return t.docs.DescribeTool(id, level)
}

func (t *toolsImpl) ListToolExamples(ctx context.Context, id string, maxExamples int) ([]tooldoc.ToolExample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.docs == nil {
		return nil, fmt.Errorf("%w: no tool docs configured", ErrConfiguration)
	}
	return t.docs.ListExamples(id, maxExamples)
}

func (t *toolsImpl) RunTool(ctx context.Context, id string, args map[string]any) (any, error) {
	t.mu.Lock()
	if t.maxToolCalls > 0 && t.callCount >= t.maxToolCalls {
		t.mu.Unlock()
		return nil, fmt.Errorf("%w: max tool calls (%d) exceeded",
			ErrLimitExceeded, t.maxToolCalls)
	}
	t.callCount++
	t.mu.Unlock()

	start := time.Now()
	result, kind, err := t.run(ctx, id, args)
	duration := time.Since(start).Milliseconds()

	record := ToolCallRecord{
		ToolID:      id,
		Args:        deepCopyArgs(args),
		BackendKind: kind,
		DurationMs:  duration,
	}
	if err != nil {
		record.Error = err.Error()
	} else {
		record.Structured = deepCopyValue(result)
	}

	t.mu.Lock()
	t.toolCalls = append(t.toolCalls, record)
	t.mu.Unlock()

	if t.logger != nil {
		t.logger.Logf("tool %s finished in %dms (err=%v)", id, duration, err)
	}
	return result, err
}

// run resolves id through the index and calls its local handler.
func (t *toolsImpl) run(ctx context.Context, id string, args map[string]any) (any, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if t.index == nil || t.handlers == nil {
		return nil, "", fmt.Errorf("%w: no tool handlers configured", ErrConfiguration)
	}
	_, backend, err := t.index.GetTool(id)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrToolNotFound, id, err)
	}
	kind := string(backend.Kind)
	if backend.Kind != model.BackendKindLocal || backend.Local == nil {
		return nil, kind, fmt.Errorf("%w: %s has no local backend", ErrToolNotFound, id)
	}
	h, ok := t.handlers.Get(backend.Local.Name)
	if !ok {
		return nil, kind, fmt.Errorf("%w: %s: no handler %q", ErrToolNotFound, id, backend.Local.Name)
	}
	if args == nil {
		args = map[string]any{}
	}
	out, err := h(ctx, args)
	return out, kind, err
}

func (t *toolsImpl) Println(args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(&t.stdout, args...)
}

// GetToolCalls returns a copy of all recorded tool calls.
func (t *toolsImpl) GetToolCalls() []ToolCallRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]ToolCallRecord(nil), t.toolCalls...)
}

// GetStdout returns the captured stdout output.
func (t *toolsImpl) GetStdout() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stdout.String()
}

// deepCopyArgs performs a deep copy of an args map.
// It normalizes typed maps/slices into JSON-native shapes (map[string]any, []any).
func deepCopyArgs(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	result := make(map[string]any, len(args))
	for k, v := range args {
		result[k] = deepCopyValue(v)
	}
	return result
}

// deepCopyValue recursively copies a value into JSON-native shapes.
func deepCopyValue(v any) any {
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case map[string]any:
		return deepCopyArgs(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = deepCopyValue(e)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, v := range val {
			out[k] = v
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, v := range val {
			out[i] = v
		}
		return out
	case string, bool, float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return val
	case json.Number:
		return val
	default:
		rv := reflect.ValueOf(val)
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return nil
			}
			return deepCopyValue(rv.Elem().Interface())
		}
		if out, ok := deepCopyViaJSON(val); ok {
			return out
		}
		return val
	}
}

func deepCopyViaJSON(v any) (any, bool) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false
	}
	return out, true
}
