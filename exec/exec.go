package exec

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/docexec/capture"
	"github.com/jonwraymond/docexec/code"
	"github.com/jonwraymond/docexec/config"
	"github.com/jonwraymond/docexec/doctest"
	"github.com/jonwraymond/docexec/ignore"
	"github.com/jonwraymond/docexec/runtime"
	"github.com/jonwraymond/docexec/runtime/starlarkengine"
	"github.com/jonwraymond/docexec/suite"
	"github.com/jonwraymond/tooldiscovery/index"
	"github.com/jonwraymond/tooldiscovery/tooldoc"
)

// Exec is the unified facade for running documentation.
// It assembles the engine registry, the extension pipeline and the host
// tool environment into a single API.
type Exec struct {
	index    index.Index
	docs     tooldoc.Store
	registry *runtime.Registry
	suite    *suite.Suite
	opts     Options
}

// New creates a new Exec instance with the given options.
func New(opts Options) (*Exec, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	registry := runtime.NewRegistry()
	eng := starlarkengine.New(starlarkengine.Config{
		MaxSteps: opts.MaxSteps,
		Logger:   opts.Logger,
	})
	if err := registry.Register(opts.Languages[0], eng, opts.Languages[1:]...); err != nil {
		return nil, fmt.Errorf("%w: %v", code.ErrConfiguration, err)
	}

	var handlers code.LocalRegistry
	if len(opts.LocalHandlers) > 0 {
		handlers = code.HandlerMap(opts.LocalHandlers)
	}
	codeCfg := code.Config{
		Resolver:        registry,
		Parser:          opts.parserOptions(),
		TestPrefix:      opts.TestPrefix,
		DefaultTimeout:  opts.DefaultTimeout,
		DefaultLanguage: opts.Languages[0],
		MaxToolCalls:    opts.MaxToolCalls,
		Index:           opts.Index,
		Docs:            opts.Docs,
		Handlers:        handlers,
		Recorder:        opts.Recorder,
		Logger:          opts.Logger,
	}
	evaluator, err := code.NewEvaluator(codeCfg)
	if err != nil {
		return nil, err
	}

	s := suite.New(suite.WithKeepGoing(opts.KeepGoing), suite.WithLogger(opts.Logger))
	for _, name := range opts.Extensions {
		ext, err := newExtension(name, &opts, evaluator)
		if err != nil {
			return nil, err
		}
		s.AddExtension(ext)
	}

	return &Exec{
		index:    opts.Index,
		docs:     opts.Docs,
		registry: registry,
		suite:    s,
		opts:     opts,
	}, nil
}

func newExtension(name string, opts *Options, evaluator *code.Evaluator) (suite.Extension, error) {
	switch name {
	case config.ExtensionIgnore:
		return ignore.New(ignore.Config{Parser: opts.parserOptions(), Logger: opts.Logger})
	case config.ExtensionDoctest:
		return doctest.New(doctest.Config{
			Executor: evaluator.Executor(),
			Flags:    opts.DoctestFlags,
			Recorder: opts.Recorder,
			Logger:   opts.Logger,
		})
	case config.ExtensionCode:
		return evaluator, nil
	case config.ExtensionCapture:
		return capture.New(opts.Logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown extension %q", code.ErrConfiguration, name)
	}
}

// RunSource runs one document held in memory with a fresh namespace.
func (e *Exec) RunSource(ctx context.Context, name, source string) (*Result, error) {
	return e.suite.RunSource(ctx, name, source)
}

// RunFile runs the document at path with a fresh namespace.
func (e *Exec) RunFile(ctx context.Context, path string) (*Result, error) {
	return e.suite.RunFile(ctx, path)
}

// RunFiles runs documents one after another, each with its own namespace.
// A failing document does not stop the others; a cancelled context does.
// The returned error joins every document's failure.
func (e *Exec) RunFiles(ctx context.Context, paths ...string) (Results, error) {
	results := make(Results, 0, len(paths))
	var errs []error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := e.suite.RunFile(ctx, path)
		results = append(results, res)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return results, errors.Join(errs...)
}

// SearchTools finds host tools matching a query.
func (e *Exec) SearchTools(ctx context.Context, query string, limit int) ([]ToolSummary, error) {
	if e.index == nil {
		return nil, fmt.Errorf("%w: no tool index configured", code.ErrConfiguration)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.index.Search(query, limit)
}

// GetToolDoc retrieves host tool documentation at the specified detail level.
func (e *Exec) GetToolDoc(ctx context.Context, toolID string, level tooldoc.DetailLevel) (tooldoc.ToolDoc, error) {
	if e.docs == nil {
		return tooldoc.ToolDoc{}, fmt.Errorf("%w: no tool index configured", code.ErrConfiguration)
	}
	if err := ctx.Err(); err != nil {
		return tooldoc.ToolDoc{}, err
	}
	return e.docs.DescribeTool(toolID, level)
}

// Index returns the underlying tool index, or nil.
// This allows advanced usage patterns like direct tool registration.
func (e *Exec) Index() index.Index {
	return e.index
}

// DocStore returns the underlying documentation store, or nil.
func (e *Exec) DocStore() tooldoc.Store {
	return e.docs
}

// Suite returns the assembled pipeline.
func (e *Exec) Suite() *suite.Suite {
	return e.suite
}

// Languages returns the languages the engine registry resolves.
func (e *Exec) Languages() []string {
	return e.registry.Languages()
}
