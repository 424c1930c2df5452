package exec

import (
	"errors"
	"regexp"
	"time"

	"github.com/jonwraymond/docexec/code"
	"github.com/jonwraymond/docexec/config"
	"github.com/jonwraymond/docexec/doctest"
	"github.com/jonwraymond/docexec/document"
	"github.com/jonwraymond/tooldiscovery/index"
	"github.com/jonwraymond/tooldiscovery/tooldoc"
)

// DefaultMaxToolCalls caps host tool calls per block or test.
const DefaultMaxToolCalls = 100

// Errors returned by Options validation.
var (
	ErrIndexRequired = errors.New("exec: Index is required by LocalHandlers")
	ErrDocsRequired  = errors.New("exec: Docs store requires an Index")
)

// Options configures an Exec instance.
type Options struct {
	// Index provides host tool discovery to snippets.
	// Optional; required when LocalHandlers is set.
	Index index.Index

	// Docs provides host tool documentation.
	// Optional; defaults to an in-memory store over Index.
	Docs tooldoc.Store

	// LocalHandlers maps handler names to handler functions.
	// These are used when a tool's backend is a local backend
	// referencing the handler by name.
	LocalHandlers map[string]Handler

	// Languages lists the code-block languages run by the Starlark engine.
	// Default: document.DefaultLanguages
	Languages []string

	// StartPattern overrides the reStructuredText directive pattern.
	StartPattern *regexp.Regexp

	// TestPrefix marks newly bound functions as tests.
	// Default: "test_"
	TestPrefix string

	// DoctestFlags are the comparison options every doctest example
	// starts with.
	DoctestFlags doctest.Flags

	// Extensions lists the pipeline stages in order, by config name.
	// Default: config.DefaultExtensions
	Extensions []string

	// KeepGoing records failing regions and continues the document.
	KeepGoing bool

	// MaxToolCalls limits host tool calls per block or test.
	// Default: 100
	MaxToolCalls int

	// MaxSteps bounds Starlark computation steps per block or test.
	// Zero means unlimited.
	MaxSteps uint64

	// DefaultTimeout bounds each block execution and test invocation.
	// Zero means blocks and tests run until they finish or ctx is done.
	DefaultTimeout time.Duration

	// Recorder receives every test outcome as it is produced. Optional.
	Recorder code.Recorder

	// Logger is an optional logger for observability.
	Logger code.Logger
}

// FromConfig returns the Options described by a project file.
func FromConfig(f *config.File) Options {
	return Options{
		Languages:      append([]string(nil), f.Languages...),
		StartPattern:   f.StartPattern,
		TestPrefix:     f.TestPrefix,
		DoctestFlags:   f.DoctestFlags,
		Extensions:     append([]string(nil), f.Extensions...),
		KeepGoing:      f.KeepGoing,
		MaxToolCalls:   f.MaxToolCalls,
		MaxSteps:       f.MaxSteps,
		DefaultTimeout: f.Timeout,
	}
}

// validate checks that dependent fields are set.
func (o *Options) validate() error {
	if len(o.LocalHandlers) > 0 && o.Index == nil {
		return ErrIndexRequired
	}
	if o.Docs != nil && o.Index == nil {
		return ErrDocsRequired
	}
	return nil
}

// applyDefaults sets default values for unset optional fields.
func (o *Options) applyDefaults() {
	if o.Docs == nil && o.Index != nil {
		o.Docs = tooldoc.NewInMemoryStore(tooldoc.StoreOptions{Index: o.Index})
	}
	if len(o.Languages) == 0 {
		o.Languages = append([]string(nil), document.DefaultLanguages...)
	}
	if len(o.Extensions) == 0 {
		o.Extensions = append([]string(nil), config.DefaultExtensions...)
	}
	if o.MaxToolCalls == 0 {
		o.MaxToolCalls = DefaultMaxToolCalls
	}
}

func (o *Options) parserOptions() document.ParserOptions {
	return document.ParserOptions{
		Languages:    o.Languages,
		StartPattern: o.StartPattern,
	}
}
