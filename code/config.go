package code

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonwraymond/docexec/document"
	"github.com/jonwraymond/tooldiscovery/index"
	"github.com/jonwraymond/tooldiscovery/tooldoc"
)

// DefaultTestPrefix is the name prefix that marks a function as a test.
const DefaultTestPrefix = "test_"

// Config holds the configuration for a code executor and evaluator.
type Config struct {
	// Engine is the pluggable code execution engine used for every language.
	// Either Engine or Resolver is required.
	Engine Engine

	// Resolver selects an engine per block language. When both are set,
	// Resolver is consulted first and Engine is the fallback.
	Resolver EngineResolver

	// Parser configures code-block recognition.
	Parser document.ParserOptions

	// TestPrefix marks newly bound callables as tests. Defaults to "test_".
	TestPrefix string

	// DefaultTimeout is the default execution timeout when not specified
	// in ExecuteParams. If zero, no default timeout is applied.
	DefaultTimeout time.Duration

	// DefaultLanguage is the default language when not specified in
	// ExecuteParams. Defaults to "python" if empty.
	DefaultLanguage string

	// MaxToolCalls limits the maximum number of tool invocations per
	// execution. Zero means unlimited.
	MaxToolCalls int

	// Index provides host tool discovery and lookup to snippets.
	// Optional.
	Index index.Index

	// Docs provides host tool documentation to snippets.
	// Optional.
	Docs tooldoc.Store

	// Handlers resolves local tool backends to Go functions.
	// Requires Index.
	Handlers LocalRegistry

	// Recorder receives every test outcome. Optional.
	Recorder Recorder

	// Logger is an optional logger for observability.
	Logger Logger
}

// Validate checks that all required fields are set.
// Returns ErrConfiguration if any required field is missing.
func (c *Config) Validate() error {
	var missing []string

	if c.Engine == nil && c.Resolver == nil {
		missing = append(missing, "Engine or Resolver")
	}
	if c.Handlers != nil && c.Index == nil {
		missing = append(missing, "Index (required by Handlers)")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s",
			ErrConfiguration, strings.Join(missing, ", "))
	}
	if c.MaxToolCalls < 0 {
		return fmt.Errorf("%w: MaxToolCalls must not be negative", ErrConfiguration)
	}
	return nil
}

// applyDefaults sets default values for optional fields.
func (c *Config) applyDefaults() {
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = "python"
	}
	if c.TestPrefix == "" {
		c.TestPrefix = DefaultTestPrefix
	}
}

// resolve returns the engine for language.
func (c *Config) resolve(language string) (Engine, bool) {
	if c.Resolver != nil {
		if eng, ok := c.Resolver.Resolve(language); ok {
			return eng, true
		}
	}
	if c.Engine != nil {
		return c.Engine, true
	}
	return nil, false
}
