package suite

import "github.com/jonwraymond/docexec/code"

// Config controls how a Suite runs documents.
type Config struct {
	// KeepGoing records a failing region and continues with the next one
	// instead of stopping the document.
	KeepGoing bool

	// Logger is an optional logger for observability.
	Logger code.Logger
}

// ConfigOption is a functional option for configuring a Suite.
type ConfigOption func(*Config)

// WithKeepGoing sets whether a failing region stops the document.
func WithKeepGoing(keepGoing bool) ConfigOption {
	return func(c *Config) {
		c.KeepGoing = keepGoing
	}
}

// WithLogger sets the logger.
func WithLogger(l code.Logger) ConfigOption {
	return func(c *Config) {
		c.Logger = l
	}
}
