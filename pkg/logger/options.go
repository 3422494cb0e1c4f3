package logger

import "io"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

type config struct {
	level  string
	format string
	output io.Writer
	caller bool
}

// Option configures Init.
type Option func(*config)

// WithLevel sets the initial level (debug, info, warn, error).
func WithLevel(level string) Option {
	return func(c *config) { c.level = level }
}

// WithFormat selects FormatText or FormatJSON.
func WithFormat(format string) Option {
	return func(c *config) {
		if format != "" {
			c.format = format
		}
	}
}

// WithOutput redirects records to w.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.output = w
		}
	}
}

// WithCaller toggles the source attribute.
func WithCaller(enabled bool) Option {
	return func(c *config) { c.caller = enabled }
}
