// Package display renders operator-facing status lines for the CLI with
// terminal-aware coloring.
package display

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Status writes colored status lines, falling back to plain text when the
// output is not a terminal or color is disabled.
type Status struct {
	out            io.Writer
	colorSupported bool
	profile        termenv.Profile

	success *color.Color
	failure *color.Color
	warning *color.Color
	info    *color.Color
}

// Option configures a Status
type Option func(*Status)

// WithOutput redirects status output, used by tests
func WithOutput(w io.Writer) Option {
	return func(s *Status) { s.out = w }
}

// WithColor forces color on or off regardless of terminal detection
func WithColor(enabled bool) Option {
	return func(s *Status) { s.colorSupported = enabled }
}

// NewStatus creates a Status with terminal detection
func NewStatus(opts ...Option) *Status {
	s := &Status{
		out:     os.Stdout,
		profile: termenv.ColorProfile(),
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
		warning: color.New(color.FgYellow),
		info:    color.New(color.FgCyan),
	}
	s.colorSupported = colorEnabled(s.profile)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// colorEnabled reports whether colored output should be used: the output
// must be a terminal and the detected profile must carry colors at all.
func colorEnabled(profile termenv.Profile) bool {
	return profile != termenv.Ascii && detectColorSupport()
}

// detectColorSupport checks if the terminal supports colors
func detectColorSupport() bool {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return false
	}
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return true
}

// Successf prints a success status line
func (s *Status) Successf(format string, args ...interface{}) {
	s.printf(s.success, "OK", format, args...)
}

// Failuref prints a failure status line
func (s *Status) Failuref(format string, args ...interface{}) {
	s.printf(s.failure, "FAIL", format, args...)
}

// Warningf prints a warning status line
func (s *Status) Warningf(format string, args ...interface{}) {
	s.printf(s.warning, "WARN", format, args...)
}

// Infof prints an informational status line
func (s *Status) Infof(format string, args ...interface{}) {
	s.printf(s.info, "INFO", format, args...)
}

func (s *Status) printf(c *color.Color, tag, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	if s.colorSupported {
		fmt.Fprintf(s.out, "[%s] %s\n", c.Sprint(tag), message)
		return
	}
	fmt.Fprintf(s.out, "[%s] %s\n", tag, message)
}

// IsColorSupported returns whether colored output is active
func (s *Status) IsColorSupported() bool {
	return s.colorSupported
}
