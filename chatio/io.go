// Package chatio provides terminal IO and the semantic logger used by the
// chat shell and the command middleware.
package chatio

import (
	stdio "io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"golang.org/x/term"
)

type colorMode int

const (
	colorAuto colorMode = iota
	colorForce
	colorNone
)

// IOManager centralizes IO streams and terminal capabilities
type IOManager struct {
	in  stdio.Reader
	out stdio.Writer
	err stdio.Writer

	mode colorMode
}

// New returns a manager bound to process stdio
func New() *IOManager {
	return &IOManager{in: os.Stdin, out: os.Stdout, err: os.Stderr}
}

// WithIn sets the input reader and returns the manager for chaining.
func (m *IOManager) WithIn(r stdio.Reader) *IOManager { m.in = r; return m }

// WithOut sets the standard output writer and returns the manager for chaining.
func (m *IOManager) WithOut(w stdio.Writer) *IOManager { m.out = w; return m }

// WithErr sets the standard error writer and returns the manager for chaining.
func (m *IOManager) WithErr(w stdio.Writer) *IOManager { m.err = w; return m }

// ForceColor forces color output on, regardless of environment.
func (m *IOManager) ForceColor() *IOManager { m.mode = colorForce; return m }

// NoColor disables color output, regardless of environment.
func (m *IOManager) NoColor() *IOManager { m.mode = colorNone; return m }

// ColorAuto uses environment heuristics to determine color support.
func (m *IOManager) ColorAuto() *IOManager { m.mode = colorAuto; return m }

// In returns the configured input reader.
func (m *IOManager) In() stdio.Reader { return m.in }

// Out returns the configured standard output writer.
func (m *IOManager) Out() stdio.Writer { return m.out }

// Err returns the configured standard error writer.
func (m *IOManager) Err() stdio.Writer { return m.err }

// IsTTY reports whether the output writer is a terminal.
func (m *IOManager) IsTTY() bool { return isTerminal(m.out) }

// IsInteractive reports whether input comes from a terminal outside CI.
func (m *IOManager) IsInteractive() bool {
	return isTerminal(m.in) && os.Getenv("CI") == ""
}

// Width returns the terminal width, falling back to $COLUMNS and then 80.
func (m *IOManager) Width() int {
	if f, ok := m.out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			return w
		}
	}
	if w, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && w > 0 {
		return w
	}
	return 80
}

// SupportsColor reports whether ANSI colors should be written to Out.
func (m *IOManager) SupportsColor() bool {
	switch m.mode {
	case colorForce:
		return true
	case colorNone:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	if !m.IsTTY() {
		return false
	}
	t := os.Getenv("TERM")
	return t != "" && t != "dumb"
}

// Colorize renders s with the given attributes when color is supported
func (m *IOManager) Colorize(s string, attrs ...color.Attribute) string {
	c := color.New(attrs...)
	if m.SupportsColor() {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(s)
}

// Bold returns s in bold when color is supported; otherwise s unchanged.
func (m *IOManager) Bold(s string) string { return m.Colorize(s, color.Bold) }

// Faint returns s in faint intensity when supported; otherwise s unchanged.
func (m *IOManager) Faint(s string) string { return m.Colorize(s, color.Faint) }

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
