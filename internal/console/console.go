// Package console prints human-readable operator status lines with three
// severity classes — informational, warning, error — colored when
// attached to a terminal, per spec.md §6.
package console

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Console writes severity-colored lines to an output stream. The zero
// value is not usable; construct with New.
type Console struct {
	out  io.Writer
	info *color.Color
	warn *color.Color
	errc *color.Color
}

// New builds a Console writing to out. Coloring is enabled only when out
// is a terminal (checked via isatty), matching the original bridge's
// always-on ANSI escapes generalized to a real TTY check.
func New(out *os.File) *Console {
	enabled := isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())

	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		c.EnableColor()
		if !enabled {
			c.DisableColor()
		}
		return c
	}

	return &Console{
		out:  out,
		info: mk(color.FgGreen),
		warn: mk(color.FgYellow),
		errc: mk(color.FgRed),
	}
}

// Infof reports a phase boundary or request outcome at informational
// severity (configuration loaded, dispatcher ready, fabric ready, bridge
// ready, a bridge session Processed or Disconnected).
func (c *Console) Infof(format string, args ...any) {
	c.info.Fprintln(c.out, fmt.Sprintf(format, args...))
}

// Warnf reports a recoverable problem: a skipped config unit, a bad
// interest pattern, a bridge session that crashed.
func (c *Console) Warnf(format string, args ...any) {
	c.warn.Fprintln(c.out, fmt.Sprintf(format, args...))
}

// Errorf reports a startup or transport failure.
func (c *Console) Errorf(format string, args ...any) {
	c.errc.Fprintln(c.out, fmt.Sprintf(format, args...))
}
