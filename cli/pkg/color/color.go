// Package color provides minimal ANSI terminal colors for CLI output.
package color

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const reset = "\033[0m"

const (
	FgRed    = 31
	FgGreen  = 32
	FgYellow = 33
	FgCyan   = 36
	FgWhite  = 37

	Bold = 1
)

// NoColor disables escape sequences, for piped output or dumb terminals.
// Initialized from the NO_COLOR convention (https://no-color.org).
var NoColor = os.Getenv("NO_COLOR") != ""

// Color is a set of ANSI display attributes.
type Color struct {
	params []int
}

func New(attrs ...int) *Color {
	return &Color{params: attrs}
}

func (c *Color) sequence() string {
	if NoColor || len(c.params) == 0 {
		return ""
	}

	codes := make([]string, len(c.params))
	for i, p := range c.params {
		codes[i] = strconv.Itoa(p)
	}
	return "\033[" + strings.Join(codes, ";") + "m"
}

func (c *Color) wrap(s string) string {
	seq := c.sequence()
	if seq == "" {
		return s
	}
	return seq + s + reset
}

// Printf prints colored formatted output to stdout.
func (c *Color) Printf(format string, a ...interface{}) {
	fmt.Print(c.wrap(fmt.Sprintf(format, a...)))
}

// Fprintf prints colored formatted output to the given writer.
func (c *Color) Fprintf(w io.Writer, format string, a ...interface{}) {
	fmt.Fprint(w, c.wrap(fmt.Sprintf(format, a...)))
}

// Sprintf returns the formatted string wrapped in color codes.
func (c *Color) Sprintf(format string, a ...interface{}) string {
	return c.wrap(fmt.Sprintf(format, a...))
}
