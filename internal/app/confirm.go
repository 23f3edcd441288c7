package app

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/dshills/rewind/internal/engine/history"
)

// Confirmer answers cross-document undo prompts. On a terminal it asks the
// user; otherwise it prints the question and answers with the configured
// default.
type Confirmer struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
	fallback    bool
	names       func(history.Scope) string
}

// NewConfirmer creates a confirmer reading answers from in.
func NewConfirmer(in *bufio.Reader, out io.Writer, interactive, fallback bool) *Confirmer {
	return &Confirmer{
		in:          in,
		out:         out,
		interactive: interactive,
		fallback:    fallback,
		names:       history.Scope.String,
	}
}

// SetFallback changes the answer given when there is no terminal.
func (c *Confirmer) SetFallback(v bool) {
	c.fallback = v
}

// SetNames sets how scopes are named in prompts.
func (c *Confirmer) SetNames(fn func(history.Scope) string) {
	if fn != nil {
		c.names = fn
	}
}

// Confirm implements history.Confirmer.
func (c *Confirmer) Confirm(p history.Prompt) bool {
	msg := p.Format(c.names)
	if !c.interactive {
		fmt.Fprintf(c.out, "%s [auto: %s]\n", msg, yesNo(c.fallback))
		return c.fallback
	}

	fmt.Fprintf(c.out, "%s [y/N] ", msg)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(c.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// IsTerminal reports whether r is an interactive terminal.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
