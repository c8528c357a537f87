package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// reporter writes user-facing errors prefixed with "pipesh: ". The prefix
// is red when the destination is a terminal.
type reporter struct {
	w      io.Writer
	prefix *color.Color
}

func newReporter(w io.Writer) *reporter {
	c := color.New(color.FgRed, color.Bold)
	if f, ok := w.(*os.File); ok && isTerminal(f) {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return &reporter{w: w, prefix: c}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (r *reporter) Error(err error) {
	r.prefix.Fprint(r.w, "pipesh:")
	fmt.Fprintf(r.w, " %v\n", err)
}
