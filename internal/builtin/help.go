package builtin

import (
	"context"
	"fmt"
	"io"
)

// Help lists the registered builtins.
type Help struct {
	Registry *Registry
}

var _ Builtin = (*Help)(nil)

func (h *Help) Name() string        { return "help" }
func (h *Help) Description() string { return "list builtin commands" }

func (h *Help) Run(_ context.Context, args []string, _ io.Reader, stdout, _ io.Writer) error {
	if len(args) > 1 {
		return argErrorf(h.Name(), "%v: unexpected", args[1:])
	}
	for _, b := range h.Registry.All() {
		fmt.Fprintf(stdout, "  %-6s %s\n", b.Name(), b.Description())
	}
	fmt.Fprintln(stdout, "Anything else runs as a program found on the search path.")
	return nil
}
