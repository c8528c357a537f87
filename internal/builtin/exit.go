package builtin

import (
	"context"
	"io"
)

// Exit ends the session. It is registered twice, as exit and quit.
type Exit struct {
	Word string
}

var (
	_ Builtin    = (*Exit)(nil)
	_ Terminator = (*Exit)(nil)
)

func (e *Exit) Name() string        { return e.Word }
func (e *Exit) Description() string { return "leave the shell" }
func (e *Exit) Terminates() bool    { return true }

func (e *Exit) Run(context.Context, []string, io.Reader, io.Writer, io.Writer) error {
	return ErrQuit
}
