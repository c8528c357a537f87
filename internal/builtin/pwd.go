package builtin

import (
	"context"
	"fmt"
	"io"
	"os"
)

type Pwd struct{}

var _ Builtin = (*Pwd)(nil)

func (p *Pwd) Name() string        { return "pwd" }
func (p *Pwd) Description() string { return "print the working directory" }

func (p *Pwd) Run(_ context.Context, args []string, _ io.Reader, stdout, _ io.Writer) error {
	if len(args) > 1 {
		return argErrorf(p.Name(), "%v: unexpected", args[1:])
	}
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("pwd: %w", err)
	}
	_, err = fmt.Fprintln(stdout, wd)
	return err
}
