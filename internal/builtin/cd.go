package builtin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
)

// Cd changes the shell's working directory. With no operand it goes to
// Home; "-" returns to the previous directory.
type Cd struct {
	Home string

	mu   sync.Mutex
	prev string
}

var _ Builtin = (*Cd)(nil)

func (c *Cd) Name() string        { return "cd" }
func (c *Cd) Description() string { return "change the working directory" }

func (c *Cd) Run(_ context.Context, args []string, _ io.Reader, stdout, _ io.Writer) error {
	if len(args) > 2 {
		return argErrorf(c.Name(), "too many arguments")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var dir string
	switch {
	case len(args) == 1:
		if c.Home == "" {
			return errors.New("cd: home directory not set")
		}
		dir = c.Home
	case args[1] == "-":
		if c.prev == "" {
			return errors.New("cd: no previous directory")
		}
		dir = c.prev
		fmt.Fprintln(stdout, dir)
	default:
		dir = args[1]
	}

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("cd: %w", err)
	}
	if err := os.Chdir(dir); err != nil {
		var pe *fs.PathError
		if errors.As(err, &pe) {
			return fmt.Errorf("cd: %s: %w", dir, pe.Err)
		}
		return fmt.Errorf("cd: %w", err)
	}
	c.prev = wd
	return nil
}
