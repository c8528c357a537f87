package builtin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// Kill sends a signal to one or more processes. Every argument is checked
// before anything is sent, so a typo never signals a subset.
type Kill struct {
	// Send delivers sig to pid. Nil means unix.Kill.
	Send func(pid int, sig syscall.Signal) error
}

var _ Builtin = (*Kill)(nil)

func (k *Kill) Name() string        { return "kill" }
func (k *Kill) Description() string { return "send a signal to processes (kill -l lists signals)" }

func (k *Kill) Run(_ context.Context, args []string, _ io.Reader, stdout, _ io.Writer) error {
	args = args[1:]
	if len(args) == 0 {
		return argErrorf(k.Name(), "usage: kill [-SIGNAL | SIGNAL] PID...")
	}
	if args[0] == "-l" {
		if len(args) > 1 {
			return argErrorf(k.Name(), "-l takes no operands")
		}
		listSignals(stdout)
		return nil
	}

	if args[0] == "" {
		return argErrorf(k.Name(), "empty argument")
	}

	// A lone operand is a PID unless it is a flag or a signal name. With
	// more than one operand the first is always the signal.
	sig := syscall.SIGTERM
	_, numErr := strconv.Atoi(args[0])
	if len(args) > 1 || numErr != nil || args[0][0] == '-' {
		s, ok := parseSignal(strings.TrimPrefix(args[0], "-"))
		if !ok {
			return argErrorf(k.Name(), "%s: invalid signal", args[0])
		}
		sig = s
		args = args[1:]
		if len(args) == 0 {
			return argErrorf(k.Name(), "missing PID")
		}
	}

	pids := make([]int, 0, len(args))
	for _, a := range args {
		pid, err := strconv.ParseInt(a, 10, 64)
		if err != nil || pid < 1 || pid > math.MaxInt32 {
			return argErrorf(k.Name(), "%s: invalid PID", a)
		}
		pids = append(pids, int(pid))
	}

	send := k.Send
	if send == nil {
		send = unix.Kill
	}
	var errs []error
	for _, pid := range pids {
		if err := send(pid, sig); err != nil {
			errs = append(errs, fmt.Errorf("kill: %d: %w", pid, err))
		}
	}
	return errors.Join(errs...)
}
