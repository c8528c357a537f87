package builtin

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pborman/getopt/v2"

	"github.com/marcelocantos/pipesh/internal/procfs"
)

// Ps lists processes: by default the shell and its direct children, with
// -A every process.
type Ps struct {
	Proc       *procfs.FS
	ClockTicks int

	// Self returns the pid whose family is listed. Nil means os.Getpid.
	Self func() int
}

var _ Builtin = (*Ps)(nil)

func (p *Ps) Name() string        { return "ps" }
func (p *Ps) Description() string { return "list the shell's processes (-A for all)" }

func (p *Ps) Run(_ context.Context, args []string, _ io.Reader, stdout, _ io.Writer) error {
	opts := getopt.New()
	all := opts.Bool('A', "select every process")
	if err := opts.Getopt(args, nil); err != nil {
		return argErrorf(p.Name(), "unrecognized flag: %s", firstUnknown(args[1:]))
	}
	if rest := opts.Args(); len(rest) > 0 {
		return argErrorf(p.Name(), "unrecognized flag: %s", rest[0])
	}

	proc := p.Proc
	if proc == nil {
		proc = procfs.New(nil, "")
	}
	var (
		rows []*procfs.Stat
		err  error
	)
	if *all {
		rows, err = proc.All()
	} else {
		self := os.Getpid
		if p.Self != nil {
			self = p.Self
		}
		rows, err = proc.Family(self())
	}
	if err != nil {
		return fmt.Errorf("ps: %w", err)
	}

	fmt.Fprintf(stdout, "%6s %-8s %8s %s\n", "PID", "TTY", "TIME", "CMD")
	for _, s := range rows {
		fmt.Fprintf(stdout, "%6d %-8s %8s %s\n",
			s.PID, s.TTYName(), procfs.FormatCPUTime(s.CPUTime(p.ClockTicks)), s.Comm)
	}
	return nil
}

func firstUnknown(args []string) string {
	for _, a := range args {
		if strings.TrimLeft(a, "-A") != "" || !strings.HasPrefix(a, "-") {
			return a
		}
	}
	return strings.Join(args, " ")
}
