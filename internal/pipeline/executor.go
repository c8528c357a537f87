package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/marcelocantos/pipesh/internal/builtin"
)

// DefaultMarker is the line written before a builtin's output.
const DefaultMarker = "BUILTIN"

// Exit statuses for stages that never ran.
const (
	StatusNotFound       = 127
	StatusNotExecutable  = 126
	StatusResourceFailed = 1
)

// StageResult records what happened to one stage.
type StageResult struct {
	Name    string
	Builtin bool
	Pid     int // zero for builtins and stages that failed to spawn
	Status  int
	Err     error
}

// Executor runs single stages: builtins in-process, everything else as a
// child process found on Path.
type Executor struct {
	Builtins *builtin.Registry
	Path     []string

	// Marker is written on its own line before a builtin's output. Empty
	// disables it.
	Marker string

	Logger *slog.Logger
}

// NewExecutor returns an executor with the default marker.
func NewExecutor(reg *builtin.Registry, path []string, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{Builtins: reg, Path: path, Marker: DefaultMarker, Logger: logger}
}

// Lookup reports whether name selects a builtin.
func (e *Executor) Lookup(name string) (builtin.Builtin, bool) {
	if e.Builtins == nil {
		return nil, false
	}
	return e.Builtins.Lookup(name)
}

// Start spawns the external program for s. The caller still owns the
// stage's descriptors and must close its copies once Start returns.
func (e *Executor) Start(ctx context.Context, s *Stage, stderr *os.File) (*exec.Cmd, error) {
	cmd, err := spawn(ctx, s, e.Path, stderr)
	if err != nil {
		e.Logger.Warn("spawn failed", "stage", s.Name(), "err", err)
		return nil, err
	}
	e.Logger.Debug("spawned", "stage", s.Name(), "pid", cmd.Process.Pid)
	return cmd, nil
}

// RunBuiltin runs b against s's descriptors. Argument errors are written
// to the stage's output and other failures to stderr.
//
// Output bound for a pipe is buffered and written by a goroutine tracked by
// flushes, so a builtin never blocks on a reader that has not started yet.
// The pipe's write end then belongs to that goroutine.
func (e *Executor) RunBuiltin(ctx context.Context, b builtin.Builtin, s *Stage, stderr io.Writer, flushes *sync.WaitGroup) error {
	var in io.Reader = strings.NewReader("")
	if f := s.In.File(); f != nil {
		in = f
	}

	var (
		out io.Writer = io.Discard
		buf *bytes.Buffer
	)
	switch f := s.Out.File(); {
	case s.Out.Kind() == PipeWrite && f != nil:
		buf = new(bytes.Buffer)
		out = buf
	case f != nil:
		out = f
	}

	if t, ok := b.(builtin.Terminator); !(ok && t.Terminates()) && e.Marker != "" {
		fmt.Fprintln(out, e.Marker)
	}

	err := b.Run(ctx, s.Args, in, out, stderr)
	var argErr *builtin.ArgumentError
	switch {
	case err == nil, errors.Is(err, builtin.ErrQuit):
	case errors.As(err, &argErr):
		fmt.Fprintln(out, argErr.Error())
	default:
		fmt.Fprintln(stderr, err.Error())
	}

	if buf != nil && buf.Len() > 0 {
		f := s.Out.detach()
		flushes.Add(1)
		go func() {
			defer flushes.Done()
			defer f.Close()
			// EPIPE just means the reader is gone.
			f.Write(buf.Bytes())
		}()
	}
	return err
}

func spawnStatus(err error) int {
	var resErr *ResourceError
	switch {
	case errors.As(err, &resErr):
		return StatusResourceFailed
	case errors.Is(err, ErrNotFound):
		return StatusNotFound
	default:
		return StatusNotExecutable
	}
}
