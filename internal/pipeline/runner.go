package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"

	"github.com/marcelocantos/pipesh/internal/builtin"
)

// WaitMode controls when the runner reaps external stages.
type WaitMode string

const (
	// WaitStage blocks on each child before dispatching the next stage.
	WaitStage WaitMode = "stage"
	// WaitPipeline starts every stage first and reaps them all at the end.
	WaitPipeline WaitMode = "pipeline"
)

// Result is the outcome of one line.
type Result struct {
	Line   string
	Stages []StageResult // stages that were dispatched, in order
	Quit   bool
}

// ExitCode is -1 when the line asked the shell to stop, 0 otherwise.
func (r *Result) ExitCode() int {
	if r.Quit {
		return builtin.StatusQuit
	}
	return 0
}

// Status is the status of the last dispatched stage.
func (r *Result) Status() int {
	if r.Quit {
		return builtin.StatusQuit
	}
	if len(r.Stages) == 0 {
		return 0
	}
	return r.Stages[len(r.Stages)-1].Status
}

// Runner drives an Executor across every stage of a line.
type Runner struct {
	Exec    *Executor
	Streams Streams
	Wait    WaitMode

	// Expand, if set, rewrites each stage's argument vector before the
	// pipeline is built.
	Expand func(args []string) []string

	// Report, if set, prints a stage that could not be started. It gets
	// the stderr in effect for the line. Nil prints "pipesh: ERR".
	Report func(w io.Writer, err error)

	Logger *slog.Logger
}

// NewRunner returns a runner bound to the process's standard streams.
func NewRunner(e *Executor, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{Exec: e, Streams: StdStreams(), Wait: WaitStage, Logger: logger}
}

// Run parses and executes one line. Parse and build failures are returned
// as errors and nothing runs. Failures of individual stages are recorded in
// the result and do not stop the line.
func (r *Runner) Run(ctx context.Context, line string) (*Result, error) {
	p, err := Parse(line)
	if err != nil {
		return nil, err
	}
	return r.RunPipeline(ctx, p)
}

// RunPipeline executes an already parsed pipeline. Every descriptor the
// pipeline owns is released before it returns.
func (r *Runner) RunPipeline(ctx context.Context, p *Pipeline) (*Result, error) {
	defer p.Close()

	if r.Expand != nil {
		for i := range p.Stages {
			if args := r.Expand(p.Stages[i].Args); len(args) > 0 {
				p.Stages[i].Args = args
			}
		}
	}
	if err := Build(p, r.Streams); err != nil {
		return nil, err
	}

	type child struct {
		idx int
		cmd *exec.Cmd
	}
	var (
		res     = &Result{Line: p.Line}
		flushes sync.WaitGroup
		pending []child
	)

	for i := range p.Stages {
		s := &p.Stages[i]
		if s.Background {
			r.Logger.Debug("background marker ignored", "stage", s.Name())
		}
		sr := StageResult{Name: s.Name()}

		if b, ok := r.Exec.Lookup(s.Name()); ok {
			sr.Builtin = true
			err := r.Exec.RunBuiltin(ctx, b, s, r.Streams.Stderr, &flushes)
			s.Close()
			sr.Status = builtin.StatusOf(err)
			if errors.Is(err, builtin.ErrQuit) {
				res.Stages = append(res.Stages, sr)
				res.Quit = true
				break
			}
			sr.Err = err
			res.Stages = append(res.Stages, sr)
			continue
		}

		cmd, err := r.Exec.Start(ctx, s, r.Streams.Stderr)
		// The child has its own copies now.
		s.Close()
		if err != nil {
			r.report(err)
			sr.Status = spawnStatus(err)
			sr.Err = err
			res.Stages = append(res.Stages, sr)
			continue
		}
		sr.Pid = cmd.Process.Pid
		if r.Wait == WaitPipeline {
			pending = append(pending, child{idx: len(res.Stages), cmd: cmd})
		} else {
			sr.Status, sr.Err = wait(cmd)
			r.Logger.Debug("exited", "stage", sr.Name, "pid", sr.Pid, "status", sr.Status)
		}
		res.Stages = append(res.Stages, sr)
	}

	// Stages skipped by quit must not hold pipes open while we reap.
	p.Close()
	for _, c := range pending {
		sr := &res.Stages[c.idx]
		sr.Status, sr.Err = wait(c.cmd)
		r.Logger.Debug("exited", "stage", sr.Name, "pid", sr.Pid, "status", sr.Status)
	}
	flushes.Wait()
	return res, nil
}

func (r *Runner) report(err error) {
	if r.Report != nil {
		r.Report(r.Streams.Stderr, err)
		return
	}
	fmt.Fprintf(r.Streams.Stderr, "pipesh: %v\n", err)
}
