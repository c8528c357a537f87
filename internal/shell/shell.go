// Package shell ties configuration, builtins, the pipeline runner and the
// audit journal together into one line-at-a-time interpreter.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/marcelocantos/pipesh/internal/audit"
	"github.com/marcelocantos/pipesh/internal/builtin"
	"github.com/marcelocantos/pipesh/internal/config"
	"github.com/marcelocantos/pipesh/internal/pipeline"
	"github.com/marcelocantos/pipesh/internal/prelude"
	"github.com/marcelocantos/pipesh/internal/procfs"
)

// Shell executes lines one at a time. Lines from concurrent callers are
// serialized, since cd changes the working directory of the whole process.
type Shell struct {
	mu      sync.Mutex
	cfg     *config.Config
	reg     *builtin.Registry
	runner  *pipeline.Runner
	aliases prelude.Aliases
	journal *audit.Logger
	logger  *slog.Logger
}

// New builds a shell from cfg whose lines read and write std. A journal
// that cannot be opened is logged and skipped; a broken prelude is an error.
func New(cfg *config.Config, logger *slog.Logger, std pipeline.Streams) (*Shell, error) {
	if logger == nil {
		logger = slog.Default()
	}

	aliases, err := prelude.FromMap(cfg.Shell.Aliases)
	if err != nil {
		return nil, fmt.Errorf("config aliases: %w", err)
	}
	if cfg.Shell.Prelude != "" {
		if err := prelude.Run(cfg.Shell.Prelude, nil, aliases, os.Getenv, logger); err != nil {
			return nil, err
		}
	}

	reg := builtin.NewRegistry()
	builtin.RegisterAll(reg, builtin.Options{
		Home:       cfg.Shell.Home,
		Proc:       procfs.New(nil, cfg.Ps.ProcRoot),
		ClockTicks: cfg.Ps.ClockTicks,
	})

	ex := pipeline.NewExecutor(reg, pipeline.SplitPath(cfg.Shell.Path), logger)
	ex.Marker = cfg.Builtins.Marker

	runner := pipeline.NewRunner(ex, logger)
	runner.Streams = std
	runner.Wait = pipeline.WaitMode(cfg.Pipeline.Wait)
	runner.Expand = aliases.Expand

	s := &Shell{
		cfg:     cfg,
		reg:     reg,
		runner:  runner,
		aliases: aliases,
		logger:  logger,
	}

	if cfg.Audit.Enabled {
		j, err := audit.NewLogger(cfg.Audit.Path)
		if err != nil {
			logger.Warn("audit journal disabled", "path", cfg.Audit.Path, "err", err)
		} else {
			s.journal = j
		}
	}
	return s, nil
}

// Exec runs one line against the shell's streams.
func (s *Shell) Exec(ctx context.Context, line string) (*pipeline.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exec(ctx, line)
}

// Output is the captured outcome of a line run through Capture.
type Output struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Status int    `json:"status"`
	Quit   bool   `json:"quit,omitempty"`
}

// Capture runs one line with stdin at /dev/null and collects what the line
// wrote to stdout and stderr. A parse or build failure is returned as an
// error with whatever was captured.
func (s *Shell) Capture(ctx context.Context, line string) (*Output, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stdin, err := os.Open(os.DevNull)
	if err != nil {
		return nil, err
	}
	defer stdin.Close()
	stdout, err := os.CreateTemp("", "pipesh-stdout-*")
	if err != nil {
		return nil, err
	}
	defer removeTemp(stdout)
	stderr, err := os.CreateTemp("", "pipesh-stderr-*")
	if err != nil {
		return nil, err
	}
	defer removeTemp(stderr)

	saved := s.runner.Streams
	s.runner.Streams = pipeline.Streams{Stdin: stdin, Stdout: stdout, Stderr: stderr}
	res, runErr := s.exec(ctx, line)
	s.runner.Streams = saved

	out := &Output{}
	outData, err := os.ReadFile(stdout.Name())
	if err != nil {
		return nil, err
	}
	errData, err := os.ReadFile(stderr.Name())
	if err != nil {
		return nil, err
	}
	out.Stdout, out.Stderr = string(outData), string(errData)
	if runErr != nil {
		out.Status = builtin.StatusFailure
		return out, runErr
	}
	out.Status = res.Status()
	out.Quit = res.Quit
	return out, nil
}

func (s *Shell) exec(ctx context.Context, line string) (*pipeline.Result, error) {
	start := time.Now()
	res, err := s.runner.Run(ctx, line)
	if errors.Is(err, &pipeline.ParseError{Kind: pipeline.EmptyCommand}) {
		return nil, err
	}
	s.record(line, res, err, time.Since(start))
	return res, err
}

func (s *Shell) record(line string, res *pipeline.Result, runErr error, d time.Duration) {
	if s.journal == nil {
		return
	}
	rec := audit.Record{Line: line, Err: runErr, Duration: d}
	if res != nil {
		rec.Line = res.Line
		rec.Quit = res.Quit
		for _, sr := range res.Stages {
			rec.Stages = append(rec.Stages, sr.Name)
			rec.Statuses = append(rec.Statuses, sr.Status)
		}
	}
	rec.Cwd, _ = os.Getwd()
	if err := s.journal.Log(rec); err != nil {
		s.logger.Warn("audit write failed", "err", err)
	}
}

// SetReport replaces how a stage that could not be started is printed.
// report receives the stderr of the line being run.
func (s *Shell) SetReport(report func(w io.Writer, err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runner.Report = report
}

// Prompt returns the configured prompt.
func (s *Shell) Prompt() string { return s.cfg.Shell.Prompt }

// Registry returns the builtins this shell dispatches to.
func (s *Shell) Registry() *builtin.Registry { return s.reg }

// Aliases returns the aliases in effect.
func (s *Shell) Aliases() prelude.Aliases { return s.aliases }

// Journal returns the audit journal, or nil when auditing is off.
func (s *Shell) Journal() *audit.Logger { return s.journal }

// Close releases the audit journal.
func (s *Shell) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journal == nil {
		return nil
	}
	err := s.journal.Close()
	s.journal = nil
	return err
}

func removeTemp(f *os.File) {
	f.Close()
	os.Remove(f.Name())
}
