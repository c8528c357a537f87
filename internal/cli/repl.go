package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/peterh/liner"

	"github.com/marcelocantos/pipesh/internal/pipeline"
	"github.com/marcelocantos/pipesh/internal/shell"
)

// prompter reads one line of input at a time.
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(line string)
	Close() error
}

// newPrompter returns a line editor when in is a terminal and a plain
// reader otherwise.
func newPrompter(in *os.File, sh *shell.Shell) prompter {
	if !isTerminal(in) {
		return &plainPrompter{r: bufio.NewReader(in)}
	}
	st := liner.NewLiner()
	st.SetCtrlCAborts(true)
	st.SetWordCompleter(commandCompleter(sh))
	return st
}

// plainPrompter reads newline-terminated lines without echoing a prompt.
type plainPrompter struct {
	r *bufio.Reader
}

func (p *plainPrompter) Prompt(string) (string, error) {
	line, err := p.r.ReadString('\n')
	if err == io.EOF && line != "" {
		return line, nil
	}
	return line, err
}

func (p *plainPrompter) AppendHistory(string) {}

func (p *plainPrompter) Close() error { return nil }

// commandCompleter completes builtin and alias names in command position:
// the first word of the line or the first word after a '|'. liner passes
// the cursor position in runes.
func commandCompleter(sh *shell.Shell) liner.WordCompleter {
	return func(line string, pos int) (string, []string, string) {
		r := []rune(line)
		head, tail := string(r[:pos]), string(r[pos:])
		start := strings.LastIndexAny(head, " \t|") + 1
		before := strings.TrimRight(head[:start], " \t")
		if before != "" && !strings.HasSuffix(before, "|") {
			return head, nil, tail
		}
		return head[:start], completions(sh, head[start:]), tail
	}
}

func completions(sh *shell.Shell, prefix string) []string {
	var out []string
	for _, b := range sh.Registry().All() {
		if strings.HasPrefix(b.Name(), prefix) {
			out = append(out, b.Name())
		}
	}
	for name := range sh.Aliases() {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// repl runs lines until end of input or a line that quits. An interrupt
// while a line runs reaches the children; the shell itself keeps going.
func repl(ctx context.Context, sh *shell.Shell, in prompter, rep *reporter, logger *slog.Logger) int {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-sigs:
				logger.Debug("interrupt")
			case <-done:
				return
			}
		}
	}()

	for {
		line, err := in.Prompt(sh.Prompt())
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			continue
		case errors.Is(err, io.EOF):
			return 0
		case err != nil:
			rep.Error(err)
			return 1
		}

		res, err := sh.Exec(ctx, line)
		if errors.Is(err, &pipeline.ParseError{Kind: pipeline.EmptyCommand}) {
			continue
		}
		in.AppendHistory(strings.TrimRight(line, "\r\n"))
		if err != nil {
			rep.Error(err)
			continue
		}
		if res.Quit {
			return 0
		}
	}
}
