package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/peterh/liner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelocantos/pipesh/internal/config"
	"github.com/marcelocantos/pipesh/internal/pipeline"
	"github.com/marcelocantos/pipesh/internal/shell"
)

type scriptedInput struct {
	line string
	err  error
}

// scripted replays a fixed sequence of prompt results, then EOF.
type scripted struct {
	inputs  []scriptedInput
	history []string
}

func (s *scripted) Prompt(string) (string, error) {
	if len(s.inputs) == 0 {
		return "", io.EOF
	}
	in := s.inputs[0]
	s.inputs = s.inputs[1:]
	return in.line, in.err
}

func (s *scripted) AppendHistory(line string) { s.history = append(s.history, line) }
func (s *scripted) Close() error              { return nil }

func testShell(t *testing.T, aliases map[string]string) (*shell.Shell, *os.File) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Shell.Path = "/usr/bin:/bin"
	cfg.Shell.Aliases = aliases
	cfg.Audit.Enabled = false

	dir := t.TempDir()
	stdin, err := os.Open(os.DevNull)
	require.NoError(t, err)
	stdout, err := os.Create(filepath.Join(dir, "stdout"))
	require.NoError(t, err)
	t.Cleanup(func() {
		stdin.Close()
		stdout.Close()
	})

	sh, err := shell.New(cfg, nil, pipeline.Streams{Stdin: stdin, Stdout: stdout, Stderr: stdout})
	require.NoError(t, err)
	t.Cleanup(func() { sh.Close() })
	return sh, stdout
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReplStopsAtQuit(t *testing.T) {
	sh, stdout := testShell(t, nil)
	in := &scripted{inputs: []scriptedInput{
		{line: "pwd"},
		{line: "   "},
		{err: liner.ErrPromptAborted},
		{line: "pwd |"},
		{line: "quit"},
		{line: "help"},
	}}
	var errOut bytes.Buffer

	code := repl(context.Background(), sh, in, newReporter(&errOut), discardLogger())
	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"pwd", "pwd |", "quit"}, in.history)
	require.Len(t, in.inputs, 1, "lines after quit are not read")
	assert.Equal(t, "pipesh: empty stage at column 6\n", errOut.String())

	data, err := os.ReadFile(stdout.Name())
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "BUILTIN\n"))
}

func TestReplStopsAtEOF(t *testing.T) {
	sh, _ := testShell(t, nil)
	in := &scripted{inputs: []scriptedInput{{line: "pwd\n"}}}
	code := repl(context.Background(), sh, in, newReporter(io.Discard), discardLogger())
	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"pwd"}, in.history)
}

func TestReplReadError(t *testing.T) {
	sh, _ := testShell(t, nil)
	in := &scripted{inputs: []scriptedInput{{err: os.ErrClosed}}}
	var errOut bytes.Buffer
	assert.Equal(t, 1, repl(context.Background(), sh, in, newReporter(&errOut), discardLogger()))
	assert.Contains(t, errOut.String(), "pipesh: ")
}

func TestPlainPrompter(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	go func() {
		w.WriteString("pwd | cat\nexit")
		w.Close()
	}()
	defer r.Close()

	p := newPrompter(r, nil)
	line, err := p.Prompt("pipesh> ")
	require.NoError(t, err)
	assert.Equal(t, "pwd | cat\n", line)
	line, err = p.Prompt("pipesh> ")
	require.NoError(t, err)
	assert.Equal(t, "exit", line, "a final line without newline still counts")
	_, err = p.Prompt("pipesh> ")
	assert.ErrorIs(t, err, io.EOF)
}

func TestCommandCompleter(t *testing.T) {
	sh, _ := testShell(t, map[string]string{"ee": "echo"})
	complete := commandCompleter(sh)

	tests := []struct {
		line  string
		head  string
		words []string
	}{
		{"pw", "", []string{"pwd"}},
		{"e", "", []string{"ee", "exit"}},
		{"ls | k", "ls | ", []string{"kill"}},
		{"ls |p", "ls |", []string{"ps", "pwd"}},
		{"ls p", "ls p", nil},
		{"zz", "", nil},
	}
	for _, tt := range tests {
		head, words, tail := complete(tt.line, len([]rune(tt.line)))
		assert.Equal(t, tt.head, head, tt.line)
		assert.Equal(t, tt.words, words, tt.line)
		assert.Empty(t, tail, tt.line)
	}

	// The cursor may sit mid-line.
	head, words, tail := complete("k | wc", 1)
	assert.Equal(t, "", head)
	assert.Equal(t, []string{"kill"}, words)
	assert.Equal(t, " | wc", tail)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		name string
	}{
		{"", slog.LevelInfo, "info"},
		{"INFO", slog.LevelInfo, "info"},
		{"debug", slog.LevelDebug, "debug"},
		{"warning", slog.LevelWarn, "warn"},
		{" error ", slog.LevelError, "error"},
		{"err", slog.LevelError, "error"},
	}
	for _, tt := range tests {
		level, name, err := parseLogLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, level, tt.in)
		assert.Equal(t, tt.name, name, tt.in)
	}
	_, _, err := parseLogLevel("loud")
	assert.Error(t, err)
}

func TestReporterPlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	newReporter(&buf).Error(io.ErrUnexpectedEOF)
	assert.Equal(t, "pipesh: unexpected EOF\n", buf.String())
}
