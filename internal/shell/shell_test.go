package shell

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelocantos/pipesh/internal/audit"
	"github.com/marcelocantos/pipesh/internal/config"
	"github.com/marcelocantos/pipesh/internal/pipeline"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Shell.Path = "/usr/bin:/bin"
	cfg.Shell.Home = t.TempDir()
	cfg.Audit.Path = filepath.Join(t.TempDir(), "audit.jsonl")
	return cfg
}

func newShell(t *testing.T, cfg *config.Config) *Shell {
	t.Helper()
	sh, err := New(cfg, nil, pipeline.StdStreams())
	require.NoError(t, err)
	t.Cleanup(func() { sh.Close() })
	return sh
}

func requireTools(t *testing.T, names ...string) {
	t.Helper()
	for _, n := range names {
		if _, err := exec.LookPath(n); err != nil {
			t.Skipf("%s not available", n)
		}
	}
}

func TestCaptureExternalPipeline(t *testing.T) {
	requireTools(t, "echo", "wc")
	sh := newShell(t, testConfig(t))

	out, err := sh.Capture(context.Background(), "echo hi | wc -c")
	require.NoError(t, err)
	assert.Equal(t, "3", strings.TrimSpace(out.Stdout))
	assert.Empty(t, out.Stderr)
	assert.Equal(t, 0, out.Status)
	assert.False(t, out.Quit)
}

func TestCaptureBuiltinWritesMarker(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	sh := newShell(t, testConfig(t))

	out, err := sh.Capture(context.Background(), "pwd")
	require.NoError(t, err)
	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, "BUILTIN\n"+wd+"\n", out.Stdout)
}

func TestCaptureUsesReport(t *testing.T) {
	sh := newShell(t, testConfig(t))
	sh.SetReport(func(w io.Writer, err error) {
		fmt.Fprintf(w, "reported: %v\n", err)
	})

	out, err := sh.Capture(context.Background(), "no-such-program-pipesh")
	require.NoError(t, err)
	assert.Equal(t, "reported: no-such-program-pipesh: command not found\n", out.Stderr)
	assert.Equal(t, pipeline.StatusNotFound, out.Status)
}

func TestCaptureQuit(t *testing.T) {
	sh := newShell(t, testConfig(t))
	out, err := sh.Capture(context.Background(), "quit")
	require.NoError(t, err)
	assert.True(t, out.Quit)
	assert.Equal(t, -1, out.Status)
}

func TestCaptureParseError(t *testing.T) {
	sh := newShell(t, testConfig(t))
	out, err := sh.Capture(context.Background(), "ls |")
	require.Error(t, err)
	assert.ErrorIs(t, err, &pipeline.ParseError{Kind: pipeline.EmptyStage})
	assert.Equal(t, 1, out.Status)
}

func TestCaptureRestoresStreams(t *testing.T) {
	sh := newShell(t, testConfig(t))
	before := sh.runner.Streams
	_, err := sh.Capture(context.Background(), "pwd")
	require.NoError(t, err)
	assert.Equal(t, before, sh.runner.Streams)
}

func TestJournalRecordsLines(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg := testConfig(t)
	sh := newShell(t, cfg)
	ctx := context.Background()

	_, err := sh.Capture(ctx, "pwd")
	require.NoError(t, err)
	_, err = sh.Capture(ctx, "   ")
	require.Error(t, err)
	_, err = sh.Capture(ctx, "pwd |")
	require.Error(t, err)
	_, err = sh.Capture(ctx, "exit")
	require.NoError(t, err)
	require.NoError(t, sh.Close())

	require.NoError(t, audit.Verify(cfg.Audit.Path))
	entries, err := audit.Tail(cfg.Audit.Path, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3, "empty lines are not journaled")

	assert.Equal(t, "pwd", entries[0].Line)
	assert.Equal(t, []string{"pwd"}, entries[0].Stages)
	assert.Equal(t, []int{0}, entries[0].Statuses)
	assert.NotEmpty(t, entries[0].Cwd)

	assert.Contains(t, entries[1].Error, "empty stage")
	assert.True(t, entries[2].Quit)
	assert.Equal(t, entries[0].Session, entries[2].Session)
}

func TestAuditDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Audit.Enabled = false
	sh := newShell(t, cfg)
	assert.Nil(t, sh.Journal())

	_, err := sh.Capture(context.Background(), "pwd")
	require.NoError(t, err)
	_, err = os.Stat(cfg.Audit.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestUnwritableJournalIsSkipped(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	cfg.Audit.Path = filepath.Join(blocker, "audit.jsonl")

	sh := newShell(t, cfg)
	assert.Nil(t, sh.Journal())
}

func TestConfigAliases(t *testing.T) {
	requireTools(t, "echo")
	cfg := testConfig(t)
	cfg.Shell.Aliases = map[string]string{"say": "echo said"}
	sh := newShell(t, cfg)

	out, err := sh.Capture(context.Background(), "say hello")
	require.NoError(t, err)
	assert.Equal(t, "said hello\n", out.Stdout)
}

func TestPreludeAliases(t *testing.T) {
	cfg := testConfig(t)
	cfg.Shell.Prelude = filepath.Join(t.TempDir(), "prelude.star")
	require.NoError(t, os.WriteFile(cfg.Shell.Prelude, []byte(`alias("here", "pwd")`+"\n"), 0o644))
	sh := newShell(t, cfg)

	assert.Equal(t, []string{"pwd"}, sh.Aliases()["here"])
	out, err := sh.Capture(context.Background(), "here")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.Stdout, "BUILTIN\n"))
}

func TestBrokenPreludeFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.Shell.Prelude = filepath.Join(t.TempDir(), "prelude.star")
	require.NoError(t, os.WriteFile(cfg.Shell.Prelude, []byte("alias(\n"), 0o644))
	_, err := New(cfg, nil, pipeline.StdStreams())
	assert.Error(t, err)
}

func TestMarkerFromConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Builtins.Marker = ""
	sh := newShell(t, cfg)

	out, err := sh.Capture(context.Background(), "help")
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(out.Stdout, "BUILTIN"))
	assert.Contains(t, out.Stdout, "kill")
}

func TestConcurrentCdIsSerialized(t *testing.T) {
	t.Chdir(t.TempDir())
	a, b := t.TempDir(), t.TempDir()
	sh := newShell(t, testConfig(t))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		dir := a
		if i%2 == 1 {
			dir = b
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := sh.Capture(ctx, "cd "+dir+" | pwd")
			if !assert.NoError(t, err) {
				return
			}
			// pwd runs right after cd in the same locked line.
			lines := strings.Split(strings.TrimSpace(out.Stdout), "\n")
			resolved, _ := filepath.EvalSymlinks(dir)
			got, _ := filepath.EvalSymlinks(lines[len(lines)-1])
			assert.Equal(t, resolved, got)
		}()
	}
	wg.Wait()
}
