// Package cli implements the pipesh command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/marcelocantos/pipesh/internal/config"
	"github.com/marcelocantos/pipesh/internal/pipeline"
	"github.com/marcelocantos/pipesh/internal/shell"
)

var rootCmd = &cobra.Command{
	Use:   "pipesh",
	Short: "A small interactive command interpreter",
	Long: `pipesh reads command lines, splits them on '|' into stages, and runs
each stage either as a builtin (cd, pwd, kill, ps, help, exit, quit) or as a
program found on the search path.

Without arguments it runs interactively. With -c it runs one line and exits
with that line's status.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// streams is what the shell's lines read and write. Tests replace it.
var streams = pipeline.StdStreams

func init() {
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(builtinsCmd)
	rootCmd.AddCommand(mcpCmd)

	rootCmd.PersistentFlags().String("config", "", "Path to config.yaml (default: ~/.config/pipesh/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Diagnostic log level: debug, info, warn, error (default: from config)")
	rootCmd.Flags().StringP("command", "c", "", "Run LINE and exit with its status")

	rootCmd.SetVersionTemplate("pipesh {{.Version}}\n")
}

// statusError carries a process exit status out of a command.
type statusError struct{ code int }

func (e *statusError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// Execute runs the command line and returns the process exit status.
func Execute(version string) int {
	rootCmd.Version = version
	return execute(context.Background())
}

func execute(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code
	}
	newReporter(rootCmd.ErrOrStderr()).Error(err)
	return 1
}

func runRoot(cmd *cobra.Command, _ []string) error {
	sh, logger, err := openShell(cmd)
	if err != nil {
		return err
	}
	defer sh.Close()

	rep := newReporter(cmd.ErrOrStderr())
	if cmd.Flags().Changed("command") {
		line, _ := cmd.Flags().GetString("command")
		return exitWith(runLine(cmd.Context(), sh, line, rep))
	}

	in := newPrompter(streams().Stdin, sh)
	defer in.Close()
	return exitWith(repl(cmd.Context(), sh, in, rep, logger))
}

func exitWith(code int) error {
	if code == 0 {
		return nil
	}
	return &statusError{code: code}
}

// loadConfig reads the file named by --config, or the standard location.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

// openShell loads the config, sets up diagnostic logging, and builds the
// shell bound to the process's streams.
func openShell(cmd *cobra.Command) (*shell.Shell, *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	levelName := cfg.Log.Level
	if cmd.Flags().Changed("log-level") {
		levelName, _ = cmd.Flags().GetString("log-level")
	}
	level, name, err := parseLogLevel(levelName)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	logger.Debug("logging", "level", name)

	sh, err := shell.New(cfg, logger, streams())
	if err != nil {
		return nil, nil, err
	}
	sh.SetReport(func(w io.Writer, err error) { newReporter(w).Error(err) })
	return sh, logger, nil
}

// runLine runs a single line and maps the result to an exit status. A line
// that quits exits cleanly.
func runLine(ctx context.Context, sh *shell.Shell, line string, rep *reporter) int {
	res, err := sh.Exec(ctx, line)
	switch {
	case errors.Is(err, &pipeline.ParseError{Kind: pipeline.EmptyCommand}):
		return 0
	case err != nil:
		rep.Error(err)
		return 1
	case res.Quit:
		return 0
	}
	return res.Status()
}
