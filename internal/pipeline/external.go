package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
)

// lookPath resolves name against dirs. Names containing a slash are tried
// as given; an empty directory entry means the current directory.
func lookPath(name string, dirs []string) (string, error) {
	if strings.Contains(name, "/") {
		if err := findExecutable(name); err != nil {
			return "", err
		}
		return name, nil
	}
	for _, dir := range dirs {
		if dir == "" {
			dir = "."
		}
		path := filepath.Join(dir, name)
		if !strings.Contains(path, "/") {
			path = "./" + path
		}
		if err := findExecutable(path); err == nil {
			return path, nil
		}
	}
	return "", ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case err != nil:
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return fs.ErrPermission
}

// SplitPath splits a PATH-style list on ':' or ';'.
func SplitPath(list string) []string {
	if list == "" {
		return nil
	}
	return strings.FieldsFunc(list, func(r rune) bool { return r == ':' || r == ';' })
}

// spawn starts one child for s with its stdin and stdout bound to the
// stage's descriptors. The parent's copies are left for the caller to close.
func spawn(ctx context.Context, s *Stage, dirs []string, stderr *os.File) (*exec.Cmd, error) {
	name := s.Name()
	path, err := lookPath(name, dirs)
	if err != nil {
		return nil, &ExecutionError{Name: name, Err: err}
	}

	cmd := exec.CommandContext(ctx, path)
	cmd.Args = s.Args
	if f := s.In.File(); f != nil {
		cmd.Stdin = f
	}
	if f := s.Out.File(); f != nil {
		cmd.Stdout = f
	}
	if stderr != nil {
		cmd.Stderr = stderr
	}
	if err := cmd.Start(); err != nil {
		if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.ENOMEM) {
			return nil, &ResourceError{Op: "spawn", Path: path, Err: err}
		}
		return nil, &ExecutionError{Name: name, Err: err}
	}
	return cmd, nil
}

// wait reaps cmd. Non-zero exits come back as *ExitError; a child killed by
// a signal reports 128 plus the signal number.
func wait(cmd *exec.Cmd) (int, error) {
	err := cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 1, err
	}
	code := exitErr.ExitCode()
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		code = 128 + int(ws.Signal())
	}
	return code, &ExitError{Code: code}
}
