package pipeline

import (
	"errors"
	"fmt"
)

// ParseKind classifies a malformed line.
type ParseKind int

const (
	EmptyCommand          ParseKind = iota + 1 // nothing but whitespace
	EmptyStage                                 // a pipe with no command on one side
	MissingRedirectTarget                      // '>' or '<' with no file name
	DuplicateRedirect                          // two output (or input) redirects on one stage
)

func (k ParseKind) String() string {
	switch k {
	case EmptyCommand:
		return "empty command"
	case EmptyStage:
		return "empty stage"
	case MissingRedirectTarget:
		return "missing redirect target"
	case DuplicateRedirect:
		return "duplicate redirect"
	default:
		return fmt.Sprintf("parse error %d", int(k))
	}
}

// ParseError reports a line that cannot be turned into a pipeline. No
// descriptors exist when it is returned.
type ParseError struct {
	Kind ParseKind
	Pos  int // byte offset into the line
}

func (e *ParseError) Error() string {
	if e.Kind == EmptyCommand {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s at column %d", e.Kind, e.Pos+1)
}

// Is matches any *ParseError of the same kind, so callers can write
// errors.Is(err, &ParseError{Kind: EmptyStage}).
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	return ok && t.Kind == e.Kind
}

// ResourceError reports a pipe, file, or process allocation failure.
type ResourceError struct {
	Op   string // "pipe", "open", "spawn"
	Path string // file involved, if any
	Err  error
}

func (e *ResourceError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// ErrNotFound is wrapped by ExecutionError when no executable matches.
var ErrNotFound = errors.New("command not found")

// ExecutionError reports an external program that could not be run. Only
// the offending stage fails; the rest of the pipeline carries on.
type ExecutionError struct {
	Name string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// ExitError represents a program that exited with a non-zero status.
// It carries the exit code so callers can propagate it without extra messaging.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}
