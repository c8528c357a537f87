package builtin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
)

// Builtin is a command run inside the shell process instead of a child.
type Builtin interface {
	// Name returns the command word that selects this builtin.
	Name() string

	// Description returns a one-line summary for help output.
	Description() string

	// Run executes the builtin. args is the full argument vector, so
	// args[0] is the builtin's own name.
	Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error
}

// Terminator is implemented by builtins that end the session. The
// executor writes no output marker for them.
type Terminator interface {
	Terminates() bool
}

// ErrQuit is returned by exit and quit. The runner stops the line and the
// interactive loop stops reading.
var ErrQuit = errors.New("quit")

// ArgumentError reports unusable arguments. Nothing was done.
type ArgumentError struct {
	Builtin string
	Msg     string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Builtin, e.Msg)
}

func argErrorf(name, format string, a ...any) error {
	return &ArgumentError{Builtin: name, Msg: fmt.Sprintf(format, a...)}
}

// Status codes returned by StatusOf.
const (
	StatusOK       = 0
	StatusQuit     = -1
	StatusFailure  = 1
	StatusBadUsage = 2
)

// StatusOf maps a builtin's error to its exit status: 0 on success,
// negative to stop, positive on error.
func StatusOf(err error) int {
	var argErr *ArgumentError
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrQuit):
		return StatusQuit
	case errors.As(err, &argErr):
		return StatusBadUsage
	default:
		return StatusFailure
	}
}

// Registry maps command words to builtins.
type Registry struct {
	mu       sync.RWMutex
	builtins map[string]Builtin
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builtins: make(map[string]Builtin)}
}

// Register adds b, replacing any builtin with the same name.
func (r *Registry) Register(b Builtin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builtins[b.Name()] = b
}

// Lookup returns the builtin named name. Matching is case-sensitive.
func (r *Registry) Lookup(name string) (Builtin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builtins[name]
	return b, ok
}

// All returns all registered builtins sorted by name.
func (r *Registry) All() []Builtin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]Builtin, 0, len(r.builtins))
	for _, b := range r.builtins {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Name() < all[j].Name()
	})
	return all
}
