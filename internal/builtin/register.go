package builtin

import "github.com/marcelocantos/pipesh/internal/procfs"

// Options configures the builtins that need outside state.
type Options struct {
	Home       string
	Proc       *procfs.FS
	ClockTicks int
}

// RegisterAll adds every builtin to the registry.
func RegisterAll(r *Registry, opts Options) {
	r.Register(&Cd{Home: opts.Home})
	r.Register(&Exit{Word: "exit"})
	r.Register(&Exit{Word: "quit"})
	r.Register(&Help{Registry: r})
	r.Register(&Kill{})
	r.Register(&Ps{Proc: opts.Proc, ClockTicks: opts.ClockTicks})
	r.Register(&Pwd{})
}
