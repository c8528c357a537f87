// Package prelude runs the optional Starlark startup file and holds the
// command aliases it defines.
package prelude

import (
	"fmt"
	"log/slog"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Aliases maps a command word to the words that replace it.
type Aliases map[string][]string

// FromMap builds aliases from name -> expansion pairs, as found in the
// config file.
func FromMap(m map[string]string) (Aliases, error) {
	a := Aliases{}
	for name, exp := range m {
		if err := a.Add(name, exp); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Add defines name as expansion, split on whitespace.
func (a Aliases) Add(name, expansion string) error {
	if name == "" || strings.ContainsAny(name, " \t\n|&<>") {
		return fmt.Errorf("alias %q: invalid name", name)
	}
	words := strings.Fields(expansion)
	if len(words) == 0 {
		return fmt.Errorf("alias %q: empty expansion", name)
	}
	a[name] = words
	return nil
}

// Expand replaces args[0] if it names an alias. Expansion is one level
// deep: the replacement is not looked up again.
func (a Aliases) Expand(args []string) []string {
	if len(args) == 0 {
		return args
	}
	words, ok := a[args[0]]
	if !ok {
		return args
	}
	out := make([]string, 0, len(words)+len(args)-1)
	out = append(out, words...)
	return append(out, args[1:]...)
}

// Env is how the prelude reads environment variables.
type Env func(name string) string

// Run executes the Starlark source src (read from filename when src is
// nil) with alias() and env() predeclared. Aliases it defines are added to
// into.
func Run(filename string, src any, into Aliases, env Env, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	thread := &starlark.Thread{
		Name: "prelude",
		Print: func(_ *starlark.Thread, msg string) {
			logger.Info(msg, "source", filename)
		},
	}

	alias := starlark.NewBuiltin("alias", func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var name, expansion string
		if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name, "expansion", &expansion); err != nil {
			return nil, err
		}
		if err := into.Add(name, expansion); err != nil {
			return nil, err
		}
		logger.Debug("alias defined", "name", name, "expansion", expansion)
		return starlark.None, nil
	})
	getenv := starlark.NewBuiltin("env", func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var name string
		def := ""
		if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name, "default?", &def); err != nil {
			return nil, err
		}
		if v := env(name); v != "" {
			return starlark.String(v), nil
		}
		return starlark.String(def), nil
	})

	predeclared := starlark.StringDict{
		"alias": alias,
		"env":   getenv,
	}
	if _, err := starlark.ExecFileOptions(&syntax.FileOptions{TopLevelControl: true}, thread, filename, src, predeclared); err != nil {
		if ee, ok := err.(*starlark.EvalError); ok {
			return fmt.Errorf("prelude: %s", ee.Backtrace())
		}
		return fmt.Errorf("prelude: %w", err)
	}
	return nil
}
