package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds the global pipesh configuration.
type Config struct {
	Shell    ShellConfig    `yaml:"shell"`
	Builtins BuiltinsConfig `yaml:"builtins"`
	Ps       PsConfig       `yaml:"ps"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Audit    AuditConfig    `yaml:"audit"`
	Log      LogConfig      `yaml:"log"`
}

// ShellConfig controls the interactive loop and program lookup.
type ShellConfig struct {
	// Path is the program search path, ':' or ';' separated. Empty means
	// the PATH the shell was started with.
	Path string `yaml:"path"`

	// Home is where a bare cd goes. Empty means $HOME.
	Home string `yaml:"home"`

	Prompt string `yaml:"prompt"`

	// Prelude is a Starlark file run once at startup.
	Prelude string `yaml:"prelude"`

	// Aliases replace a stage's command word with the whitespace-split
	// expansion.
	Aliases map[string]string `yaml:"aliases" validate:"dive,keys,required,endkeys,required"`
}

// BuiltinsConfig controls builtin dispatch.
type BuiltinsConfig struct {
	// Marker is written on its own line before builtin output. Set it to
	// the empty string to turn it off.
	Marker string `yaml:"marker"`
}

// PsConfig controls where ps reads process information.
type PsConfig struct {
	ProcRoot   string `yaml:"proc_root" validate:"required"`
	ClockTicks int    `yaml:"clock_ticks" validate:"gt=0"`
}

// PipelineConfig controls how the runner waits for children.
type PipelineConfig struct {
	// Wait is "stage" (reap each child before starting the next) or
	// "pipeline" (start every stage, then reap them all).
	Wait string `yaml:"wait" validate:"oneof=stage pipeline"`
}

// AuditConfig controls the audit journal.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"required_if=Enabled true"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Shell: ShellConfig{
			Prompt: "pipesh> ",
		},
		Builtins: BuiltinsConfig{
			Marker: "BUILTIN",
		},
		Ps: PsConfig{
			ProcRoot:   "/proc",
			ClockTicks: 100,
		},
		Pipeline: PipelineConfig{
			Wait: "stage",
		},
		Audit: AuditConfig{
			Enabled: true,
			Path:    filepath.Join(home, ".local", "share", "pipesh", "audit.jsonl"),
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Load reads the config from the standard location (~/.config/pipesh/config.yaml).
// If the file doesn't exist, returns the default config.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config from the given path, fills unset values from
// the environment, and validates the result.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.FromEnv(os.Getenv)
	cfg.Audit.Path = expandHome(cfg.Audit.Path)
	cfg.Shell.Prelude = expandHome(cfg.Shell.Prelude)
	cfg.Shell.Home = expandHome(cfg.Shell.Home)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv fills the search path and home directory from PATH and HOME
// when the file left them unset. It is the only place the environment is
// consulted for them.
func (c *Config) FromEnv(getenv func(string) string) {
	if c.Shell.Path == "" {
		c.Shell.Path = getenv("PATH")
	}
	if c.Shell.Home == "" {
		c.Shell.Home = getenv("HOME")
	}
}

// Validate checks the configuration for semantic errors. Field names in
// errors are the YAML keys.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
	})
	return validate.Struct(c)
}

// ConfigPath returns the standard config file path.
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "pipesh", "config.yaml")
}

func expandHome(p string) string {
	if p == "" || p[0] != '~' {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, p[1:])
}
