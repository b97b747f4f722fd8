// Package config loads the debugger engine's configuration from a TOML
// file with environment overrides. Precedence, lowest to highest:
// built-in defaults, file, GDBMI_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration decodes TOML strings like "5s" or "250ms".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// Config is the engine's runtime configuration.
type Config struct {
	// GDBPath is the backend binary to spawn.
	GDBPath string `toml:"gdb_path"`

	// CommandTimeout bounds each synchronous command when the caller's
	// context carries no deadline of its own.
	CommandTimeout Duration `toml:"command_timeout"`

	// ShutdownGrace is how long the backend gets to exit after a
	// termination request before it is killed.
	ShutdownGrace Duration `toml:"shutdown_grace"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// Script is an optional Lua file whose hooks run on debuggee events.
	Script string `toml:"script"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		GDBPath:        "gdb",
		CommandTimeout: Duration(5 * time.Second),
		ShutdownGrace:  Duration(5 * time.Second),
		LogLevel:       "info",
	}
}

// Load reads the configuration file at path and applies environment
// overrides on top. A missing file is not an error; defaults plus the
// environment apply. An empty path skips the file entirely.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Absent file, defaults apply.
		case err != nil:
			return cfg, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, &ParseError{Path: path, Message: err.Error(), Err: err}
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides cfg from GDBMI_* environment variables. Empty
// values count as set.
func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("GDBMI_GDB_PATH"); ok {
		cfg.GDBPath = v
	}
	if v, ok := os.LookupEnv("GDBMI_COMMAND_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CommandTimeout = Duration(d)
		}
	}
	if v, ok := os.LookupEnv("GDBMI_SHUTDOWN_GRACE"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ShutdownGrace = Duration(d)
		}
	}
	if v, ok := os.LookupEnv("GDBMI_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv("GDBMI_SCRIPT"); ok {
		cfg.Script = v
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.GDBPath == "" {
		return fmt.Errorf("gdb_path must not be empty")
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("command_timeout must be positive, got %s", c.CommandTimeout)
	}
	if c.ShutdownGrace < 0 {
		return fmt.Errorf("shutdown_grace must not be negative, got %s", c.ShutdownGrace)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	return nil
}

// ParseError reports a malformed configuration file.
type ParseError struct {
	Path    string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
