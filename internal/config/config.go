// Package config loads tkwire configuration from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration file.
type Config struct {
	// Engine selects the interpreter: "local" or "wish".
	Engine string `yaml:"engine"`
	Wish   Wish   `yaml:"wish"`
	Log    Log    `yaml:"log"`
	// InternCache is the capacity of the literal intern cache.
	InternCache int `yaml:"intern_cache"`
	// InstallAfter exposes the host scheduler as the "after" command.
	InstallAfter bool `yaml:"install_after"`
}

// Wish configures the subprocess engine.
type Wish struct {
	Path string   `yaml:"path"`
	Args []string `yaml:"args"`
	Tk   bool     `yaml:"tk"`
}

// Log configures logging.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Engine:       "local",
		Wish:         Wish{Path: "tclsh"},
		Log:          Log{Level: "info", Format: "text"},
		InternCache:  256,
		InstallAfter: true,
	}
}

// Load reads the configuration file at path. Fields missing from the file
// keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown fields are an error.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	switch c.Engine {
	case "local", "wish":
	default:
		return fmt.Errorf("engine %q: must be local or wish", c.Engine)
	}
	if c.Engine == "wish" && c.Wish.Path == "" {
		return errors.New("wish.path: must not be empty")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q: must be text or json", c.Log.Format)
	}
	if c.InternCache <= 0 {
		return fmt.Errorf("intern_cache %d: must be positive", c.InternCache)
	}
	return nil
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log.level %q: must be debug, info, warn, or error", s)
}

// Logger builds the logger described by c.Log, writing to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
