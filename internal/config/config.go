// Package config provides the configuration for rewind.
//
// Settings are resolved in three layers, higher overriding lower:
//
//  1. Built-in defaults (Default)
//  2. The config file, TOML or YAML by extension
//  3. REWIND_* environment variables
//
// A Watcher from the watcher sub-package can reload the file when it changes.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/rewind/internal/config/loader"
	"github.com/dshills/rewind/internal/engine/history"
	"github.com/dshills/rewind/internal/logging"
)

// Errors returned by configuration operations.
var (
	// ErrValidationFailed indicates a setting holds an unusable value.
	ErrValidationFailed = errors.New("validation failed")

	// ErrFileNotFound indicates an explicitly requested file doesn't exist.
	ErrFileNotFound = errors.New("config file not found")
)

// DefaultFileName is the config file looked up in the user config directory.
const DefaultFileName = "config.toml"

// Config holds every rewind setting.
type Config struct {
	History HistoryConfig `toml:"history" yaml:"history"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
}

// HistoryConfig controls the undo history.
type HistoryConfig struct {
	// MaxDepth bounds the number of commands each scope keeps, undo and redo
	// together.
	MaxDepth int `toml:"max_depth" yaml:"max_depth"`

	// ConfirmCrossScope is the answer given to cross-document undo prompts
	// when there is no terminal to ask.
	ConfirmCrossScope bool `toml:"confirm_cross_scope" yaml:"confirm_cross_scope"`

	// MergeTyping merges consecutive typing commands into one undo step.
	MergeTyping bool `toml:"merge_typing" yaml:"merge_typing"`

	// MergeWindow is the longest pause between keystrokes that still merges.
	MergeWindow Duration `toml:"merge_window" yaml:"merge_window"`
}

// LoggingConfig controls the logger.
type LoggingConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// Duration is a time.Duration written as a string such as "750ms".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		History: HistoryConfig{
			MaxDepth:          history.DefaultMaxDepth,
			ConfirmCrossScope: true,
			MergeTyping:       true,
			MergeWindow:       Duration{time.Second},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks that every setting is usable.
func (c Config) Validate() error {
	var errs []error
	if c.History.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("history.max_depth must be at least 1, got %d", c.History.MaxDepth))
	}
	if c.History.MergeWindow.Duration < 0 {
		errs = append(errs, fmt.Errorf("history.merge_window must not be negative, got %s", c.History.MergeWindow))
	}
	if !validLevel(c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrValidationFailed, errors.Join(errs...))
	}
	return nil
}

// LogLevel returns the configured logging level.
func (c Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Logging.Level)
}

// HistoryOptions translates the history settings into manager options.
func (c Config) HistoryOptions() []history.Option {
	opts := []history.Option{history.WithMaxDepth(c.History.MaxDepth)}
	if p := c.MergePolicy(); p != nil {
		opts = append(opts, history.WithMergePolicy(p))
	}
	return opts
}

// MergePolicy returns the merge policy the settings ask for, or nil.
func (c Config) MergePolicy() history.MergePolicy {
	if !c.History.MergeTyping {
		return nil
	}
	return history.MergeConsecutive(c.History.MergeWindow.Duration)
}

func validLevel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// ============================================================================
// Loading
// ============================================================================

// Source loads a Config from a file and the environment.
type Source struct {
	loader *loader.Loader
	path   string
	env    func(string) (string, bool)
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithFileSystem reads the config file through fsys.
func WithFileSystem(fsys loader.FileSystem) SourceOption {
	return func(s *Source) {
		s.loader = loader.NewWithFS(fsys)
	}
}

// WithEnv replaces the environment lookup.
func WithEnv(lookup func(string) (string, bool)) SourceOption {
	return func(s *Source) {
		if lookup != nil {
			s.env = lookup
		}
	}
}

// NewSource creates a source for the file at path. An empty path means the
// default file in the user config directory.
func NewSource(path string, opts ...SourceOption) *Source {
	s := &Source{
		loader: loader.New(),
		path:   path,
		env:    os.LookupEnv,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.path == "" {
		s.path = DefaultPath()
	}
	return s
}

// Path returns the config file path.
func (s *Source) Path() string {
	return s.path
}

// Load resolves defaults, the file, and the environment, then validates.
// A missing file is not an error.
func (s *Source) Load() (Config, error) {
	cfg := Default()
	if _, err := s.loader.LoadInto(s.path, &cfg); err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg, s.env); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile loads a config file that must exist.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	found, err := loader.New().LoadInto(path, &cfg)
	if err != nil {
		return Config{}, err
	}
	if !found {
		return Config{}, fmt.Errorf("%s: %w", path, ErrFileNotFound)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultPath returns the config file in the user config directory, or a
// relative name when that directory is unknown.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(dir, "rewind", DefaultFileName)
}
