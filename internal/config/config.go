package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dshills/veil/internal/config/loader"
	"github.com/dshills/veil/internal/markup"
	"github.com/dshills/veil/internal/secret"
)

// Config provides access to the merged veil configuration.
type Config struct {
	mu sync.RWMutex

	merged map[string]any

	fs        loader.FileSystem
	path      string // explicit config file, "" to search the config dir
	loaded    string // file actually read, "" if none
	configDir string
	envPrefix string
	useEnv    bool
}

// Option configures a Config instance.
type Option func(*Config)

// WithPath sets an explicit configuration file. Its extension selects the format.
func WithPath(path string) Option {
	return func(c *Config) {
		c.path = path
	}
}

// WithConfigDir sets the directory searched for config.toml or config.yaml.
func WithConfigDir(dir string) Option {
	return func(c *Config) {
		c.configDir = dir
	}
}

// WithFS sets the file system configuration files are read from.
func WithFS(fs loader.FileSystem) Option {
	return func(c *Config) {
		c.fs = fs
	}
}

// WithEnvPrefix sets the environment variable prefix (default "VEIL_").
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.envPrefix = prefix
	}
}

// WithEnv enables or disables environment overrides.
func WithEnv(enable bool) Option {
	return func(c *Config) {
		c.useEnv = enable
	}
}

// New creates a Config holding the built-in defaults.
func New(opts ...Option) *Config {
	c := &Config{
		fs:        loader.DefaultFS(),
		envPrefix: loader.DefaultEnvPrefix,
		useEnv:    true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.configDir == "" {
		c.configDir = DefaultDir()
	}
	c.merged = c.defaults()
	return c
}

// Load rebuilds the configuration from defaults, the config file and the
// environment. A missing config file is not an error; a missing explicit
// file is.
func (c *Config) Load(_ context.Context) error {
	merged := c.defaults()

	path, explicit := c.path, c.path != ""
	if !explicit {
		path = c.findConfigFile()
	}

	loaded := ""
	if path != "" {
		l, err := loader.ForPath(c.fs, path)
		if err != nil {
			return err
		}
		data, err := l.Load()
		if err != nil {
			return err
		}
		if data == nil && explicit {
			return fmt.Errorf("config file %s: %w", path, os.ErrNotExist)
		}
		if data != nil {
			merged = loader.DeepMerge(merged, data)
			loaded = path
		}
	}

	if c.useEnv {
		env, err := loader.NewEnvLoader(c.envPrefix).Load()
		if err != nil {
			return fmt.Errorf("loading environment: %w", err)
		}
		merged = loader.DeepMerge(merged, env)
	}

	c.mu.Lock()
	c.merged = merged
	c.loaded = loaded
	c.mu.Unlock()
	return nil
}

// findConfigFile returns the first config file present in the config dir.
func (c *Config) findConfigFile() string {
	for _, name := range []string{"config.toml", "config.yaml", "config.yml"} {
		p := filepath.Join(c.configDir, name)
		if _, err := c.fs.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Path returns the config file that was read, or "" if none was.
func (c *Config) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Dir returns the configuration directory.
func (c *Config) Dir() string {
	return c.configDir
}

// Get returns the value at the given path from the merged configuration.
func (c *Config) Get(path string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return getPath(c.merged, path)
}

// GetString returns a string value at the given path.
func (c *Config) GetString(path string) (string, error) {
	v, ok := c.Get(path)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSettingNotFound, path)
	}
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
	}
	return s, nil
}

// GetInt returns an integer value at the given path.
func (c *Config) GetInt(path string) (int, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrSettingNotFound, path)
	}
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		return int(val), nil
	default:
		return 0, &TypeError{Path: path, Expected: "int", Actual: typeName(v)}
	}
}

// GetBool returns a boolean value at the given path.
func (c *Config) GetBool(path string) (bool, error) {
	v, ok := c.Get(path)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrSettingNotFound, path)
	}
	b, ok := v.(bool)
	if !ok {
		return false, &TypeError{Path: path, Expected: "bool", Actual: typeName(v)}
	}
	return b, nil
}

// GetDuration returns a duration at the given path. Strings use
// time.ParseDuration syntax; bare numbers are milliseconds.
func (c *Config) GetDuration(path string) (time.Duration, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrSettingNotFound, path)
	}
	switch val := v.(type) {
	case time.Duration:
		return val, nil
	case string:
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, &TypeError{Path: path, Expected: "duration", Actual: fmt.Sprintf("string %q", val)}
		}
		return d, nil
	case int:
		return time.Duration(val) * time.Millisecond, nil
	case int64:
		return time.Duration(val) * time.Millisecond, nil
	case float64:
		return time.Duration(val * float64(time.Millisecond)), nil
	default:
		return 0, &TypeError{Path: path, Expected: "duration", Actual: typeName(v)}
	}
}

// Set overrides a single setting. Used for command line flags.
func (c *Config) Set(path string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return setPath(c.merged, path, value)
}

// Merged returns a copy of the merged configuration.
func (c *Config) Merged() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return loader.Clone(c.merged)
}

// Validate checks every known setting and returns all failures joined.
func (c *Config) Validate() error {
	var errs []error
	check := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	open, err := c.GetString("markup.open")
	check(err)
	closing, err := c.GetString("markup.close")
	check(err)
	if err := (markup.Markers{Open: open, Close: closing}).Validate(); err != nil {
		check(&ValidationError{Path: "markup", Message: err.Error(), Value: open + " " + closing})
	}

	placeholder, err := c.GetString("render.placeholder")
	check(err)
	if err == nil {
		if perr := secret.CheckPlaceholder(placeholder); perr != nil {
			check(&ValidationError{Path: "render.placeholder", Message: "must print the value once with a single %s verb", Value: placeholder})
		}
	}

	level, err := c.GetString("log.level")
	check(err)
	if err == nil && !validLogLevel(level) {
		check(&ValidationError{Path: "log.level", Message: "must be debug, info, warn or error", Value: level})
	}

	debounce, err := c.GetDuration("watch.debounce")
	check(err)
	if err == nil && debounce < 0 {
		check(&ValidationError{Path: "watch.debounce", Message: "must not be negative", Value: debounce})
	}

	_, err = c.GetBool("plugins.enabled")
	check(err)
	_, err = c.GetString("plugins.dir")
	check(err)
	timeout, err := c.GetDuration("plugins.timeout")
	check(err)
	if err == nil && timeout <= 0 {
		check(&ValidationError{Path: "plugins.timeout", Message: "must be positive", Value: timeout})
	}

	return errors.Join(errs...)
}

func validLogLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// DefaultDir returns the default configuration directory.
func DefaultDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "veil")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "veil")
}

// defaults returns the built-in configuration values.
func (c *Config) defaults() map[string]any {
	m := markup.DefaultMarkers()
	return map[string]any{
		"markup": map[string]any{
			"open":  m.Open,
			"close": m.Close,
		},
		"render": map[string]any{
			"placeholder": "[%s]",
		},
		"log": map[string]any{
			"level": "info",
		},
		"watch": map[string]any{
			"debounce": "100ms",
		},
		"plugins": map[string]any{
			"enabled": true,
			"dir":     filepath.Join(c.configDir, "plugins"),
			"timeout": "2s",
		},
	}
}

// getPath retrieves a value from a nested map using a dot-separated path.
func getPath(m map[string]any, path string) (any, bool) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, false
	}

	current := any(m)
	for _, part := range parts {
		cm, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = cm[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// setPath sets a value in a nested map using a dot-separated path.
func setPath(m map[string]any, path string, value any) error {
	parts := splitPath(path)
	if len(parts) == 0 {
		return ErrInvalidPath
	}

	current := m
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part]
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		nextMap, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %s is not a section", ErrInvalidPath, part)
		}
		current = nextMap
	}

	current[parts[len(parts)-1]] = value
	return nil
}

// splitPath splits a dot-separated path, dropping empty segments.
func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, ".") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// typeName returns the type name for error messages.
func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	switch v.(type) {
	case string:
		return "string"
	case int, int64:
		return "int"
	case float64:
		return "float64"
	case bool:
		return "bool"
	case []any:
		return "[]any"
	case map[string]any:
		return "map"
	default:
		return fmt.Sprintf("%T", v)
	}
}
