package config

import (
	"time"

	"github.com/dshills/veil/internal/markup"
)

// Section accessors return snapshot structs. A setting with the wrong type
// reads as its default; Validate reports it.

// MarkupConfig holds the region delimiters.
type MarkupConfig struct {
	Open  string
	Close string
}

// Markers returns the delimiters as markup.Markers.
func (m MarkupConfig) Markers() markup.Markers {
	return markup.Markers{Open: m.Open, Close: m.Close}
}

// RenderConfig holds view settings.
type RenderConfig struct {
	// Placeholder is a format with one %s for the obfuscated text.
	Placeholder string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
}

// WatchConfig holds file watching settings.
type WatchConfig struct {
	Debounce time.Duration
}

// PluginsConfig holds Lua plugin settings.
type PluginsConfig struct {
	Enabled bool
	Dir     string
	Timeout time.Duration
}

// Markup returns the markup section.
func (c *Config) Markup() MarkupConfig {
	d := markup.DefaultMarkers()
	return MarkupConfig{
		Open:  c.stringOr("markup.open", d.Open),
		Close: c.stringOr("markup.close", d.Close),
	}
}

// Render returns the render section.
func (c *Config) Render() RenderConfig {
	return RenderConfig{Placeholder: c.stringOr("render.placeholder", "[%s]")}
}

// Log returns the log section.
func (c *Config) Log() LogConfig {
	return LogConfig{Level: c.stringOr("log.level", "info")}
}

// Watch returns the watch section.
func (c *Config) Watch() WatchConfig {
	return WatchConfig{Debounce: c.durationOr("watch.debounce", 100*time.Millisecond)}
}

// Plugins returns the plugins section.
func (c *Config) Plugins() PluginsConfig {
	enabled, err := c.GetBool("plugins.enabled")
	if err != nil {
		enabled = true
	}
	return PluginsConfig{
		Enabled: enabled,
		Dir:     c.stringOr("plugins.dir", ""),
		Timeout: c.durationOr("plugins.timeout", 2*time.Second),
	}
}

func (c *Config) stringOr(path, def string) string {
	s, err := c.GetString(path)
	if err != nil {
		return def
	}
	return s
}

func (c *Config) durationOr(path string, def time.Duration) time.Duration {
	d, err := c.GetDuration(path)
	if err != nil {
		return def
	}
	return d
}
