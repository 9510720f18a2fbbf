// Package config provides the veil configuration system.
//
// Configuration is built from layers, each overriding the one below:
//
//	┌─────────────────────────────┐
//	│  4. Command line flags      │  ← Set
//	├─────────────────────────────┤
//	│  3. Environment (VEIL_*)    │
//	├─────────────────────────────┤
//	│  2. Config file             │  ← config.toml or config.yaml
//	├─────────────────────────────┤
//	│  1. Built-in defaults       │
//	└─────────────────────────────┘
//
// Settings are addressed by dotted paths such as "markup.open". Typed
// section accessors return snapshot structs, and Validate checks the
// merged result before the application uses it.
//
// # Settings
//
//	markup.open          opening marker (default "<secret>")
//	markup.close         closing marker (default "</secret>")
//	render.placeholder   view format, must contain %s (default "[%s]")
//	log.level            debug, info, warn or error (default "info")
//	watch.debounce       delay before re-rendering a changed file (default 100ms)
//	plugins.enabled      load Lua plugins (default true)
//	plugins.dir          plugin directory (default <config dir>/plugins)
//	plugins.timeout      per-hook execution limit (default 2s)
package config
