// Package app wires the veil components together: configuration, logging,
// the event bus, Lua plugins and one secret extension per open document.
package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/dshills/veil/internal/config"
	"github.com/dshills/veil/internal/event"
	"github.com/dshills/veil/internal/plugin"
	"github.com/dshills/veil/internal/secret"
)

// Options configures the application. Non-empty fields override the
// configuration file and environment.
type Options struct {
	// ConfigPath is the path to the configuration file.
	ConfigPath string

	// ConfigDir is searched for config.toml or config.yaml when ConfigPath is empty.
	ConfigDir string

	// LogLevel sets the logging verbosity.
	LogLevel string

	// LogOutput receives log lines. Defaults to os.Stderr.
	LogOutput io.Writer

	// PluginDir overrides plugins.dir.
	PluginDir string

	// NoPlugins disables Lua plugins.
	NoPlugins bool

	// NoEnv ignores VEIL_* environment variables.
	NoEnv bool
}

// Application is the central coordinator for veil components.
type Application struct {
	mu sync.Mutex

	opts    Options
	config  *config.Config
	logger  *Logger
	bus     *event.Bus
	plugins *plugin.Host

	sessions map[string]*Session
	subs     []*event.Subscription
	closed   bool
}

// New creates an Application and starts its components.
func New(ctx context.Context, opts Options) (*Application, error) {
	app := &Application{
		opts:     opts,
		sessions: make(map[string]*Session),
	}

	if err := app.initConfig(ctx); err != nil {
		return nil, err
	}
	app.initLogger()
	if err := app.initBus(); err != nil {
		return nil, err
	}
	if err := app.initPlugins(ctx); err != nil {
		app.unsubscribe()
		return nil, err
	}
	return app, nil
}

func (app *Application) initConfig(ctx context.Context) error {
	var opts []config.Option
	if app.opts.ConfigPath != "" {
		opts = append(opts, config.WithPath(app.opts.ConfigPath))
	}
	if app.opts.ConfigDir != "" {
		opts = append(opts, config.WithConfigDir(app.opts.ConfigDir))
	}
	if app.opts.NoEnv {
		opts = append(opts, config.WithEnv(false))
	}

	cfg := config.New(opts...)
	if err := cfg.Load(ctx); err != nil {
		return &InitError{Component: "config", Err: err}
	}

	overrides := map[string]any{}
	if app.opts.LogLevel != "" {
		overrides["log.level"] = app.opts.LogLevel
	}
	if app.opts.PluginDir != "" {
		overrides["plugins.dir"] = app.opts.PluginDir
	}
	if app.opts.NoPlugins {
		overrides["plugins.enabled"] = false
	}
	for path, v := range overrides {
		if err := cfg.Set(path, v); err != nil {
			return &InitError{Component: "config", Err: err}
		}
	}

	if err := cfg.Validate(); err != nil {
		return &InitError{Component: "config", Err: err}
	}
	app.config = cfg
	return nil
}

func (app *Application) initLogger() {
	app.logger = NewLogger(LoggerConfig{
		Level:  ParseLogLevel(app.config.Log().Level),
		Output: app.opts.LogOutput,
		Prefix: "veil",
	})
	if p := app.config.Path(); p != "" {
		app.logger.WithComponent("config").Debug("loaded %s", p)
	}
}

func (app *Application) initBus() error {
	app.bus = event.NewBus(event.WithSource("veil"))
	log := app.logger.WithComponent("event")

	trace, err := app.bus.SubscribeFunc("**", func(_ context.Context, env event.Envelope) error {
		log.Debug("%s id=%s", env.Topic, env.ID)
		return nil
	}, event.WithPriority(event.PriorityLow), event.WithName("app.trace"))
	if err != nil {
		return &InitError{Component: "event bus", Err: err}
	}

	committed, err := app.bus.SubscribeFunc(secret.TopicCommitted, func(_ context.Context, env event.Envelope) error {
		if c, ok := env.Payload.(*secret.Committed); ok {
			log.Info("committed region %d of %s", c.Index+1, c.Document)
		}
		return nil
	}, event.WithPriority(event.PriorityLow), event.WithName("app.committed"))
	if err != nil {
		_ = app.bus.Unsubscribe(trace)
		return &InitError{Component: "event bus", Err: err}
	}

	app.subs = []*event.Subscription{trace, committed}
	return nil
}

func (app *Application) initPlugins(ctx context.Context) error {
	pc := app.config.Plugins()
	log := app.logger.WithComponent("plugin")
	if !pc.Enabled {
		log.Debug("plugins disabled")
		return nil
	}

	host := plugin.NewHost(
		plugin.WithMarkers(app.config.Markup().Markers()),
		plugin.WithTimeout(pc.Timeout),
	)
	n, err := host.LoadDir(ctx, pc.Dir)
	if err != nil {
		// A broken plugin should not stop the others.
		log.Warn("%v", err)
	}
	if n > 0 {
		log.Info("loaded %d plugin(s) from %s", n, pc.Dir)
	}

	if err := host.Attach(app.bus); err != nil {
		_ = host.Close()
		return &InitError{Component: "plugins", Err: err}
	}
	app.plugins = host
	return nil
}

// Config returns the loaded configuration.
func (app *Application) Config() *config.Config {
	return app.config
}

// Logger returns the application logger.
func (app *Application) Logger() *Logger {
	return app.logger
}

// Bus returns the application event bus.
func (app *Application) Bus() *event.Bus {
	return app.bus
}

// Plugins returns the plugin host, or nil when plugins are disabled.
func (app *Application) Plugins() *plugin.Host {
	return app.plugins
}

// Open loads a document and attaches a secret extension to it. Opening
// the same file twice returns the existing session.
func (app *Application) Open(ctx context.Context, path string) (*Session, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, NewOperationError("open", path, err)
	}

	app.mu.Lock()
	defer app.mu.Unlock()

	if app.closed {
		return nil, ErrClosed
	}
	if s, ok := app.sessions[abs]; ok {
		return s, nil
	}

	s, err := newSession(app, path)
	if err != nil {
		return nil, NewOperationError("open", path, err)
	}
	app.sessions[abs] = s

	for _, loc := range s.Unterminated() {
		s.log.Warn("unterminated %s at %d:%d", app.config.Markup().Open, loc.Line, loc.Col)
	}
	return s, nil
}

// Sessions returns the number of open documents.
func (app *Application) Sessions() int {
	app.mu.Lock()
	defer app.mu.Unlock()
	return len(app.sessions)
}

// Close detaches all documents and shuts down plugins.
func (app *Application) Close() error {
	app.mu.Lock()
	if app.closed {
		app.mu.Unlock()
		return nil
	}
	app.closed = true
	sessions := app.sessions
	app.sessions = make(map[string]*Session)
	app.mu.Unlock()

	for _, s := range sessions {
		s.ext.Detach()
	}

	var err error
	if app.plugins != nil {
		if cerr := app.plugins.Close(); cerr != nil {
			err = fmt.Errorf("closing plugins: %w", cerr)
		}
	}
	app.unsubscribe()
	return err
}

func (app *Application) unsubscribe() {
	for _, s := range app.subs {
		_ = app.bus.Unsubscribe(s)
	}
	app.subs = nil
}

func (app *Application) forget(s *Session) {
	app.mu.Lock()
	defer app.mu.Unlock()
	for k, v := range app.sessions {
		if v == s {
			delete(app.sessions, k)
		}
	}
}
