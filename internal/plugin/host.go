package plugin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	glua "github.com/yuin/gopher-lua"

	"github.com/dshills/veil/internal/event"
	"github.com/dshills/veil/internal/markup"
	"github.com/dshills/veil/internal/plugin/lua"
	"github.com/dshills/veil/internal/secret"
)

// Hook function names a plugin may define.
const (
	HookRender = "on_render"
	HookCommit = "on_commit"
)

// Plugin is one loaded Lua plugin.
type Plugin struct {
	name  string
	path  string
	state *lua.State
}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return p.name
}

// Path returns the file the plugin was loaded from, or "" for inline source.
func (p *Plugin) Path() string {
	return p.path
}

// HasHook returns true if the plugin defines the named hook.
func (p *Plugin) HasHook(name string) bool {
	return p.state.HasFunction(name)
}

// Host owns the loaded plugins and routes region events to their hooks.
type Host struct {
	mu      sync.RWMutex
	plugins map[string]*Plugin
	order   []string

	scanner *markup.Scanner
	timeout time.Duration

	bus  *event.Bus
	subs []*event.Subscription
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithMarkers sets the delimiters veil.regions scans for.
func WithMarkers(m markup.Markers) HostOption {
	return func(h *Host) {
		if s, err := markup.NewScanner(m); err == nil {
			h.scanner = s
		}
	}
}

// WithTimeout bounds each hook call.
func WithTimeout(d time.Duration) HostOption {
	return func(h *Host) {
		h.timeout = d
	}
}

// NewHost creates an empty plugin host.
func NewHost(opts ...HostOption) *Host {
	scanner, _ := markup.NewScanner(markup.DefaultMarkers())
	h := &Host{
		plugins: make(map[string]*Plugin),
		scanner: scanner,
		timeout: lua.DefaultExecutionTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// LoadString loads a plugin from Lua source.
func (h *Host) LoadString(ctx context.Context, name, code string) error {
	return h.load(name, "", func(s *lua.State) error {
		return s.DoString(ctx, name, code)
	})
}

// LoadFile loads a plugin file. The plugin is named after the file.
func (h *Host) LoadFile(ctx context.Context, path string) error {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return h.load(name, path, func(s *lua.State) error {
		return s.DoFile(ctx, path)
	})
}

// LoadDir loads every *.lua file in dir in name order. It keeps going past
// failures and returns the number loaded with all errors joined.
// A missing directory loads nothing and is not an error.
func (h *Host) LoadDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading plugin directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".lua" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var errs []error
	loaded := 0
	for _, n := range names {
		if err := h.LoadFile(ctx, filepath.Join(dir, n)); err != nil {
			errs = append(errs, err)
			continue
		}
		loaded++
	}
	return loaded, errors.Join(errs...)
}

func (h *Host) load(name, path string, exec func(*lua.State) error) error {
	h.mu.RLock()
	_, exists := h.plugins[name]
	h.mu.RUnlock()
	if exists {
		return fmt.Errorf("%w: %s", ErrPluginExists, name)
	}

	state := lua.NewState(lua.WithExecutionTimeout(h.timeout))
	state.RegisterModule(moduleName, moduleFuncs(h.scanner))

	if err := exec(state); err != nil {
		_ = state.Close()
		return &LoadError{Plugin: name, Path: path, Err: err}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.plugins[name]; exists {
		_ = state.Close()
		return fmt.Errorf("%w: %s", ErrPluginExists, name)
	}
	h.plugins[name] = &Plugin{name: name, path: path, state: state}
	h.order = append(h.order, name)
	return nil
}

// Get returns a plugin by name.
func (h *Host) Get(name string) (*Plugin, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.plugins[name]
	return p, ok
}

// Names returns loaded plugin names in load order.
func (h *Host) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out
}

// Unload closes and removes a plugin.
func (h *Host) Unload(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.plugins[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	delete(h.plugins, name)
	for i, n := range h.order {
		if n == name {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	return p.state.Close()
}

// Attach subscribes the plugin hooks to region events on bus.
// Commit validation runs at high priority, after the codec has filled in
// the plain text and before observers.
func (h *Host) Attach(bus *event.Bus) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.bus != nil {
		return ErrAlreadyAttached
	}

	render, err := bus.SubscribeFunc(secret.TopicRender, h.handleRender,
		event.WithPriority(event.PriorityNormal), event.WithName("plugin."+HookRender))
	if err != nil {
		return err
	}
	commit, err := bus.SubscribeFunc(secret.TopicCommit, h.handleCommit,
		event.WithPriority(event.PriorityHigh), event.WithName("plugin."+HookCommit))
	if err != nil {
		_ = bus.Unsubscribe(render)
		return err
	}

	h.bus = bus
	h.subs = []*event.Subscription{render, commit}
	return nil
}

// Detach removes the hook subscriptions.
func (h *Host) Detach() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.bus == nil {
		return
	}
	for _, s := range h.subs {
		_ = h.bus.Unsubscribe(s)
	}
	h.bus = nil
	h.subs = nil
}

// Close detaches and closes every plugin.
func (h *Host) Close() error {
	h.Detach()

	h.mu.Lock()
	defer h.mu.Unlock()

	var errs []error
	for _, name := range h.order {
		if err := h.plugins[name].state.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	h.plugins = make(map[string]*Plugin)
	h.order = nil
	return errors.Join(errs...)
}

// active returns the loaded plugins in load order.
func (h *Host) active() []*Plugin {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Plugin, 0, len(h.order))
	for _, n := range h.order {
		out = append(out, h.plugins[n])
	}
	return out
}

func (h *Host) handleRender(ctx context.Context, env event.Envelope) error {
	req, ok := env.Payload.(*secret.RenderRequest)
	if !ok {
		return nil
	}

	for _, p := range h.active() {
		if !p.HasHook(HookRender) {
			continue
		}
		tbl := p.state.NewTable()
		tbl.RawSetString("document", glua.LString(req.Document))
		tbl.RawSetString("index", glua.LNumber(req.Index+1))
		tbl.RawSetString("plain", glua.LString(req.Plain))
		tbl.RawSetString("display", glua.LString(req.Display))

		if _, err := p.state.Call(ctx, HookRender, tbl); err != nil {
			return fmt.Errorf("plugin %s %s: %w", p.name, HookRender, err)
		}
	}
	return nil
}

func (h *Host) handleCommit(ctx context.Context, env event.Envelope) error {
	req, ok := env.Payload.(*secret.CommitRequest)
	if !ok {
		return nil
	}

	for _, p := range h.active() {
		if !p.HasHook(HookCommit) {
			continue
		}
		tbl := p.state.NewTable()
		tbl.RawSetString("document", glua.LString(req.Document))
		tbl.RawSetString("index", glua.LNumber(req.Index+1))
		tbl.RawSetString("previous", glua.LString(req.Previous))
		tbl.RawSetString("edited", glua.LString(req.Edited))
		tbl.RawSetString("plain", glua.LString(req.Plain))

		results, err := p.state.Call(ctx, HookCommit, tbl)
		if err != nil {
			return fmt.Errorf("plugin %s %s: %w", p.name, HookCommit, err)
		}
		if err := verdict(p.name, results); err != nil {
			return err
		}
	}
	return nil
}

// verdict converts on_commit return values into a veto.
//
// First result can be:
//   - nil or none: allow
//   - bool: true allows, false vetoes with the optional second result as reason
//   - string: non-empty vetoes with it as reason
func verdict(plugin string, results []glua.LValue) error {
	if len(results) == 0 {
		return nil
	}

	switch v := results[0].(type) {
	case glua.LBool:
		if v {
			return nil
		}
		reason := ""
		if len(results) > 1 {
			if s, ok := results[1].(glua.LString); ok {
				reason = string(s)
			}
		}
		return &VetoError{Plugin: plugin, Reason: reason}
	case glua.LString:
		if v == "" {
			return nil
		}
		return &VetoError{Plugin: plugin, Reason: string(v)}
	default:
		return nil
	}
}
