package event

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Stats reports bus activity.
type Stats struct {
	Subscriptions int
	Published     uint64
	Delivered     uint64
	Errors        uint64
	Panics        uint64
}

// Bus is a synchronous publish/subscribe hub.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	seq    uint64
	source string

	published atomic.Uint64
	delivered atomic.Uint64
	errors    atomic.Uint64
	panics    atomic.Uint64
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithSource sets the Source stamped on envelopes published through the bus.
func WithSource(source string) BusOption {
	return func(b *Bus) {
		b.source = source
	}
}

// NewBus creates an empty bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		subs:   make(map[string]*Subscription),
		source: "veil",
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a handler for topics matching pattern.
func (b *Bus) Subscribe(pattern Topic, h Handler, opts ...SubscriptionOption) (*Subscription, error) {
	if !pattern.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTopic, pattern)
	}
	if h == nil {
		return nil, ErrNilHandler
	}

	config := SubscriptionConfig{Priority: PriorityNormal}
	for _, opt := range opts {
		opt(&config)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	sub := &Subscription{
		id:      uuid.NewString(),
		seq:     b.seq,
		pattern: pattern,
		handler: h,
		config:  config,
	}
	sub.active.Store(true)
	b.subs[sub.id] = sub
	return sub, nil
}

// SubscribeFunc registers a function handler.
func (b *Bus) SubscribeFunc(pattern Topic, fn HandlerFunc, opts ...SubscriptionOption) (*Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(pattern, fn, opts...)
}

// Unsubscribe removes a subscription.
func (b *Bus) Unsubscribe(sub *Subscription) error {
	if sub == nil {
		return ErrSubscriptionNotFound
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub.id]; !ok {
		return ErrSubscriptionNotFound
	}
	delete(b.subs, sub.id)
	sub.active.Store(false)
	return nil
}

// Publish delivers payload to every subscription matching t.
//
// Handlers run in priority order, ties broken by subscription order. The
// first handler error stops delivery and is returned.
func (b *Bus) Publish(ctx context.Context, t Topic, payload any) error {
	if !t.IsValid() || t.IsWildcard() {
		return fmt.Errorf("%w: %q", ErrInvalidTopic, t)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	env := NewEnvelope(t, b.source, payload)
	b.published.Add(1)

	for _, sub := range b.match(t) {
		if !sub.IsActive() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := b.deliver(ctx, sub, env); err != nil {
			b.errors.Add(1)
			return err
		}
		b.delivered.Add(1)

		if sub.config.Once {
			_ = b.Unsubscribe(sub)
		}
	}
	return nil
}

// Stats returns a snapshot of bus counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	n := len(b.subs)
	b.mu.RUnlock()

	return Stats{
		Subscriptions: n,
		Published:     b.published.Load(),
		Delivered:     b.delivered.Load(),
		Errors:        b.errors.Load(),
		Panics:        b.panics.Load(),
	}
}

// match returns matching subscriptions sorted for delivery.
func (b *Bus) match(t Topic) []*Subscription {
	b.mu.RLock()
	matched := make([]*Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		if t.Matches(sub.pattern) {
			matched = append(matched, sub)
		}
	}
	b.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].config.Priority != matched[j].config.Priority {
			return matched[i].config.Priority < matched[j].config.Priority
		}
		return matched[i].seq < matched[j].seq
	})
	return matched
}

// deliver runs one handler with panic recovery.
func (b *Bus) deliver(ctx context.Context, sub *Subscription, env Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.panics.Add(1)
			err = &PanicError{
				Subscription: sub.label(),
				Topic:        env.Topic,
				Value:        r,
				Stack:        string(debug.Stack()),
			}
		}
	}()

	if herr := sub.handler.Handle(ctx, env); herr != nil {
		return &HandlerError{
			Subscription: sub.label(),
			Topic:        env.Topic,
			Err:          herr,
		}
	}
	return nil
}
