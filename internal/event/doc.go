// Package event provides the synchronous event bus that connects the secret
// region extension to its host and to plugins.
//
// Events use hierarchical topics with dot notation:
//
//	region.render       - a region is about to be displayed
//	region.commit       - the user committed an edited value
//	region.committed    - the edited value was written to the document
//	document.changed    - a transaction was applied to the document
//
// Subscriptions support wildcard patterns:
//
//	region.*     - matches region.render, region.commit (single segment)
//	**           - matches every topic (multi-segment)
//
// # Delivery
//
// Delivery is synchronous: Publish runs every matching handler on the
// caller's goroutine, in priority order, before it returns. Lower priority
// values run first. The first handler that returns an error stops delivery
// and the error is returned to the publisher wrapped in *HandlerError, which
// lets subscribers veto an operation. A panicking handler is recovered and
// reported as *PanicError.
//
//	bus := event.NewBus()
//	sub, _ := bus.SubscribeFunc("region.*", func(ctx context.Context, env event.Envelope) error {
//	    fmt.Println(env.Topic)
//	    return nil
//	})
//	defer bus.Unsubscribe(sub)
//	_ = bus.Publish(ctx, "region.render", payload)
package event
