package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rai/shop-workflow-go/modules/shared/events"
)

// ErrEventProcessingDepthExceeded is returned when event handlers
// trigger too many nested events.
var ErrEventProcessingDepthExceeded = errors.New("event processing depth exceeded")

// TransactionalEventBus buffers events raised inside a transaction and
// delivers them in order on Flush. Create one per transaction attempt:
//
//	var bus *eventbus.TransactionalEventBus
//	err := txScope.Execute(ctx, func(ctx context.Context) error {
//	    bus = eventbus.NewTransactional(registry, 10)
//	    // ... business logic ...
//	    return bus.Publish(ctx, order.PopDomainEvents()...)
//	})
//	if err == nil {
//	    err = bus.Flush(ctx)
//	}
type TransactionalEventBus struct {
	registry HandlerRegistry
	pending  []pendingEvent
	mu       sync.Mutex
	maxDepth int

	// depth of the event whose handlers are running, -1 outside Flush
	current int
}

type pendingEvent struct {
	event events.Event
	depth int
}

// NewTransactional limits nesting to maxDepth levels (default: 10). Events
// published before Flush are level 0; an event published by a handler is one
// level below the event it handles. The number of events per level is not
// limited.
func NewTransactional(registry HandlerRegistry, maxDepth int) *TransactionalEventBus {
	if maxDepth <= 0 {
		maxDepth = 10
	}
	return &TransactionalEventBus{
		registry: registry,
		maxDepth: maxDepth,
		current:  -1,
	}
}

// Publish buffers events until Flush. Implements events.Publisher.
func (b *TransactionalEventBus) Publish(ctx context.Context, evts ...events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range evts {
		b.pending = append(b.pending, pendingEvent{event: e, depth: b.current + 1})
	}
	return nil
}

// Flush delivers buffered events in publish order. Handlers may publish
// more events, which are delivered in the same flush. Every handler of an
// event runs even if an earlier one failed; the errors are joined.
func (b *TransactionalEventBus) Flush(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	defer func() { b.current = -1 }()

	var errs []error
	for len(b.pending) > 0 {
		next := b.pending[0]
		if next.depth >= b.maxDepth {
			return errors.Join(append(errs, ErrEventProcessingDepthExceeded)...)
		}
		b.pending = b.pending[1:]

		event := next.event
		for _, handler := range b.registry.HandlersFor(event.EventType()) {
			b.current = next.depth
			// Unlock during handler execution to allow Publish calls from handlers
			b.mu.Unlock()
			err := handler.Handle(ctx, event)
			b.mu.Lock()

			if err != nil {
				errs = append(errs, fmt.Errorf("handler failed for event %s: %w", event.EventType(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// PendingCount returns the number of buffered events.
func (b *TransactionalEventBus) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

var _ events.Publisher = (*TransactionalEventBus)(nil)
