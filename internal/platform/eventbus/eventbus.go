// Package eventbus provides event infrastructure for inter-module communication.
package eventbus

import (
	"context"
	"log/slog"

	"github.com/rai/shop-workflow-go/modules/shared/events"
)

// InMemoryEventBus delivers events synchronously to the handlers of a
// registry. A failing handler is logged and does not stop the others.
// Use it for events raised outside a transaction; within one, use
// TransactionalEventBus.
type InMemoryEventBus struct {
	registry HandlerRegistry
	logger   *slog.Logger
}

func New(registry HandlerRegistry, logger *slog.Logger) *InMemoryEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventBus{registry: registry, logger: logger}
}

// Publish implements events.Publisher.
func (b *InMemoryEventBus) Publish(ctx context.Context, evts ...events.Event) error {
	for _, event := range evts {
		handlers := b.registry.HandlersFor(event.EventType())
		b.logger.Debug("publishing event",
			slog.String("event_type", event.EventType().String()),
			slog.String("event_id", event.EventID()),
			slog.Int("handler_count", len(handlers)),
		)

		for _, handler := range handlers {
			if err := handler.Handle(ctx, event); err != nil {
				b.logger.Error("event handler failed",
					slog.String("event_type", event.EventType().String()),
					slog.String("event_id", event.EventID()),
					slog.Any("error", err),
				)
			}
		}
	}
	return nil
}

var _ events.Publisher = (*InMemoryEventBus)(nil)
