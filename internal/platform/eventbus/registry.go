package eventbus

import (
	"log/slog"
	"sync"

	"github.com/rai/shop-workflow-go/modules/shared/events"
)

// HandlerRegistry provides access to registered event handlers.
type HandlerRegistry interface {
	// HandlersFor returns all handlers registered for the given event type.
	HandlersFor(eventType events.EventType) []events.Handler
}

// EventHandlerRegistry manages event handler subscriptions. Modules
// subscribe once at startup; both bus implementations read from it.
type EventHandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[events.EventType][]events.Handler
	logger   *slog.Logger
}

func NewEventHandlerRegistry(logger *slog.Logger) *EventHandlerRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHandlerRegistry{
		handlers: make(map[events.EventType][]events.Handler),
		logger:   logger,
	}
}

// Subscribe implements events.Subscriber.
func (r *EventHandlerRegistry) Subscribe(eventType events.EventType, handler events.Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[eventType] = append(r.handlers[eventType], handler)
	r.logger.Debug("subscribed to event", slog.String("event_type", eventType.String()))
	return nil
}

// HandlersFor returns a copy of the handlers slice.
func (r *EventHandlerRegistry) HandlersFor(eventType events.EventType) []events.Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handlers := r.handlers[eventType]
	result := make([]events.Handler, len(handlers))
	copy(result, handlers)
	return result
}

var (
	_ events.Subscriber = (*EventHandlerRegistry)(nil)
	_ HandlerRegistry   = (*EventHandlerRegistry)(nil)
)
