package eventhandlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rai/shop-workflow-go/modules/shared/events"
	"github.com/rai/shop-workflow-go/modules/shared/events/contracts"
)

// Submitter accepts transitions for asynchronous notification dispatch.
type Submitter interface {
	Submit(ctx context.Context, evt contracts.TransitionCompletedEvent) error
}

// TransitionCompletedHandler hands completed transitions to the dispatcher.
//
// It runs after the order commit and only queues the event, so a slow mail
// backend never holds the order lock. Redelivery is absorbed by the
// dispatcher's (event, rule) dedupe.
type TransitionCompletedHandler struct {
	submitter Submitter
	logger    *slog.Logger
}

func NewTransitionCompletedHandler(submitter Submitter, logger *slog.Logger) *TransitionCompletedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransitionCompletedHandler{submitter: submitter, logger: logger}
}

func (h *TransitionCompletedHandler) Handle(ctx context.Context, event events.Event) error {
	var evt contracts.TransitionCompletedEvent
	switch e := event.(type) {
	case contracts.TransitionCompletedEvent:
		evt = e
	case *contracts.TransitionCompletedEvent:
		evt = *e
	default:
		return fmt.Errorf("unexpected event %T for %s", event, event.EventType())
	}

	if err := h.submitter.Submit(ctx, evt); err != nil {
		return fmt.Errorf("submitting %s for order %s: %w", evt.To, evt.OrderID, err)
	}
	h.logger.Debug("transition submitted for notification",
		slog.String("order_id", evt.OrderID),
		slog.String("transition", evt.Transition),
		slog.String("to", evt.To),
	)
	return nil
}
