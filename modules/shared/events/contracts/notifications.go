package contracts

import "github.com/rai/shop-workflow-go/modules/shared/events"

const (
	NotificationsQueuedEventType events.EventType = "notifications.NotificationsQueued"
)

// NotificationsQueuedEvent signals that at least one message was handed to the
// mail queue for a transition. It is published at most once per transition.
type NotificationsQueuedEvent struct {
	events.BaseEvent
	OrderID          string `json:"order_id"`
	TransitionTarget string `json:"transition_target"`
	Queued           int    `json:"queued"`
}
