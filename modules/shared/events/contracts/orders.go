// Package contracts defines public event contracts for inter-module communication.
// Modules should import event types from here, NOT from other module's domain packages.
package contracts

import "github.com/rai/shop-workflow-go/modules/shared/events"

const (
	TransitionCompletedEventType events.EventType = "orders.TransitionCompleted"
)

// TransitionCompletedEvent is published once per applied transition, after the
// new status has been committed. Automatic follow-ups produce their own events
// in the order they were applied.
type TransitionCompletedEvent struct {
	events.BaseEvent
	OrderID    string        `json:"order_id"`
	Transition string        `json:"transition"`
	From       string        `json:"from"`
	To         string        `json:"to"`
	Automatic  bool          `json:"automatic"`
	Actor      string        `json:"actor"`
	Order      OrderSnapshot `json:"order"`
}

// OrderSnapshot is the read-only view of an order handed to other modules.
type OrderSnapshot struct {
	Number      string            `json:"number"`
	Status      string            `json:"status"`
	Customer    CustomerSnapshot  `json:"customer"`
	Items       []ItemSnapshot    `json:"items"`
	TotalAmount int64             `json:"total_amount"`
	AmountPaid  int64             `json:"amount_paid"`
	Currency    string            `json:"currency"`
	Extra       map[string]string `json:"extra,omitempty"`
	Request     RequestSnapshot   `json:"request"`
}

type CustomerSnapshot struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Anonymous bool   `json:"anonymous"`
}

type ItemSnapshot struct {
	ID          string `json:"id"`
	ProductCode string `json:"product_code"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitAmount  int64  `json:"unit_amount"`
	Canceled    bool   `json:"canceled"`
}

// RequestSnapshot is the request context stored at checkout.
type RequestSnapshot struct {
	Language        string `json:"language"`
	AbsoluteBaseURI string `json:"absolute_base_uri"`
	UserAgent       string `json:"user_agent"`
	RemoteIP        string `json:"remote_ip"`
}
