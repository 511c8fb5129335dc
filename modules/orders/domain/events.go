package domain

import (
	"github.com/rai/shop-workflow-go/modules/shared/events"
	"github.com/rai/shop-workflow-go/modules/shared/events/contracts"
)

const TransitionCompletedEventType = contracts.TransitionCompletedEventType

// NewTransitionCompletedEvent captures the order as it is right after rec was applied.
func NewTransitionCompletedEvent(o *Order, rec TransitionRecord) contracts.TransitionCompletedEvent {
	return contracts.TransitionCompletedEvent{
		BaseEvent:  events.NewBaseEvent(TransitionCompletedEventType, o.ID().String()),
		OrderID:    o.ID().String(),
		Transition: rec.Name,
		From:       rec.From.String(),
		To:         rec.To.String(),
		Automatic:  rec.Automatic,
		Actor:      rec.Actor,
		Order:      o.Snapshot(),
	}
}

// Snapshot returns the cross-module view of the order.
func (o *Order) Snapshot() contracts.OrderSnapshot {
	items := make([]contracts.ItemSnapshot, len(o.items))
	for i, it := range o.items {
		items[i] = contracts.ItemSnapshot{
			ID:          it.ID,
			ProductCode: it.ProductCode,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitAmount:  it.UnitPrice.Amount(),
			Canceled:    it.Canceled,
		}
	}
	return contracts.OrderSnapshot{
		Number: o.number,
		Status: o.status.String(),
		Customer: contracts.CustomerSnapshot{
			ID:        o.customer.Ref(),
			Email:     o.customer.Email(),
			Name:      o.customer.Name(),
			Anonymous: o.customer.IsAnonymous(),
		},
		Items:       items,
		TotalAmount: o.total.Amount(),
		AmountPaid:  o.amountPaid.Amount(),
		Currency:    o.total.Currency(),
		Extra:       o.extra.Map(),
		Request: contracts.RequestSnapshot{
			Language:        o.request.Language(),
			AbsoluteBaseURI: o.request.AbsoluteBaseURI(),
			UserAgent:       o.request.UserAgent(),
			RemoteIP:        o.request.RemoteIP(),
		},
	}
}
