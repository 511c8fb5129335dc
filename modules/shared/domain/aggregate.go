// Package domain provides shared domain primitives.
package domain

import "github.com/rai/shop-workflow-go/modules/shared/events"

// AggregateRoot collects domain events raised by an aggregate.
// Embed this in aggregate structs:
//
//	type Order struct {
//	    domain.AggregateRoot
//	    id     types.OrderID
//	    status Status
//	}
//
//	func (o *Order) ApplyTransition(...) {
//	    o.status = to
//	    o.AddDomainEvent(NewTransitionCompletedEvent(o, ...))
//	}
type AggregateRoot struct {
	domainEvents []events.Event
}

// AddDomainEvent records an event to be published once the aggregate is saved.
func (a *AggregateRoot) AddDomainEvent(event events.Event) {
	a.domainEvents = append(a.domainEvents, event)
}

// DomainEvents returns all collected domain events.
func (a *AggregateRoot) DomainEvents() []events.Event {
	return a.domainEvents
}

// PopDomainEvents returns the collected events and clears the collection.
func (a *AggregateRoot) PopDomainEvents() []events.Event {
	evts := a.domainEvents
	a.domainEvents = nil
	return evts
}

// CopyDomainEvents returns a root holding a copy of the pending events.
// Used when cloning aggregates into a working copy.
func (a *AggregateRoot) CopyDomainEvents() AggregateRoot {
	evts := make([]events.Event, len(a.domainEvents))
	copy(evts, a.domainEvents)
	return AggregateRoot{domainEvents: evts}
}
