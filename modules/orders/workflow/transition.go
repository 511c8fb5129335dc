// Package workflow composes order workflow modules into a transition table
// and fires transitions against orders.
package workflow

import (
	"context"
	"slices"

	"github.com/rai/shop-workflow-go/modules/orders/domain"
)

// Actor identifies who requested a transition.
type Actor string

// SystemActor fires automatic transitions.
const SystemActor Actor = "system"

// GuardFunc reports whether a transition may fire. An error means the guard
// could not be evaluated.
type GuardFunc func(ctx context.Context, order *domain.Order) (bool, error)

// Guard is a named precondition. The name is reported when it rejects.
type Guard struct {
	Name  string
	Check GuardFunc
}

// Input carries caller-supplied data for transition bodies.
type Input struct {
	// Deliver selects item quantities for partial delivery.
	Deliver []domain.ItemQuantity
	// ShippingID is the carrier's tracking reference.
	ShippingID string
}

// BodyFunc performs the side effects of a transition on the working copy.
type BodyFunc func(ctx context.Context, order *domain.Order, in Input) error

// ResolveFunc picks the target of a dynamic transition. It runs after the body.
type ResolveFunc func(ctx context.Context, order *domain.Order) (domain.Status, error)

// Transition describes a named state change.
type Transition struct {
	Name string
	// Sources lists the accepted statuses. AnySource accepts every status.
	Sources   []domain.Status
	AnySource bool
	// Target is the fixed destination. Dynamic transitions leave it empty and
	// set Candidates and Resolve instead.
	Target     domain.Status
	Candidates []domain.Status
	Resolve    ResolveFunc
	Guards     []Guard
	Body       BodyFunc
	// Automatic transitions fire on their own once the order reaches a source.
	Automatic bool
	// Admin transitions are offered to staff, with Label as button caption.
	Admin bool
	Label string
}

// IsDynamic reports whether the target is resolved at fire time.
func (t Transition) IsDynamic() bool {
	return t.Resolve != nil
}

// Targets returns every status the transition may land in.
func (t Transition) Targets() []domain.Status {
	if t.IsDynamic() {
		return t.Candidates
	}
	return []domain.Status{t.Target}
}

// Accepts reports whether s is a valid source.
func (t Transition) Accepts(s domain.Status) bool {
	return t.AnySource || slices.Contains(t.Sources, s)
}

func (t Transition) overlaps(other Transition) bool {
	if t.AnySource || other.AnySource {
		return true
	}
	for _, s := range t.Sources {
		if other.Accepts(s) {
			return true
		}
	}
	return false
}
