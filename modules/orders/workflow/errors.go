package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rai/shop-workflow-go/modules/orders/domain"
)

// Sentinel errors returned by Machine.Fire. Use errors.Is() for matching:
//
//	if errors.Is(err, workflow.ErrGuardRejected) { ... }
var (
	// ErrIllegalTransition is returned when no transition of that name
	// accepts the order's current status.
	ErrIllegalTransition = errors.New("illegal transition")

	// ErrGuardRejected is returned when a guard evaluated to false.
	ErrGuardRejected = errors.New("guard rejected transition")

	// ErrInvalidDynamicTarget is returned when a dynamic transition resolved
	// to a status outside its declared candidates.
	ErrInvalidDynamicTarget = errors.New("dynamic target not among candidates")

	// ErrAutomaticTransitionCycle is returned when an automatic chain would
	// apply the same transition from the same status twice.
	ErrAutomaticTransitionCycle = errors.New("automatic transition cycle")

	// ErrAutomaticChainDepthExceeded is returned when an automatic chain is
	// longer than the configured maximum.
	ErrAutomaticChainDepthExceeded = errors.New("automatic transition chain too deep")

	// ErrExternalDependency is returned when a guard, body or target
	// resolver failed or timed out.
	ErrExternalDependency = errors.New("external dependency failure")
)

// Configuration errors returned by Compose and guard compilation.
var (
	ErrConflictingTransitions = errors.New("conflicting transitions")
	ErrUnknownState           = errors.New("unknown state")
	ErrExclusiveModules       = errors.New("mutually exclusive workflow modules")
	ErrUnknownTransition      = errors.New("unknown transition")
	ErrUnknownModule          = errors.New("unknown workflow module")
	ErrInvalidGuard           = errors.New("invalid guard expression")
)

// TransitionError carries the details of a failed Fire call.
// It matches both its Kind and its Cause with errors.Is.
type TransitionError struct {
	Kind       error
	Transition string
	From       domain.Status
	Guard      string
	Target     domain.Status
	Cause      error
}

func (e *TransitionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %q from %q", e.Kind, e.Transition, e.From)
	if e.Guard != "" {
		fmt.Fprintf(&b, " (guard %s)", e.Guard)
	}
	if e.Target != "" {
		fmt.Fprintf(&b, " (target %q)", e.Target)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *TransitionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}
