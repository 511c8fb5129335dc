package workflow

import "github.com/rai/shop-workflow-go/modules/orders/domain"

// Module contributes states and transitions to the composed workflow.
type Module interface {
	Name() string
	States() []domain.Status
	Transitions() []Transition
}

// ExclusiveModule is implemented by modules of which at most one per group
// may be configured, such as the shipping workflows.
type ExclusiveModule interface {
	ExclusiveGroup() string
}

// CancelableSourceContributor adds statuses from which an order may be canceled.
type CancelableSourceContributor interface {
	CancelableSources() []domain.Status
}

// CancelableSourceConsumer receives the union of all contributed cancelable
// sources before its transitions are read.
type CancelableSourceConsumer interface {
	UseCancelableSources(sources []domain.Status)
}

// VerificationSourceContributor adds statuses from which an order may be
// sent to manual verification.
type VerificationSourceContributor interface {
	VerificationSources() []domain.Status
}

// VerificationSourceConsumer receives the union of all contributed
// verification sources before its transitions are read.
type VerificationSourceConsumer interface {
	UseVerificationSources(sources []domain.Status)
}
