package catalog

import (
	"github.com/rai/shop-workflow-go/modules/orders/domain"
	"github.com/rai/shop-workflow-go/modules/orders/workflow"
)

// Base declares the states every order goes through regardless of payment
// or shipping method.
type Base struct{}

func NewBase() *Base { return &Base{} }

func (*Base) Name() string { return NameBase }

func (*Base) States() []domain.Status {
	return []domain.Status{
		domain.StatusNew,
		domain.StatusCreated,
		domain.StatusPaymentConfirmed,
		domain.StatusPaymentDeclined,
	}
}

func (*Base) Transitions() []workflow.Transition { return nil }
