package catalog

import (
	"slices"

	"github.com/rai/shop-workflow-go/modules/orders/domain"
	"github.com/rai/shop-workflow-go/modules/orders/workflow"
)

// Verify lets staff hold an order for manual verification.
type Verify struct {
	sources []domain.Status
}

func NewVerify() *Verify {
	return &Verify{
		sources: []domain.Status{
			domain.StatusCreated,
			domain.StatusNoPaymentRequired,
			domain.StatusPaymentConfirmed,
			domain.StatusPaymentDeclined,
			domain.StatusOrderShipped,
		},
	}
}

func (*Verify) Name() string { return NameVerify }

func (*Verify) States() []domain.Status {
	return []domain.Status{domain.StatusNeedsVerification}
}

func (v *Verify) UseVerificationSources(sources []domain.Status) {
	for _, s := range sources {
		if !slices.Contains(v.sources, s) {
			v.sources = append(v.sources, s)
		}
	}
}

func (v *Verify) Transitions() []workflow.Transition {
	return []workflow.Transition{
		{
			Name:    "verify_order",
			Sources: slices.Clone(v.sources),
			Target:  domain.StatusNeedsVerification,
			Admin:   true,
			Label:   "Needs verification",
		},
	}
}
