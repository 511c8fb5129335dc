package catalog

import (
	"context"

	"github.com/rai/shop-workflow-go/modules/orders/domain"
	"github.com/rai/shop-workflow-go/modules/orders/workflow"
)

// ManualPayment handles forward-fund payments: the order waits until staff
// records the money as received.
type ManualPayment struct{}

func NewManualPayment() *ManualPayment { return &ManualPayment{} }

func (*ManualPayment) Name() string           { return NameManualPayment }
func (*ManualPayment) ExclusiveGroup() string { return groupPayment }

func (*ManualPayment) States() []domain.Status {
	return []domain.Status{
		domain.StatusAwaitingPayment,
		domain.StatusPrepaymentDeposited,
		domain.StatusNoPaymentRequired,
	}
}

func (m *ManualPayment) CancelableSources() []domain.Status {
	return m.States()
}

func (*ManualPayment) Transitions() []workflow.Transition {
	return []workflow.Transition{
		{
			Name:    "no_payment_required",
			Sources: []domain.Status{domain.StatusCreated},
			Target:  domain.StatusNoPaymentRequired,
		},
		{
			Name:    "awaiting_payment",
			Sources: []domain.Status{domain.StatusCreated},
			Target:  domain.StatusAwaitingPayment,
		},
		{
			Name:       "prepayment_deposited",
			Sources:    []domain.Status{domain.StatusAwaitingPayment},
			Candidates: []domain.Status{domain.StatusAwaitingPayment, domain.StatusPrepaymentDeposited},
			Resolve: func(ctx context.Context, order *domain.Order) (domain.Status, error) {
				if order.IsFullyPaid() {
					return domain.StatusPrepaymentDeposited, nil
				}
				return domain.StatusAwaitingPayment, nil
			},
			Guards: []workflow.Guard{{Name: "payment_deposited", Check: paymentDeposited}},
			Admin:  true,
			Label:  "Payment Received",
		},
		{
			Name:      "acknowledge_prepayment",
			Sources:   []domain.Status{domain.StatusPrepaymentDeposited, domain.StatusNoPaymentRequired},
			Target:    domain.StatusPaymentConfirmed,
			Automatic: true,
		},
		{
			Name:       "payment_refunded",
			Sources:    []domain.Status{domain.StatusRefundPayment},
			Candidates: []domain.Status{domain.StatusRefundPayment, domain.StatusOrderCanceled},
			Resolve:    refundOrCancel,
			Admin:      true,
			Label:      "Mark as Refunded",
		},
	}
}

func paymentDeposited(ctx context.Context, order *domain.Order) (bool, error) {
	return order.AmountPaid().IsPositive(), nil
}

// refundOrCancel keeps the order in refund_payment while money is still held.
func refundOrCancel(ctx context.Context, order *domain.Order) (domain.Status, error) {
	if order.AmountPaid().IsPositive() {
		return domain.StatusRefundPayment, nil
	}
	return domain.StatusOrderCanceled, nil
}

// InvoicePayment lets orders proceed immediately; the customer pays on invoice.
type InvoicePayment struct{}

func NewInvoicePayment() *InvoicePayment { return &InvoicePayment{} }

func (*InvoicePayment) Name() string           { return NameInvoicePayment }
func (*InvoicePayment) ExclusiveGroup() string { return groupPayment }

func (*InvoicePayment) States() []domain.Status {
	return []domain.Status{domain.StatusNoPaymentRequired}
}

func (p *InvoicePayment) CancelableSources() []domain.Status {
	return p.States()
}

func (*InvoicePayment) Transitions() []workflow.Transition {
	return []workflow.Transition{
		{
			Name:    "no_payment_required",
			Sources: []domain.Status{domain.StatusCreated},
			Target:  domain.StatusNoPaymentRequired,
		},
	}
}
