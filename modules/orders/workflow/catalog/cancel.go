package catalog

import (
	"context"
	"fmt"
	"slices"

	"github.com/rai/shop-workflow-go/modules/orders/domain"
	"github.com/rai/shop-workflow-go/modules/orders/workflow"
)

// Cancel adds cancel_order. The statuses it may be fired from are the base
// set below plus whatever the other configured modules contribute.
type Cancel struct {
	ledger   Ledger
	refunder Refunder
	sources  []domain.Status
}

// NewCancel accepts nil collaborators: without a ledger no deliveries are
// withdrawn, without a refunder no refund is requested.
func NewCancel(ledger Ledger, refunder Refunder) *Cancel {
	return &Cancel{
		ledger:   ledger,
		refunder: refunder,
		sources: []domain.Status{
			domain.StatusNew,
			domain.StatusCreated,
			domain.StatusNoPaymentRequired,
			domain.StatusPaymentConfirmed,
			domain.StatusPaymentDeclined,
			domain.StatusOrderShipped,
		},
	}
}

func (*Cancel) Name() string { return NameCancel }

func (*Cancel) States() []domain.Status {
	return []domain.Status{domain.StatusRefundPayment, domain.StatusOrderCanceled}
}

func (c *Cancel) UseCancelableSources(sources []domain.Status) {
	for _, s := range sources {
		if !slices.Contains(c.sources, s) {
			c.sources = append(c.sources, s)
		}
	}
}

// Sources returns the statuses an order can be canceled from.
func (c *Cancel) Sources() []domain.Status {
	return slices.Clone(c.sources)
}

func (c *Cancel) Transitions() []workflow.Transition {
	return []workflow.Transition{
		{
			Name:       "cancel_order",
			AnySource:  true,
			Candidates: []domain.Status{domain.StatusRefundPayment, domain.StatusOrderCanceled},
			Resolve:    refundOrCancel,
			Guards:     []workflow.Guard{{Name: "can_be_canceled", Check: c.canBeCanceled}},
			Body:       c.cancel,
			Admin:      true,
			Label:      "Cancel Order",
		},
	}
}

func (c *Cancel) canBeCanceled(ctx context.Context, order *domain.Order) (bool, error) {
	return slices.Contains(c.sources, order.Status()), nil
}

// cancel asks for the refund before touching the ledger, so a refused
// refund leaves the deliveries in place.
func (c *Cancel) cancel(ctx context.Context, order *domain.Order, in workflow.Input) error {
	if c.refunder != nil && order.AmountPaid().IsPositive() {
		if err := c.refunder.Refund(ctx, order); err != nil {
			return fmt.Errorf("requesting refund: %w", err)
		}
	}
	if c.ledger != nil {
		if _, err := c.ledger.WithdrawOpen(ctx, order); err != nil {
			return fmt.Errorf("withdrawing deliveries: %w", err)
		}
	}
	return nil
}
