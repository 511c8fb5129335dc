// Package catalog holds the workflow modules a deployment can compose:
// payment handling, shipping, cancellation and manual verification.
package catalog

import (
	"context"
	"fmt"

	"github.com/rai/shop-workflow-go/modules/orders/domain"
	"github.com/rai/shop-workflow-go/modules/orders/fulfillment"
	"github.com/rai/shop-workflow-go/modules/orders/workflow"
)

// Module names accepted by Build.
const (
	NameBase            = "base"
	NameManualPayment   = "manual_payment"
	NameInvoicePayment  = "invoice_payment"
	NameSimpleShipping  = "simple_shipping"
	NameCommissionGoods = "commission_goods"
	NamePartialDelivery = "partial_delivery"
	NameCancel          = "cancel"
	NameVerify          = "verify"
)

// Exclusive groups.
const (
	groupPayment  = "payment"
	groupShipping = "shipping"
)

// Ledger is the part of the fulfillment ledger used by transition bodies and guards.
type Ledger interface {
	AssociateDelivery(ctx context.Context, order *domain.Order, lines []domain.ItemQuantity) (*fulfillment.Delivery, error)
	UnfulfilledQuantity(ctx context.Context, order *domain.Order) (int, error)
	ReadyForShipping(ctx context.Context, order *domain.Order) (bool, error)
	AssignShippingID(ctx context.Context, order *domain.Order, shippingID string) error
	MarkShipped(ctx context.Context, order *domain.Order) (int, error)
	WithdrawOpen(ctx context.Context, order *domain.Order) (int, error)
}

// Refunder asks the payment provider to pay back what the customer paid.
type Refunder interface {
	Refund(ctx context.Context, order *domain.Order) error
}

// Dependencies are the collaborators shared by the modules.
type Dependencies struct {
	// Deliveries backs the ledgers of the delivery-based modules.
	Deliveries fulfillment.Repository
	// Refunder is optional; without it cancel_order only records the refund_payment status.
	Refunder Refunder
}

// Build instantiates the named modules in order.
func Build(names []string, deps Dependencies) ([]workflow.Module, error) {
	mods := make([]workflow.Module, 0, len(names))
	for _, name := range names {
		m, err := build(name, deps)
		if err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	return mods, nil
}

func build(name string, deps Dependencies) (workflow.Module, error) {
	switch name {
	case NameBase:
		return NewBase(), nil
	case NameManualPayment:
		return NewManualPayment(), nil
	case NameInvoicePayment:
		return NewInvoicePayment(), nil
	case NameSimpleShipping:
		return NewSimpleShipping(), nil
	case NameCommissionGoods:
		if deps.Deliveries == nil {
			return nil, fmt.Errorf("%s requires a delivery repository", name)
		}
		return NewCommissionGoods(fulfillment.NewLedger(deps.Deliveries, fulfillment.PolicyCommission)), nil
	case NamePartialDelivery:
		if deps.Deliveries == nil {
			return nil, fmt.Errorf("%s requires a delivery repository", name)
		}
		return NewPartialDelivery(fulfillment.NewLedger(deps.Deliveries, fulfillment.PolicyPartial)), nil
	case NameCancel:
		var ledger Ledger
		if deps.Deliveries != nil {
			ledger = fulfillment.NewLedger(deps.Deliveries, fulfillment.PolicyCommission)
		}
		return NewCancel(ledger, deps.Refunder), nil
	case NameVerify:
		return NewVerify(), nil
	default:
		return nil, fmt.Errorf("%w: %q", workflow.ErrUnknownModule, name)
	}
}
