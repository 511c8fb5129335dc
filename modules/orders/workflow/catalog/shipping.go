package catalog

import (
	"context"

	"github.com/rai/shop-workflow-go/modules/orders/domain"
	"github.com/rai/shop-workflow-go/modules/orders/workflow"
)

func shippingStates() []domain.Status {
	return []domain.Status{
		domain.StatusGoodsPicked,
		domain.StatusGoodsPacked,
		domain.StatusShippingPrepared,
		domain.StatusOrderShipped,
		domain.StatusOrderCompleted,
	}
}

func shippingCancelableSources() []domain.Status {
	return []domain.Status{
		domain.StatusNew,
		domain.StatusCreated,
		domain.StatusNoPaymentRequired,
		domain.StatusPaymentConfirmed,
		domain.StatusNeedsVerification,
		domain.StatusPaymentDeclined,
		domain.StatusGoodsPacked,
	}
}

func shippingVerificationSources() []domain.Status {
	return []domain.Status{
		domain.StatusCreated,
		domain.StatusNoPaymentRequired,
		domain.StatusPaymentConfirmed,
		domain.StatusPaymentDeclined,
		domain.StatusGoodsPicked,
		domain.StatusGoodsPacked,
		domain.StatusShippingPrepared,
		domain.StatusOrderShipped,
		domain.StatusOrderCompleted,
	}
}

// SimpleShipping tracks picking, packing and shipping on the order status
// only. It records no deliveries.
type SimpleShipping struct{}

func NewSimpleShipping() *SimpleShipping { return &SimpleShipping{} }

func (*SimpleShipping) Name() string                         { return NameSimpleShipping }
func (*SimpleShipping) ExclusiveGroup() string               { return groupShipping }
func (*SimpleShipping) States() []domain.Status              { return shippingStates() }
func (*SimpleShipping) CancelableSources() []domain.Status   { return shippingCancelableSources() }
func (*SimpleShipping) VerificationSources() []domain.Status { return shippingVerificationSources() }
func (*SimpleShipping) Transitions() []workflow.Transition   { return simpleShippingTransitions(nil, nil, nil) }

// simpleShippingTransitions builds the shipping transitions with optional bodies.
func simpleShippingTransitions(pack, prepare, ship workflow.BodyFunc) []workflow.Transition {
	return []workflow.Transition{
		{
			Name:    "pick_goods",
			Sources: []domain.Status{domain.StatusNoPaymentRequired, domain.StatusPaymentConfirmed, domain.StatusNeedsVerification},
			Target:  domain.StatusGoodsPicked,
			Admin:   true,
			Label:   "Pick the goods",
		},
		{
			Name:    "pack_goods",
			Sources: []domain.Status{domain.StatusGoodsPicked, domain.StatusNeedsVerification},
			Target:  domain.StatusGoodsPacked,
			Body:    pack,
			Admin:   true,
			Label:   "Pack the goods",
		},
		{
			Name:    "prepare_shipping",
			Sources: []domain.Status{domain.StatusGoodsPacked, domain.StatusNeedsVerification},
			Target:  domain.StatusShippingPrepared,
			Body:    prepare,
			Admin:   true,
			Label:   "Prepare shipping",
		},
		shipOrder(ship),
		completeOrder(),
	}
}

func shipOrder(body workflow.BodyFunc) workflow.Transition {
	return workflow.Transition{
		Name:      "ship_order",
		Sources:   []domain.Status{domain.StatusShippingPrepared},
		Target:    domain.StatusOrderShipped,
		Body:      body,
		Automatic: true,
	}
}

func completeOrder() workflow.Transition {
	return workflow.Transition{
		Name:    "complete_order",
		Sources: []domain.Status{domain.StatusOrderShipped, domain.StatusNeedsVerification},
		Target:  domain.StatusOrderCompleted,
		Admin:   true,
		Label:   "Order completed",
	}
}

// CommissionGoods ships all ordered items in one common delivery.
type CommissionGoods struct {
	ledger Ledger
}

func NewCommissionGoods(ledger Ledger) *CommissionGoods {
	return &CommissionGoods{ledger: ledger}
}

func (*CommissionGoods) Name() string                         { return NameCommissionGoods }
func (*CommissionGoods) ExclusiveGroup() string               { return groupShipping }
func (*CommissionGoods) States() []domain.Status              { return shippingStates() }
func (*CommissionGoods) CancelableSources() []domain.Status   { return shippingCancelableSources() }
func (*CommissionGoods) VerificationSources() []domain.Status { return shippingVerificationSources() }

func (c *CommissionGoods) Transitions() []workflow.Transition {
	return simpleShippingTransitions(c.associateAll, assignShippingID(c.ledger), markShipped(c.ledger))
}

func (c *CommissionGoods) associateAll(ctx context.Context, order *domain.Order, in workflow.Input) error {
	_, err := c.ledger.AssociateDelivery(ctx, order, nil)
	return err
}

// PartialDelivery lets staff ship ordered items over several deliveries.
// Picking restarts from any status as long as paid items remain unfulfilled.
type PartialDelivery struct {
	ledger Ledger
}

func NewPartialDelivery(ledger Ledger) *PartialDelivery {
	return &PartialDelivery{ledger: ledger}
}

func (*PartialDelivery) Name() string                         { return NamePartialDelivery }
func (*PartialDelivery) ExclusiveGroup() string               { return groupShipping }
func (*PartialDelivery) States() []domain.Status              { return shippingStates() }
func (*PartialDelivery) CancelableSources() []domain.Status   { return shippingCancelableSources() }
func (*PartialDelivery) VerificationSources() []domain.Status { return shippingVerificationSources() }

func (p *PartialDelivery) Transitions() []workflow.Transition {
	return []workflow.Transition{
		{
			Name:      "pick_goods",
			AnySource: true,
			Target:    domain.StatusGoodsPicked,
			Guards:    []workflow.Guard{{Name: "ready_for_picking", Check: p.readyForPicking}},
			Admin:     true,
			Label:     "Pick the goods",
		},
		{
			Name:    "pack_goods",
			Sources: []domain.Status{domain.StatusGoodsPicked},
			Target:  domain.StatusGoodsPacked,
			Body:    p.associateSelected,
			Admin:   true,
			Label:   "Pack the goods",
		},
		{
			Name:      "prepare_shipping",
			AnySource: true,
			Target:    domain.StatusShippingPrepared,
			Guards:    []workflow.Guard{{Name: "ready_for_shipping", Check: p.readyForShipping}},
			Body:      assignShippingID(p.ledger),
			Admin:     true,
			Label:     "Prepare Shipping",
		},
		shipOrder(markShipped(p.ledger)),
		completeOrder(),
	}
}

func (p *PartialDelivery) readyForPicking(ctx context.Context, order *domain.Order) (bool, error) {
	if !order.IsFullyPaid() {
		return false, nil
	}
	n, err := p.ledger.UnfulfilledQuantity(ctx, order)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (p *PartialDelivery) readyForShipping(ctx context.Context, order *domain.Order) (bool, error) {
	return p.ledger.ReadyForShipping(ctx, order)
}

func (p *PartialDelivery) associateSelected(ctx context.Context, order *domain.Order, in workflow.Input) error {
	_, err := p.ledger.AssociateDelivery(ctx, order, in.Deliver)
	return err
}

func assignShippingID(ledger Ledger) workflow.BodyFunc {
	return func(ctx context.Context, order *domain.Order, in workflow.Input) error {
		if in.ShippingID == "" {
			return nil
		}
		return ledger.AssignShippingID(ctx, order, in.ShippingID)
	}
}

func markShipped(ledger Ledger) workflow.BodyFunc {
	return func(ctx context.Context, order *domain.Order, in workflow.Input) error {
		_, err := ledger.MarkShipped(ctx, order)
		return err
	}
}
