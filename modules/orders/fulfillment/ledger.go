package fulfillment

import (
	"context"
	"fmt"
	"time"

	"github.com/rai/shop-workflow-go/modules/orders/domain"
)

// Policy decides how ordered items are associated with deliveries.
type Policy int

const (
	// PolicyCommission puts every unfulfilled item into one delivery.
	PolicyCommission Policy = iota
	// PolicyPartial delivers only the requested quantities.
	PolicyPartial
)

func (p Policy) String() string {
	if p == PolicyPartial {
		return "partial"
	}
	return "commission"
}

// Ledger records deliveries against orders.
type Ledger struct {
	repo   Repository
	policy Policy
	now    func() time.Time
}

func NewLedger(repo Repository, policy Policy) *Ledger {
	return &Ledger{
		repo:   repo,
		policy: policy,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (l *Ledger) Policy() Policy { return l.policy }

// AssociateDelivery adds items to the order's open delivery, creating one if
// needed. Under PolicyCommission lines are ignored and all unfulfilled
// quantities are added. Under PolicyPartial only lines with a positive
// quantity for a non-canceled item are added. If the delivery ends up empty
// it is discarded and (nil, nil) is returned.
func (l *Ledger) AssociateDelivery(ctx context.Context, order *domain.Order, lines []domain.ItemQuantity) (*Delivery, error) {
	deliveries, err := l.repo.FindByOrder(ctx, order.ID())
	if err != nil {
		return nil, fmt.Errorf("loading deliveries: %w", err)
	}
	delivered := deliveredQuantities(deliveries)

	method := order.Extra().ShippingMethod()
	delivery := openDelivery(deliveries, method)
	isNew := delivery == nil
	if isNew {
		delivery = newDelivery(order.ID(), method, l.now())
	}

	if l.policy == PolicyCommission {
		lines = remainingLines(order, delivered)
	}

	added := 0
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		item, ok := order.Item(line.ItemID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownOrderItem, line.ItemID)
		}
		if item.Canceled {
			continue
		}
		if line.Quantity > item.Quantity-delivered[item.ID] {
			return nil, fmt.Errorf("%w: item %s", ErrQuantityExceeded, item.ID)
		}
		delivery.add(item.ID, line.Quantity)
		delivered[item.ID] += line.Quantity
		added++
	}

	if len(delivery.Items) == 0 {
		return nil, nil
	}
	if added == 0 && !isNew {
		return delivery, nil
	}
	if err := l.repo.Save(ctx, delivery); err != nil {
		return nil, fmt.Errorf("saving delivery: %w", err)
	}
	return delivery, nil
}

// UnfulfilledQuantity sums ordered minus delivered units over non-canceled items.
func (l *Ledger) UnfulfilledQuantity(ctx context.Context, order *domain.Order) (int, error) {
	deliveries, err := l.repo.FindByOrder(ctx, order.ID())
	if err != nil {
		return 0, fmt.Errorf("loading deliveries: %w", err)
	}
	delivered := deliveredQuantities(deliveries)

	var n int
	for _, item := range order.Items() {
		if item.Canceled {
			continue
		}
		n += item.Quantity - delivered[item.ID]
	}
	return n, nil
}

// ReadyForShipping reports whether some delivery has not been shipped yet.
func (l *Ledger) ReadyForShipping(ctx context.Context, order *domain.Order) (bool, error) {
	deliveries, err := l.repo.FindByOrder(ctx, order.ID())
	if err != nil {
		return false, fmt.Errorf("loading deliveries: %w", err)
	}
	for _, d := range deliveries {
		if !d.IsShipped() {
			return true, nil
		}
	}
	return false, nil
}

// AssignShippingID hands every open delivery to the carrier under shippingID.
func (l *Ledger) AssignShippingID(ctx context.Context, order *domain.Order, shippingID string) error {
	deliveries, err := l.repo.FindByOrder(ctx, order.ID())
	if err != nil {
		return fmt.Errorf("loading deliveries: %w", err)
	}
	for _, d := range deliveries {
		if !d.IsOpen() {
			continue
		}
		d.ShippingID = shippingID
		if err := l.repo.Save(ctx, d); err != nil {
			return fmt.Errorf("saving delivery: %w", err)
		}
	}
	return nil
}

// MarkShipped stamps every unshipped delivery of the order.
func (l *Ledger) MarkShipped(ctx context.Context, order *domain.Order) (int, error) {
	deliveries, err := l.repo.FindByOrder(ctx, order.ID())
	if err != nil {
		return 0, fmt.Errorf("loading deliveries: %w", err)
	}
	now := l.now()
	var n int
	for _, d := range deliveries {
		if d.IsShipped() {
			continue
		}
		d.ShippedAt = &now
		if err := l.repo.Save(ctx, d); err != nil {
			return n, fmt.Errorf("saving delivery: %w", err)
		}
		n++
	}
	return n, nil
}

// WithdrawOpen removes deliveries that were not yet handed to a carrier.
// Used when an order is canceled.
func (l *Ledger) WithdrawOpen(ctx context.Context, order *domain.Order) (int, error) {
	deliveries, err := l.repo.FindByOrder(ctx, order.ID())
	if err != nil {
		return 0, fmt.Errorf("loading deliveries: %w", err)
	}
	var n int
	for _, d := range deliveries {
		if !d.IsOpen() {
			continue
		}
		if err := l.repo.Delete(ctx, d.ID); err != nil {
			return n, fmt.Errorf("withdrawing delivery: %w", err)
		}
		n++
	}
	return n, nil
}

// Deliveries returns every delivery recorded for the order.
func (l *Ledger) Deliveries(ctx context.Context, order *domain.Order) ([]*Delivery, error) {
	return l.repo.FindByOrder(ctx, order.ID())
}

func deliveredQuantities(deliveries []*Delivery) map[string]int {
	delivered := make(map[string]int)
	for _, d := range deliveries {
		for _, it := range d.Items {
			delivered[it.OrderItemID] += it.Quantity
		}
	}
	return delivered
}

func openDelivery(deliveries []*Delivery, method string) *Delivery {
	for _, d := range deliveries {
		if d.IsOpen() && d.ShippingMethod == method {
			return d
		}
	}
	return nil
}

func remainingLines(order *domain.Order, delivered map[string]int) []domain.ItemQuantity {
	var lines []domain.ItemQuantity
	for _, item := range order.Items() {
		if rest := item.Quantity - delivered[item.ID]; rest > 0 {
			lines = append(lines, domain.ItemQuantity{ItemID: item.ID, Quantity: rest})
		}
	}
	return lines
}
