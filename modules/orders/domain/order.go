// Package domain contains business entities and rules for orders.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	shareddomain "github.com/rai/shop-workflow-go/modules/shared/domain"
	"github.com/rai/shop-workflow-go/modules/shared/types"
)

// Order is the aggregate root for the order bounded context.
// Its status changes only through named workflow transitions.
type Order struct {
	shareddomain.AggregateRoot

	id         types.OrderID
	number     string
	customer   Customer
	items      []OrderItem
	status     Status
	total      types.Money
	amountPaid types.Money
	extra      Extra
	request    StoredRequest
	version    int64
	createdAt  time.Time
	updatedAt  time.Time
}

// OrderItem represents a line item in an order.
type OrderItem struct {
	ID          string
	ProductCode string
	ProductName string
	Quantity    int
	UnitPrice   types.Money
	Canceled    bool
}

func (i OrderItem) Subtotal() types.Money {
	return i.UnitPrice.Multiply(int64(i.Quantity))
}

// ItemSpec describes a cart line turned into an order item at checkout.
type ItemSpec struct {
	ProductCode string
	ProductName string
	Quantity    int
	UnitPrice   types.Money
}

// ItemQuantity selects a quantity of an ordered item.
type ItemQuantity struct {
	ItemID   string
	Quantity int
}

// NewOrder creates an order in the created state from the purchased cart lines.
func NewOrder(number string, customer Customer, specs []ItemSpec, currency string, extra Extra, request StoredRequest) (*Order, error) {
	if len(specs) == 0 {
		return nil, ErrOrderEmpty
	}
	zero, err := types.NewMoney(0, currency)
	if err != nil {
		return nil, err
	}

	items := make([]OrderItem, 0, len(specs))
	for _, s := range specs {
		if s.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if s.UnitPrice.Currency() != currency {
			return nil, fmt.Errorf("item %s: %w", s.ProductCode, types.ErrCurrencyMismatch)
		}
		items = append(items, OrderItem{
			ID:          uuid.New().String(),
			ProductCode: s.ProductCode,
			ProductName: s.ProductName,
			Quantity:    s.Quantity,
			UnitPrice:   s.UnitPrice,
		})
	}
	if number == "" {
		number = newOrderNumber()
	}

	now := time.Now().UTC()
	o := &Order{
		id:         types.NewOrderID(),
		number:     number,
		customer:   customer,
		items:      items,
		status:     StatusCreated,
		amountPaid: zero,
		extra:      extra,
		request:    request,
		createdAt:  now,
		updatedAt:  now,
	}
	o.recalculateTotal()
	return o, nil
}

// Reconstitute rebuilds an order from persistence.
func Reconstitute(
	id types.OrderID,
	number string,
	customer Customer,
	items []OrderItem,
	status Status,
	total, amountPaid types.Money,
	extra Extra,
	request StoredRequest,
	version int64,
	createdAt, updatedAt time.Time,
) *Order {
	return &Order{
		id:         id,
		number:     number,
		customer:   customer,
		items:      items,
		status:     status,
		total:      total,
		amountPaid: amountPaid,
		extra:      extra,
		request:    request,
		version:    version,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// Getters

func (o *Order) ID() types.OrderID            { return o.id }
func (o *Order) Number() string               { return o.number }
func (o *Order) Customer() Customer           { return o.customer }
func (o *Order) Status() Status               { return o.status }
func (o *Order) Total() types.Money           { return o.total }
func (o *Order) AmountPaid() types.Money      { return o.amountPaid }
func (o *Order) Extra() Extra                 { return o.extra }
func (o *Order) StoredRequest() StoredRequest { return o.request }
func (o *Order) Version() int64               { return o.version }
func (o *Order) CreatedAt() time.Time         { return o.createdAt }
func (o *Order) UpdatedAt() time.Time         { return o.updatedAt }

// Items returns a copy of the order's items.
func (o *Order) Items() []OrderItem {
	items := make([]OrderItem, len(o.items))
	copy(items, o.items)
	return items
}

// Item looks up an item by ID.
func (o *Order) Item(id string) (OrderItem, bool) {
	for _, it := range o.items {
		if it.ID == id {
			return it, true
		}
	}
	return OrderItem{}, false
}

// IsFullyPaid reports whether the amount paid covers the total.
func (o *Order) IsFullyPaid() bool {
	return o.amountPaid.GreaterOrEqual(o.total)
}

// Business methods

// AddPayment records money received for this order.
func (o *Order) AddPayment(amount types.Money) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	paid, err := o.amountPaid.Add(amount)
	if err != nil {
		return err
	}
	o.amountPaid = paid
	o.updatedAt = time.Now().UTC()
	return nil
}

// RecordRefund records money paid back to the customer.
func (o *Order) RecordRefund(amount types.Money) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !o.amountPaid.GreaterOrEqual(amount) {
		return ErrRefundExceedsPayment
	}
	paid, err := o.amountPaid.Subtract(amount)
	if err != nil {
		return err
	}
	o.amountPaid = paid
	o.updatedAt = time.Now().UTC()
	return nil
}

// CancelItem excludes an item from fulfillment and from the total.
func (o *Order) CancelItem(itemID string) error {
	for i := range o.items {
		if o.items[i].ID == itemID {
			o.items[i].Canceled = true
			o.recalculateTotal()
			o.updatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrItemNotFound
}

// TransitionRecord describes one applied workflow transition.
type TransitionRecord struct {
	Name      string
	From      Status
	To        Status
	Actor     string
	Automatic bool
}

// ApplyTransition moves the order to rec.To and raises a
// TransitionCompletedEvent. Only the workflow engine calls this.
func (o *Order) ApplyTransition(rec TransitionRecord) {
	o.status = rec.To
	o.updatedAt = time.Now().UTC()
	o.AddDomainEvent(NewTransitionCompletedEvent(o, rec))
}

// BumpVersion advances the optimistic-concurrency version after a save.
func (o *Order) BumpVersion() {
	o.version++
}

// Clone returns a deep copy used as the working copy of a transition.
func (o *Order) Clone() *Order {
	c := *o
	c.AggregateRoot = o.CopyDomainEvents()
	c.items = o.Items()
	c.extra = RestoreExtra(o.extra.Map())
	return &c
}

func (o *Order) recalculateTotal() {
	var sum int64
	for _, item := range o.items {
		if item.Canceled {
			continue
		}
		sum += item.Subtotal().Amount()
	}
	o.total = types.MustNewMoney(sum, o.amountPaid.Currency())
}

func newOrderNumber() string {
	return fmt.Sprintf("%s-%s", time.Now().UTC().Format("2006"), uuid.New().String()[:8])
}
