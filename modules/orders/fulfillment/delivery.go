// Package fulfillment tracks which ordered quantities were handed to which
// shipment.
package fulfillment

import (
	"time"

	"github.com/google/uuid"

	"github.com/rai/shop-workflow-go/modules/shared/types"
)

// Delivery is a shipment record for a subset of an order's items.
// A Delivery without items is never persisted.
type Delivery struct {
	ID             string
	OrderID        types.OrderID
	ShippingID     string
	ShippingMethod string
	FulfilledAt    time.Time
	ShippedAt      *time.Time
	Items          []DeliveryItem
}

// DeliveryItem records how many units of an order item a delivery carries.
type DeliveryItem struct {
	OrderItemID string
	Quantity    int
}

func newDelivery(orderID types.OrderID, shippingMethod string, now time.Time) *Delivery {
	return &Delivery{
		ID:             uuid.New().String(),
		OrderID:        orderID,
		ShippingMethod: shippingMethod,
		FulfilledAt:    now,
	}
}

// IsOpen reports whether items can still be added: no shipping ID assigned
// and not yet shipped.
func (d *Delivery) IsOpen() bool {
	return d.ShippingID == "" && d.ShippedAt == nil
}

// IsShipped reports whether the carrier picked up the delivery.
func (d *Delivery) IsShipped() bool {
	return d.ShippedAt != nil
}

// Quantity returns the units of itemID carried by this delivery.
func (d *Delivery) Quantity(itemID string) int {
	var n int
	for _, it := range d.Items {
		if it.OrderItemID == itemID {
			n += it.Quantity
		}
	}
	return n
}

func (d *Delivery) add(itemID string, quantity int) {
	for i := range d.Items {
		if d.Items[i].OrderItemID == itemID {
			d.Items[i].Quantity += quantity
			return
		}
	}
	d.Items = append(d.Items, DeliveryItem{OrderItemID: itemID, Quantity: quantity})
}
