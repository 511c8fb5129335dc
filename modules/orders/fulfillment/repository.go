package fulfillment

import (
	"context"

	"github.com/rai/shop-workflow-go/modules/shared/types"
)

// Repository persists deliveries. Implementations join the transaction
// carried by ctx, so ledger writes commit or roll back with the order.
type Repository interface {
	FindByOrder(ctx context.Context, orderID types.OrderID) ([]*Delivery, error)
	Save(ctx context.Context, delivery *Delivery) error
	Delete(ctx context.Context, id string) error
}
