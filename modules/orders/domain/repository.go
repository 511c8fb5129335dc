package domain

import (
	"context"

	"github.com/rai/shop-workflow-go/modules/shared/types"
)

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	// Save persists the order if the stored version equals order.Version(),
	// then advances the version. A mismatch returns ErrConcurrentModification.
	Save(ctx context.Context, order *Order) error
	// FindByID returns ErrOrderNotFound if the order doesn't exist.
	FindByID(ctx context.Context, id types.OrderID) (*Order, error)
	FindByStatus(ctx context.Context, status Status, offset, limit int) ([]*Order, int, error)
}
