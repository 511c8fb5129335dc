// Package persistence implements repository interfaces for orders.
package persistence

import (
	"context"
	"slices"
	"sync"

	"github.com/rai/shop-workflow-go/modules/orders/domain"
	"github.com/rai/shop-workflow-go/modules/orders/fulfillment"
	"github.com/rai/shop-workflow-go/modules/shared/types"
)

// InMemoryRepository implements OrderRepository using in-memory storage.
// It stores copies, so callers never share an aggregate with the store.
type InMemoryRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		orders: make(map[string]*domain.Order),
	}
}

func (r *InMemoryRepository) Save(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stored int64
	if existing, ok := r.orders[order.ID().String()]; ok {
		stored = existing.Version()
	}
	if stored != order.Version() {
		return domain.ErrConcurrentModification
	}

	order.BumpVersion()
	c := order.Clone()
	c.PopDomainEvents()
	r.orders[order.ID().String()] = c
	return nil
}

func (r *InMemoryRepository) FindByID(ctx context.Context, id types.OrderID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, exists := r.orders[id.String()]
	if !exists {
		return nil, domain.ErrOrderNotFound
	}
	return order.Clone(), nil
}

func (r *InMemoryRepository) FindByStatus(ctx context.Context, status domain.Status, offset, limit int) ([]*domain.Order, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*domain.Order
	for _, order := range r.orders {
		if order.Status() == status {
			matched = append(matched, order)
		}
	}
	slices.SortFunc(matched, func(a, b *domain.Order) int {
		return b.CreatedAt().Compare(a.CreatedAt())
	})

	total := len(matched)
	if offset >= total {
		return []*domain.Order{}, total, nil
	}
	end := min(offset+limit, total)

	page := make([]*domain.Order, 0, end-offset)
	for _, o := range matched[offset:end] {
		page = append(page, o.Clone())
	}
	return page, total, nil
}

var _ domain.OrderRepository = (*InMemoryRepository)(nil)

// InMemoryDeliveryRepository implements fulfillment.Repository using
// in-memory storage.
type InMemoryDeliveryRepository struct {
	mu         sync.RWMutex
	deliveries map[string]*fulfillment.Delivery
}

func NewInMemoryDeliveryRepository() *InMemoryDeliveryRepository {
	return &InMemoryDeliveryRepository{
		deliveries: make(map[string]*fulfillment.Delivery),
	}
}

func (r *InMemoryDeliveryRepository) FindByOrder(ctx context.Context, orderID types.OrderID) ([]*fulfillment.Delivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*fulfillment.Delivery
	for _, d := range r.deliveries {
		if d.OrderID == orderID {
			result = append(result, copyDelivery(d))
		}
	}
	slices.SortFunc(result, func(a, b *fulfillment.Delivery) int {
		return a.FulfilledAt.Compare(b.FulfilledAt)
	})
	return result, nil
}

func (r *InMemoryDeliveryRepository) Save(ctx context.Context, delivery *fulfillment.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries[delivery.ID] = copyDelivery(delivery)
	return nil
}

func (r *InMemoryDeliveryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.deliveries, id)
	return nil
}

func copyDelivery(d *fulfillment.Delivery) *fulfillment.Delivery {
	c := *d
	c.Items = slices.Clone(d.Items)
	if d.ShippedAt != nil {
		t := *d.ShippedAt
		c.ShippedAt = &t
	}
	return &c
}

var _ fulfillment.Repository = (*InMemoryDeliveryRepository)(nil)
