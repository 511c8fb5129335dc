package queries

import (
	"context"

	"github.com/rai/shop-workflow-go/modules/orders/domain"
)

// ListOrdersByStatusQuery lists orders waiting in a status, e.g. the
// awaiting_payment backlog.
type ListOrdersByStatusQuery struct {
	Status string
	Offset int
	Limit  int
}

type ListOrdersResult struct {
	Orders []*OrderDTO `json:"orders"`
	Total  int         `json:"total"`
}

type ListOrdersByStatusHandler struct {
	repo domain.OrderRepository
}

func NewListOrdersByStatusHandler(repo domain.OrderRepository) *ListOrdersByStatusHandler {
	return &ListOrdersByStatusHandler{repo: repo}
}

func (h *ListOrdersByStatusHandler) Handle(ctx context.Context, query ListOrdersByStatusQuery) (*ListOrdersResult, error) {
	if query.Limit <= 0 || query.Limit > 100 {
		query.Limit = 20
	}
	if query.Offset < 0 {
		query.Offset = 0
	}

	orders, total, err := h.repo.FindByStatus(ctx, domain.Status(query.Status), query.Offset, query.Limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]*OrderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = toOrderDTO(o)
	}
	return &ListOrdersResult{Orders: dtos, Total: total}, nil
}
