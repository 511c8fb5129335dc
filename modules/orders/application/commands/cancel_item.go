package commands

import (
	"context"
	"fmt"

	"github.com/rai/shop-workflow-go/modules/orders/domain"
	"github.com/rai/shop-workflow-go/modules/shared/types"
)

// CancelItemCommand excludes an ordered item from fulfillment.
type CancelItemCommand struct {
	OrderID string
	ItemID  string
}

type CancelItemHandler struct {
	uow  unitOfWork
	repo domain.OrderRepository
}

func NewCancelItemHandler(deps Deps) *CancelItemHandler {
	return &CancelItemHandler{uow: newUnitOfWork(deps), repo: deps.Repo}
}

func (h *CancelItemHandler) Handle(ctx context.Context, cmd CancelItemCommand) error {
	orderID, err := types.ParseOrderID(cmd.OrderID)
	if err != nil {
		return fmt.Errorf("invalid order ID: %w", err)
	}

	_, err = h.uow.run(ctx, orderID.String(), func(ctx context.Context) (*domain.Order, error) {
		order, err := h.repo.FindByID(ctx, orderID)
		if err != nil {
			return nil, fmt.Errorf("finding order: %w", err)
		}
		if err := order.CancelItem(cmd.ItemID); err != nil {
			return nil, err
		}
		return order, nil
	})
	return err
}
