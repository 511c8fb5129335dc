package commands

import (
	"context"
	"fmt"

	"github.com/rai/shop-workflow-go/modules/orders/domain"
	"github.com/rai/shop-workflow-go/modules/orders/workflow"
	"github.com/rai/shop-workflow-go/modules/shared/types"
)

// FireTransitionCommand requests a named transition on an order.
type FireTransitionCommand struct {
	OrderID    string
	Transition string
	Actor      string
	// Deliver selects item quantities for pack_goods under partial delivery.
	Deliver    []domain.ItemQuantity
	ShippingID string
}

type FireTransitionResult struct {
	OrderID string
	From    string
	Status  string
	Steps   []workflow.Step
	Version int64
}

type FireTransitionHandler struct {
	uow     unitOfWork
	repo    domain.OrderRepository
	machine *workflow.Machine
}

func NewFireTransitionHandler(deps Deps, machine *workflow.Machine) *FireTransitionHandler {
	return &FireTransitionHandler{
		uow:     newUnitOfWork(deps),
		repo:    deps.Repo,
		machine: machine,
	}
}

// Handle loads the order, fires the transition and its automatic
// follow-ups, and persists the result atomically. Notifications for every
// step are dispatched after commit.
func (h *FireTransitionHandler) Handle(ctx context.Context, cmd FireTransitionCommand) (*FireTransitionResult, error) {
	orderID, err := types.ParseOrderID(cmd.OrderID)
	if err != nil {
		return nil, fmt.Errorf("invalid order ID: %w", err)
	}
	actor := workflow.Actor(cmd.Actor)
	if actor == "" {
		actor = workflow.SystemActor
	}

	var from domain.Status
	var steps []workflow.Step
	order, err := h.uow.run(ctx, orderID.String(), func(ctx context.Context) (*domain.Order, error) {
		order, err := h.repo.FindByID(ctx, orderID)
		if err != nil {
			return nil, fmt.Errorf("finding order: %w", err)
		}
		from = order.Status()

		res, err := h.machine.Fire(ctx, order, cmd.Transition, actor, workflow.Input{
			Deliver:    cmd.Deliver,
			ShippingID: cmd.ShippingID,
		})
		if err != nil {
			return nil, err
		}
		steps = res.Steps
		return res.Order, nil
	})
	if err != nil {
		return nil, err
	}

	return &FireTransitionResult{
		OrderID: order.ID().String(),
		From:    from.String(),
		Status:  order.Status().String(),
		Steps:   steps,
		Version: order.Version(),
	}, nil
}
