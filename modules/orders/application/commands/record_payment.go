package commands

import (
	"context"
	"fmt"

	"github.com/rai/shop-workflow-go/modules/orders/domain"
	"github.com/rai/shop-workflow-go/modules/orders/workflow"
	"github.com/rai/shop-workflow-go/modules/shared/types"
)

// RecordPaymentCommand books money received for (or refunded from) an
// order and optionally fires a transition in the same transaction, e.g.
// prepayment_deposited after a deposit or payment_refunded after a refund.
type RecordPaymentCommand struct {
	OrderID    string
	Amount     int64
	Currency   string
	Refund     bool
	Transition string
	Actor      string
}

type RecordPaymentHandler struct {
	uow     unitOfWork
	repo    domain.OrderRepository
	machine *workflow.Machine
}

func NewRecordPaymentHandler(deps Deps, machine *workflow.Machine) *RecordPaymentHandler {
	return &RecordPaymentHandler{
		uow:     newUnitOfWork(deps),
		repo:    deps.Repo,
		machine: machine,
	}
}

func (h *RecordPaymentHandler) Handle(ctx context.Context, cmd RecordPaymentCommand) (string, error) {
	orderID, err := types.ParseOrderID(cmd.OrderID)
	if err != nil {
		return "", fmt.Errorf("invalid order ID: %w", err)
	}
	amount, err := types.NewMoney(cmd.Amount, cmd.Currency)
	if err != nil {
		return "", fmt.Errorf("invalid amount: %w", err)
	}

	order, err := h.uow.run(ctx, orderID.String(), func(ctx context.Context) (*domain.Order, error) {
		order, err := h.repo.FindByID(ctx, orderID)
		if err != nil {
			return nil, fmt.Errorf("finding order: %w", err)
		}
		if cmd.Refund {
			err = order.RecordRefund(amount)
		} else {
			err = order.AddPayment(amount)
		}
		if err != nil {
			return nil, err
		}
		if cmd.Transition == "" {
			return order, nil
		}

		res, err := h.machine.Fire(ctx, order, cmd.Transition, workflow.Actor(cmd.Actor), workflow.Input{})
		if err != nil {
			return nil, err
		}
		return res.Order, nil
	})
	if err != nil {
		return "", err
	}
	return order.Status().String(), nil
}
