// Package commands contains write use cases for the orders module.
package commands

import (
	"context"
	"fmt"

	"github.com/rai/shop-workflow-go/modules/orders/domain"
	"github.com/rai/shop-workflow-go/modules/orders/workflow"
	"github.com/rai/shop-workflow-go/modules/shared/types"
)

// CreateOrderCommand turns a purchased cart into an order.
type CreateOrderCommand struct {
	Number   string
	Customer CustomerInput
	Items    []ItemInput
	Currency string
	Extra    map[string]string
	Request  RequestInput
	// InitialTransition is fired right after creation, typically the payment
	// provider's awaiting_payment or no_payment_required. Empty selects
	// awaiting_payment, or no_payment_required for a zero total.
	InitialTransition string
}

type CustomerInput struct {
	Ref       string
	Email     string
	Name      string
	Anonymous bool
}

type ItemInput struct {
	ProductCode string
	ProductName string
	Quantity    int
	UnitAmount  int64
}

type RequestInput struct {
	Language        string
	AbsoluteBaseURI string
	UserAgent       string
	RemoteIP        string
}

type CreateOrderResult struct {
	OrderID string
	Number  string
	Status  string
}

type CreateOrderHandler struct {
	uow     unitOfWork
	machine *workflow.Machine
	schema  domain.ExtraSchema
}

func NewCreateOrderHandler(deps Deps, machine *workflow.Machine, schema domain.ExtraSchema) *CreateOrderHandler {
	return &CreateOrderHandler{
		uow:     newUnitOfWork(deps),
		machine: machine,
		schema:  schema,
	}
}

// Handle creates the order in the created status and fires the initial
// payment transition in the same transaction.
func (h *CreateOrderHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*CreateOrderResult, error) {
	order, err := h.newOrder(cmd)
	if err != nil {
		return nil, err
	}

	initial := cmd.InitialTransition
	if initial == "" {
		initial = "awaiting_payment"
		if order.Total().IsZero() {
			initial = "no_payment_required"
		}
	}

	saved, err := h.uow.run(ctx, "", func(ctx context.Context) (*domain.Order, error) {
		res, err := h.machine.Fire(ctx, order, initial, workflow.SystemActor, workflow.Input{})
		if err != nil {
			return nil, fmt.Errorf("firing %s: %w", initial, err)
		}
		return res.Order, nil
	})
	if err != nil {
		return nil, err
	}

	return &CreateOrderResult{
		OrderID: saved.ID().String(),
		Number:  saved.Number(),
		Status:  saved.Status().String(),
	}, nil
}

func (h *CreateOrderHandler) newOrder(cmd CreateOrderCommand) (*domain.Order, error) {
	customer, err := domain.NewCustomer(cmd.Customer.Ref, cmd.Customer.Email, cmd.Customer.Name, cmd.Customer.Anonymous)
	if err != nil {
		return nil, fmt.Errorf("invalid customer: %w", err)
	}
	request, err := domain.NewStoredRequest(cmd.Request.Language, cmd.Request.AbsoluteBaseURI, cmd.Request.UserAgent, cmd.Request.RemoteIP)
	if err != nil {
		return nil, fmt.Errorf("invalid request context: %w", err)
	}
	extra, err := h.schema.NewExtra(cmd.Extra)
	if err != nil {
		return nil, fmt.Errorf("invalid extra: %w", err)
	}

	specs := make([]domain.ItemSpec, len(cmd.Items))
	for i, it := range cmd.Items {
		price, err := types.NewMoney(it.UnitAmount, cmd.Currency)
		if err != nil {
			return nil, fmt.Errorf("invalid price for %s: %w", it.ProductCode, err)
		}
		specs[i] = domain.ItemSpec{
			ProductCode: it.ProductCode,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   price,
		}
	}
	return domain.NewOrder(cmd.Number, customer, specs, cmd.Currency, extra, request)
}
