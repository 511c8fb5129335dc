// Package queries contains read use cases for the orders module.
package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/rai/shop-workflow-go/modules/orders/domain"
	"github.com/rai/shop-workflow-go/modules/orders/fulfillment"
	"github.com/rai/shop-workflow-go/modules/orders/workflow"
	"github.com/rai/shop-workflow-go/modules/shared/types"
)

// OrderDTO is a read model for order data.
type OrderDTO struct {
	ID          string            `json:"id"`
	Number      string            `json:"number"`
	CustomerRef string            `json:"customer_ref,omitempty"`
	Email       string            `json:"email"`
	Items       []OrderItemDTO    `json:"items"`
	Status      string            `json:"status"`
	Total       MoneyDTO          `json:"total"`
	AmountPaid  MoneyDTO          `json:"amount_paid"`
	Extra       map[string]string `json:"extra,omitempty"`
	Version     int64             `json:"version"`
	Transitions []TransitionDTO   `json:"transitions,omitempty"`
	Deliveries  []DeliveryDTO     `json:"deliveries,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type OrderItemDTO struct {
	ID          string   `json:"id"`
	ProductCode string   `json:"product_code"`
	ProductName string   `json:"product_name"`
	Quantity    int      `json:"quantity"`
	UnitPrice   MoneyDTO `json:"unit_price"`
	Canceled    bool     `json:"canceled"`
}

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// TransitionDTO is a transition staff can trigger right now.
type TransitionDTO struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

type DeliveryDTO struct {
	ID             string         `json:"id"`
	ShippingID     string         `json:"shipping_id,omitempty"`
	ShippingMethod string         `json:"shipping_method,omitempty"`
	FulfilledAt    time.Time      `json:"fulfilled_at"`
	ShippedAt      *time.Time     `json:"shipped_at,omitempty"`
	Items          map[string]int `json:"items"`
}

// GetOrderQuery retrieves an order by ID.
type GetOrderQuery struct {
	OrderID string
	// AdminTransitions lists the admin transitions available in the current state.
	AdminTransitions bool
}

type GetOrderHandler struct {
	repo       domain.OrderRepository
	deliveries fulfillment.Repository
	machine    *workflow.Machine
}

// NewGetOrderHandler accepts a nil delivery repository for deployments
// without delivery-based shipping.
func NewGetOrderHandler(repo domain.OrderRepository, deliveries fulfillment.Repository, machine *workflow.Machine) *GetOrderHandler {
	return &GetOrderHandler{repo: repo, deliveries: deliveries, machine: machine}
}

func (h *GetOrderHandler) Handle(ctx context.Context, query GetOrderQuery) (*OrderDTO, error) {
	orderID, err := types.ParseOrderID(query.OrderID)
	if err != nil {
		return nil, fmt.Errorf("invalid order ID: %w", err)
	}

	order, err := h.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	dto := toOrderDTO(order)

	if query.AdminTransitions {
		for _, tr := range h.machine.AvailableTransitions(ctx, order, true) {
			dto.Transitions = append(dto.Transitions, TransitionDTO{Name: tr.Name, Label: tr.Label})
		}
	}

	if h.deliveries != nil {
		deliveries, err := h.deliveries.FindByOrder(ctx, orderID)
		if err != nil {
			return nil, fmt.Errorf("loading deliveries: %w", err)
		}
		for _, d := range deliveries {
			dto.Deliveries = append(dto.Deliveries, toDeliveryDTO(d))
		}
	}
	return dto, nil
}

func toOrderDTO(order *domain.Order) *OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items()))
	for _, item := range order.Items() {
		items = append(items, OrderItemDTO{
			ID:          item.ID,
			ProductCode: item.ProductCode,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   toMoneyDTO(item.UnitPrice),
			Canceled:    item.Canceled,
		})
	}

	return &OrderDTO{
		ID:          order.ID().String(),
		Number:      order.Number(),
		CustomerRef: order.Customer().Ref(),
		Email:       order.Customer().Email(),
		Items:       items,
		Status:      order.Status().String(),
		Total:       toMoneyDTO(order.Total()),
		AmountPaid:  toMoneyDTO(order.AmountPaid()),
		Extra:       order.Extra().Map(),
		Version:     order.Version(),
		CreatedAt:   order.CreatedAt(),
		UpdatedAt:   order.UpdatedAt(),
	}
}

func toMoneyDTO(m types.Money) MoneyDTO {
	return MoneyDTO{Amount: m.Amount(), Currency: m.Currency()}
}

func toDeliveryDTO(d *fulfillment.Delivery) DeliveryDTO {
	items := make(map[string]int, len(d.Items))
	for _, it := range d.Items {
		items[it.OrderItemID] = it.Quantity
	}
	return DeliveryDTO{
		ID:             d.ID,
		ShippingID:     d.ShippingID,
		ShippingMethod: d.ShippingMethod,
		FulfilledAt:    d.FulfilledAt,
		ShippedAt:      d.ShippedAt,
		Items:          items,
	}
}
