// Package http provides HTTP handlers for the orders module.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rai/shop-workflow-go/modules/orders/application/commands"
	"github.com/rai/shop-workflow-go/modules/orders/application/queries"
	"github.com/rai/shop-workflow-go/modules/orders/domain"
	"github.com/rai/shop-workflow-go/modules/orders/fulfillment"
	"github.com/rai/shop-workflow-go/modules/orders/workflow"
	"github.com/rai/shop-workflow-go/modules/shared/types"
)

// Handlers groups the use cases exposed over HTTP.
type Handlers struct {
	CreateOrder    *commands.CreateOrderHandler
	FireTransition *commands.FireTransitionHandler
	RecordPayment  *commands.RecordPaymentHandler
	CancelItem     *commands.CancelItemHandler
	GetOrder       *queries.GetOrderHandler
	ListOrders     *queries.ListOrdersByStatusHandler
}

type handler struct {
	h Handlers
}

// RegisterRoutes registers the orders module routes to the given mux.
func RegisterRoutes(mux *http.ServeMux, handlers Handlers) {
	h := &handler{h: handlers}

	mux.HandleFunc("POST /orders", h.handleCreateOrder)
	mux.HandleFunc("GET /orders", h.handleListOrders)
	mux.HandleFunc("GET /orders/{id}", h.handleGetOrder)
	mux.HandleFunc("POST /orders/{id}/transitions/{name}", h.handleFireTransition)
	mux.HandleFunc("POST /orders/{id}/payments", h.handleRecordPayment)
	mux.HandleFunc("POST /orders/{id}/items/{itemId}/cancel", h.handleCancelItem)
}

// Request/Response DTOs

type createOrderRequest struct {
	Number   string `json:"number"`
	Customer struct {
		Ref       string `json:"ref"`
		Email     string `json:"email"`
		Name      string `json:"name"`
		Anonymous bool   `json:"anonymous"`
	} `json:"customer"`
	Items []struct {
		ProductCode string `json:"product_code"`
		ProductName string `json:"product_name"`
		Quantity    int    `json:"quantity"`
		UnitAmount  int64  `json:"unit_amount"`
	} `json:"items"`
	Currency string            `json:"currency"`
	Extra    map[string]string `json:"extra"`
	Request  struct {
		Language        string `json:"language"`
		AbsoluteBaseURI string `json:"absolute_base_uri"`
		UserAgent       string `json:"user_agent"`
		RemoteIP        string `json:"remote_ip"`
	} `json:"request"`
	InitialTransition string `json:"initial_transition"`
}

type fireTransitionRequest struct {
	Actor   string `json:"actor"`
	Deliver []struct {
		ItemID   string `json:"item_id"`
		Quantity int    `json:"quantity"`
	} `json:"deliver"`
	ShippingID string `json:"shipping_id"`
}

type fireTransitionResponse struct {
	OrderID string         `json:"order_id"`
	From    string         `json:"from"`
	Status  string         `json:"status"`
	Steps   []stepResponse `json:"steps"`
	Version int64          `json:"version"`
}

type stepResponse struct {
	Transition string `json:"transition"`
	From       string `json:"from"`
	To         string `json:"to"`
	Automatic  bool   `json:"automatic"`
}

type recordPaymentRequest struct {
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	Refund     bool   `json:"refund"`
	Transition string `json:"transition"`
	Actor      string `json:"actor"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handlers

func (h *handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cmd := commands.CreateOrderCommand{
		Number: req.Number,
		Customer: commands.CustomerInput{
			Ref:       req.Customer.Ref,
			Email:     req.Customer.Email,
			Name:      req.Customer.Name,
			Anonymous: req.Customer.Anonymous,
		},
		Currency: req.Currency,
		Extra:    req.Extra,
		Request: commands.RequestInput{
			Language:        req.Request.Language,
			AbsoluteBaseURI: req.Request.AbsoluteBaseURI,
			UserAgent:       req.Request.UserAgent,
			RemoteIP:        req.Request.RemoteIP,
		},
		InitialTransition: req.InitialTransition,
	}
	for _, it := range req.Items {
		cmd.Items = append(cmd.Items, commands.ItemInput{
			ProductCode: it.ProductCode,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitAmount:  it.UnitAmount,
		})
	}

	result, err := h.h.CreateOrder.Handle(r.Context(), cmd)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (h *handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	admin, _ := strconv.ParseBool(r.URL.Query().Get("admin"))
	query := queries.GetOrderQuery{OrderID: r.PathValue("id"), AdminTransitions: admin}

	order, err := h.h.GetOrder.Handle(r.Context(), query)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func (h *handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.h.ListOrders.Handle(r.Context(), queries.ListOrdersByStatusQuery{
		Status: status,
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *handler) handleFireTransition(w http.ResponseWriter, r *http.Request) {
	var req fireTransitionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	cmd := commands.FireTransitionCommand{
		OrderID:    r.PathValue("id"),
		Transition: r.PathValue("name"),
		Actor:      req.Actor,
		ShippingID: req.ShippingID,
	}
	for _, d := range req.Deliver {
		cmd.Deliver = append(cmd.Deliver, domain.ItemQuantity{ItemID: d.ItemID, Quantity: d.Quantity})
	}

	result, err := h.h.FireTransition.Handle(r.Context(), cmd)
	if err != nil {
		handleError(w, err)
		return
	}

	resp := fireTransitionResponse{
		OrderID: result.OrderID,
		From:    result.From,
		Status:  result.Status,
		Version: result.Version,
	}
	for _, s := range result.Steps {
		resp.Steps = append(resp.Steps, stepResponse{
			Transition: s.Transition,
			From:       s.From.String(),
			To:         s.To.String(),
			Automatic:  s.Automatic,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := h.h.RecordPayment.Handle(r.Context(), commands.RecordPaymentCommand{
		OrderID:    r.PathValue("id"),
		Amount:     req.Amount,
		Currency:   req.Currency,
		Refund:     req.Refund,
		Transition: req.Transition,
		Actor:      req.Actor,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: status})
}

func (h *handler) handleCancelItem(w http.ResponseWriter, r *http.Request) {
	cmd := commands.CancelItemCommand{
		OrderID: r.PathValue("id"),
		ItemID:  r.PathValue("itemId"),
	}
	if err := h.h.CancelItem.Handle(r.Context(), cmd); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Helper functions

func handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, workflow.ErrIllegalTransition),
		errors.Is(err, workflow.ErrGuardRejected),
		errors.Is(err, domain.ErrConcurrentModification):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, fulfillment.ErrQuantityExceeded),
		errors.Is(err, fulfillment.ErrUnknownOrderItem),
		errors.Is(err, domain.ErrRefundExceedsPayment):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, workflow.ErrExternalDependency):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidCurrency),
		errors.Is(err, types.ErrCurrencyMismatch),
		errors.Is(err, domain.ErrOrderEmpty),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrUnknownExtraKey),
		errors.Is(err, domain.ErrInvalidBaseURI),
		errors.Is(err, domain.ErrInvalidCustomerRef),
		errors.Is(err, domain.ErrCustomerEmailRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
