package domain

import "errors"

var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrOrderEmpty             = errors.New("order has no items")
	ErrItemNotFound           = errors.New("item not found in order")
	ErrInvalidQuantity        = errors.New("quantity must be positive")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrRefundExceedsPayment   = errors.New("refund exceeds amount paid")
	ErrUnknownExtraKey        = errors.New("unknown extra key")
	ErrInvalidBaseURI         = errors.New("absolute base URI is invalid")
	ErrInvalidCustomerRef     = errors.New("invalid customer reference format")
	ErrCustomerEmailRequired  = errors.New("customer email is required")
	ErrConcurrentModification = errors.New("order was modified concurrently")
)
