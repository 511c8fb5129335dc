package types

import "errors"

// Sentinel errors for common validation failures.
var (
	ErrInvalidID        = errors.New("invalid identifier format")
	ErrInvalidCurrency  = errors.New("currency must be a 3-letter ISO code")
	ErrCurrencyMismatch = errors.New("currency mismatch")
)
