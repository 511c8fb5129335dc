package fulfillment

import "errors"

var (
	ErrUnknownOrderItem = errors.New("item does not belong to the order")
	ErrQuantityExceeded = errors.New("quantity exceeds unfulfilled quantity")
)
