package domain

// Status is the workflow state of an order. The set of valid statuses is not
// fixed here: it is the union of the states declared by the configured
// workflow modules.
type Status string

// Statuses declared by the bundled workflow modules.
const (
	StatusNew              Status = "new"
	StatusCreated          Status = "created"
	StatusPaymentConfirmed Status = "payment_confirmed"
	StatusPaymentDeclined  Status = "payment_declined"

	StatusAwaitingPayment     Status = "awaiting_payment"
	StatusPrepaymentDeposited Status = "prepayment_deposited"
	StatusNoPaymentRequired   Status = "no_payment_required"

	StatusGoodsPicked      Status = "goods_picked"
	StatusGoodsPacked      Status = "goods_packed"
	StatusShippingPrepared Status = "shipping_prepared"
	StatusOrderShipped     Status = "order_shipped"
	StatusOrderCompleted   Status = "order_completed"

	StatusRefundPayment Status = "refund_payment"
	StatusOrderCanceled Status = "order_canceled"

	StatusNeedsVerification Status = "needs_verification"
)

func (s Status) String() string { return string(s) }
