package services

import "fmt"

// ServiceError is the boundary error type controllers translate into
// HTTP responses. Business-rule violations carry a specific message;
// unexpected storage failures are logged and surfaced opaque.
type ServiceError struct {
	StatusCode int
	Message    string
	// Reason is a machine-readable code (e.g. "expired",
	// "insufficient_stock", "invalid_transition") for clients that
	// branch on the failure instead of showing the message.
	Reason string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// InsufficientStockError reports a stock check or reserve that could not
// be satisfied.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Voucher invalidity reason codes.
const (
	VoucherNotFound          = "not_found"
	VoucherInactive          = "inactive"
	VoucherNotYetActive      = "not_yet_active"
	VoucherExpired           = "expired"
	VoucherMinOrderNotMet    = "min_order_not_met"
	VoucherUsageLimitReached = "usage_limit_reached"
)

// VoucherInvalidError reports why a voucher code could not be applied.
type VoucherInvalidError struct {
	Code   string
	Reason string
}

func (e *VoucherInvalidError) Error() string {
	return fmt.Sprintf("voucher %s invalid: %s", e.Code, e.Reason)
}

// InvalidTransitionError reports a lifecycle move the state machine does
// not allow, including re-entering the current state.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition from %q to %q", e.From, e.To)
}
