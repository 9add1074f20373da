package models

import "time"

// VoucherKind discriminates how a voucher's value is interpreted. The
// kind is always stored explicitly; it is never inferred from the
// magnitude of Value.
type VoucherKind string

const (
	VoucherKindPercentage   VoucherKind = "percentage"
	VoucherKindFixedAmount  VoucherKind = "fixed_amount"
	VoucherKindFreeShipping VoucherKind = "free_shipping"
)

// Voucher is a promotional code stored in the vouchers collection.
// Codes are uppercased before storage and lookup.
type Voucher struct {
	ID             string      `json:"_id" bson:"_id"`
	Code           string      `json:"code" bson:"code"`
	Kind           VoucherKind `json:"kind" bson:"kind"`
	Value          int64       `json:"value" bson:"value"` // percent or amount, by kind
	MinOrderAmount int64       `json:"min_order_amount" bson:"min_order_amount"`
	MaxUsage       int         `json:"max_usage" bson:"max_usage"` // 0 = unlimited
	UsedCount      int         `json:"used_count" bson:"used_count"`
	StartsAt       time.Time   `json:"starts_at" bson:"starts_at"`
	ExpiresAt      time.Time   `json:"expires_at" bson:"expires_at"`
	IsActive       bool        `json:"is_active" bson:"is_active"`
	CreatedAt      time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" bson:"updated_at"`
}

// VoucherResult is the outcome of validating a voucher against a subtotal.
type VoucherResult struct {
	Code           string      `json:"code"`
	Kind           VoucherKind `json:"kind"`
	DiscountAmount int64       `json:"discount_amount"`
	ShippingWaived bool        `json:"shipping_waived"`
}

// CreateVoucherRequest is the admin payload for creating a voucher.
type CreateVoucherRequest struct {
	Code           string      `json:"code" binding:"required,min=3,max=64"`
	Kind           VoucherKind `json:"kind" binding:"required,oneof=percentage fixed_amount free_shipping"`
	Value          int64       `json:"value" binding:"gte=0"`
	MinOrderAmount int64       `json:"min_order_amount" binding:"gte=0"`
	MaxUsage       int         `json:"max_usage" binding:"gte=0"`
	StartsAt       time.Time   `json:"starts_at"`
	ExpiresAt      time.Time   `json:"expires_at" binding:"required"`
}

// ValidateVoucherRequest is the payload for POST /vouchers/validate.
type ValidateVoucherRequest struct {
	Code     string `json:"code" binding:"required"`
	Subtotal int64  `json:"subtotal" binding:"required,gt=0"`
}
