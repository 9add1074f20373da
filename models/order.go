package models

import "time"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending         OrderStatus = "pending"
	StatusConfirmed       OrderStatus = "confirmed"
	StatusProcessing      OrderStatus = "processing"
	StatusShipping        OrderStatus = "shipping"
	StatusDelivered       OrderStatus = "delivered"
	StatusCancelled       OrderStatus = "cancelled"
	StatusReturnRequested OrderStatus = "return_requested"
	StatusReturned        OrderStatus = "returned"
)

// PaymentStatus tracks payment separately from fulfilment.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// PaymentMethodCOD orders start unpaid; every other method starts pending.
const PaymentMethodCOD = "cod"

// OrderItem is an immutable snapshot of a product taken at checkout.
// Later changes to the catalog never touch these fields.
type OrderItem struct {
	ProductID string `json:"product_id" bson:"product_id"`
	Name      string `json:"name" bson:"name"`
	Image     string `json:"image" bson:"image"`
	Unit      string `json:"unit" bson:"unit"`
	UnitPrice int64  `json:"unit_price" bson:"unit_price"`
	Discount  int64  `json:"discount" bson:"discount"` // per-unit catalog discount at checkout
	Quantity  int    `json:"quantity" bson:"quantity"`
	LineTotal int64  `json:"line_total" bson:"line_total"`
}

// Pricing is the frozen price breakdown of an order.
type Pricing struct {
	Subtotal        int64  `json:"subtotal" bson:"subtotal"`
	Discount        int64  `json:"discount" bson:"discount"`
	VoucherCode     string `json:"voucher_code,omitempty" bson:"voucher_code,omitempty"`
	VoucherDiscount int64  `json:"voucher_discount" bson:"voucher_discount"`
	ShippingFee     int64  `json:"shipping_fee" bson:"shipping_fee"`
	Total           int64  `json:"total" bson:"total"`
}

// ShippingAddress is copied onto the order at checkout.
type ShippingAddress struct {
	Name     string `json:"name" bson:"name" binding:"required"`
	Phone    string `json:"phone" bson:"phone" binding:"required"`
	Address  string `json:"address" bson:"address" binding:"required"`
	Ward     string `json:"ward" bson:"ward"`
	District string `json:"district" bson:"district"`
	Province string `json:"province" bson:"province"`
}

// CustomerInfo identifies the person the order is for, kept on the order
// even for guest checkouts.
type CustomerInfo struct {
	Name  string `json:"name" bson:"name"`
	Phone string `json:"phone" bson:"phone"`
	Email string `json:"email,omitempty" bson:"email,omitempty"`
}

// StatusHistoryEntry is one step of the append-only audit trail.
type StatusHistoryEntry struct {
	Status    OrderStatus `json:"status" bson:"status"`
	Note      string      `json:"note" bson:"note"`
	Actor     string      `json:"actor" bson:"actor"`
	Timestamp time.Time   `json:"timestamp" bson:"timestamp"`
}

// Order is the immutable priced snapshot of a cart at checkout. It is
// never deleted; all changes after creation happen through status
// transitions, each of which appends to StatusHistory.
type Order struct {
	ID              string               `json:"_id" bson:"_id"`
	OrderNumber     string               `json:"order_number" bson:"order_number"`
	UserID          string               `json:"user_id" bson:"user_id"` // "guest" when unauthenticated
	IsGuest         bool                 `json:"is_guest" bson:"is_guest"`
	Items           []OrderItem          `json:"items" bson:"items"`
	CustomerInfo    CustomerInfo         `json:"customer_info" bson:"customer_info"`
	ShippingAddress ShippingAddress      `json:"shipping_address" bson:"shipping_address"`
	PaymentMethod   string               `json:"payment_method" bson:"payment_method"`
	PaymentStatus   PaymentStatus        `json:"payment_status" bson:"payment_status"`
	Pricing         Pricing              `json:"pricing" bson:"pricing"`
	Status          OrderStatus          `json:"status" bson:"status"`
	StatusHistory   []StatusHistoryEntry `json:"status_history" bson:"status_history"`
	Note            string               `json:"note,omitempty" bson:"note,omitempty"`
	CancelReason    string               `json:"cancel_reason,omitempty" bson:"cancel_reason,omitempty"`
	CreatedAt       time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at" bson:"updated_at"`
	ConfirmedAt     *time.Time           `json:"confirmed_at,omitempty" bson:"confirmed_at,omitempty"`
	DeliveredAt     *time.Time           `json:"delivered_at,omitempty" bson:"delivered_at,omitempty"`
	PaidAt          *time.Time           `json:"paid_at,omitempty" bson:"paid_at,omitempty"`
	CancelledAt     *time.Time           `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
}

// PlaceOrderRequest is the payload for POST /orders.
type PlaceOrderRequest struct {
	ShippingAddress ShippingAddress `json:"shipping_address" binding:"required"`
	PaymentMethod   string          `json:"payment_method" binding:"required,oneof=cod bank_transfer momo qr"`
	VoucherCode     string          `json:"voucher_code"`
	Email           string          `json:"email"`
	Note            string          `json:"note"`
}

// UpdateStatusRequest is the admin payload for PUT /orders/:order_number/status.
type UpdateStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
	Note   string      `json:"note"`
}

// UpdatePaymentStatusRequest is the admin payload for PUT /orders/:order_number/payment.
type UpdatePaymentStatusRequest struct {
	PaymentStatus PaymentStatus `json:"payment_status" binding:"required,oneof=unpaid pending paid failed"`
}

// CancelOrderRequest carries the customer's cancellation reason.
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// OrderListResponse is a page of orders plus pagination metadata.
type OrderListResponse struct {
	Orders []Order  `json:"orders"`
	Meta   PageMeta `json:"meta"`
}

// PageMeta describes a paginated result set.
type PageMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasMore    bool  `json:"has_more"`
}
