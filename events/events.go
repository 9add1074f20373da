package events

import "time"

// OrderCreatedEvent is published after a checkout commits.
type OrderCreatedEvent struct {
	EventType   string    `json:"event_type"` // "order_created"
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	Total       int64     `json:"total"`
	ItemCount   int       `json:"item_count"`
	Timestamp   time.Time `json:"timestamp"`
}

// OrderStatusChangedEvent is published after a lifecycle transition.
type OrderStatusChangedEvent struct {
	EventType   string    `json:"event_type"` // "order_status_changed"
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	FromStatus  string    `json:"from_status"`
	ToStatus    string    `json:"to_status"`
	Note        string    `json:"note,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// VoucherAppliedEvent is published when a voucher lands on an order.
type VoucherAppliedEvent struct {
	EventType      string    `json:"event_type"` // "voucher_applied"
	Code           string    `json:"code"`
	OrderNumber    string    `json:"order_number"`
	DiscountAmount int64     `json:"discount_amount"`
	Timestamp      time.Time `json:"timestamp"`
}
