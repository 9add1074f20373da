package models

import "time"

// CartItem is a single line in a cart. UnitPrice is the list price
// observed when the line was added; it is refreshed whenever the
// quantity changes so the cart display tracks the catalog.
type CartItem struct {
	ProductID string `json:"product_id" bson:"product_id"`
	Quantity  int    `json:"quantity" bson:"quantity"`
	UnitPrice int64  `json:"unit_price" bson:"unit_price"`
}

// LineTotal returns unit price × quantity for this line.
func (i CartItem) LineTotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// Cart is the mutable pre-checkout basket. Owner is either a user id or
// a guest session id; the two are never mixed in one cart. At most one
// item per product id.
type Cart struct {
	Owner     string     `json:"owner"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// FindItem returns the index of the line for productID, or -1.
func (c *Cart) FindItem(productID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// TotalItems is the sum of all line quantities.
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// TotalPrice is the sum of all line totals.
func (c *Cart) TotalPrice() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.LineTotal()
	}
	return total
}

// AddItemRequest is the payload for POST /cart/add.
type AddItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// UpdateItemRequest is the payload for PUT /cart/update. Quantity may be
// zero or negative, which removes the line.
type UpdateItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

// MergeCartRequest is the payload for POST /cart/merge, sent at login to
// fold the guest-session cart into the authenticated user's cart.
type MergeCartRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// CartResponse is the cart plus its computed totals.
type CartResponse struct {
	Cart       *Cart `json:"cart"`
	TotalItems int   `json:"total_items"`
	TotalPrice int64 `json:"total_price"`
}
