package models

import "time"

// Product is the catalog document consumed by the cart and checkout flows.
// The catalog itself (import, categories, search) is managed elsewhere;
// this service only reads product snapshots and adjusts the stock counter.
type Product struct {
	ID        string    `json:"_id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Unit      string    `json:"unit" bson:"unit"` // e.g. "Hộp", "Vỉ", "Chai"
	Price     int64     `json:"price" bson:"price"`
	Discount  int64     `json:"discount" bson:"discount"` // amount off per unit
	Stock     int       `json:"stock" bson:"stock"`
	IsActive  bool      `json:"is_active" bson:"is_active"`
	Image     string    `json:"image" bson:"image"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// EffectiveUnitPrice is the list price minus the per-unit catalog discount.
func (p *Product) EffectiveUnitPrice() int64 {
	price := p.Price - p.Discount
	if price < 0 {
		return 0
	}
	return price
}

// StockCheckResult reports availability for a requested quantity. It is a
// point-in-time read and must not be relied on at purchase time; the
// atomic reserve is what guarantees no overselling.
type StockCheckResult struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	InStock   bool   `json:"in_stock"`
}
