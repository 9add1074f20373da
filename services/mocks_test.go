package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"medicare-backend/models"
	"medicare-backend/repository"
)

// In-memory stores used across the service tests. They mirror the
// atomicity guarantees of the real repositories: stock reserves and
// sequence draws are conditional updates under a single lock, and carts
// are copied on read/write the way the JSON round trip through Redis
// copies them.

// --- products ---

type memProducts struct {
	mu       sync.Mutex
	products map[string]*models.Product
}

func newMemProducts(products ...*models.Product) *memProducts {
	m := &memProducts{products: make(map[string]*models.Product)}
	for _, p := range products {
		cp := *p
		m.products[p.ID] = &cp
	}
	return m
}

func (m *memProducts) FindByID(_ context.Context, productID string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) CheckStock(_ context.Context, productID string, quantity int) (*models.StockCheckResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !p.IsActive {
		return nil, repository.ErrProductInactive
	}
	return &models.StockCheckResult{
		ProductID: productID,
		Requested: quantity,
		Available: p.Stock,
		InStock:   p.Stock >= quantity,
	}, nil
}

func (m *memProducts) Reserve(_ context.Context, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return repository.ErrNotFound
	}
	if !p.IsActive {
		return repository.ErrProductInactive
	}
	if p.Stock < quantity {
		return repository.ErrInsufficientStock
	}
	p.Stock -= quantity
	return nil
}

func (m *memProducts) Release(_ context.Context, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Stock += quantity
	return nil
}

func (m *memProducts) setStock(productID string, stock int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[productID].Stock = stock
}

func (m *memProducts) stock(productID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[productID].Stock
}

func (m *memProducts) mutate(productID string, fn func(*models.Product)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.products[productID])
}

// --- carts ---

type memCarts struct {
	mu    sync.Mutex
	carts map[string]*models.Cart
	idem  map[string]string
}

func newMemCarts() *memCarts {
	return &memCarts{carts: make(map[string]*models.Cart), idem: make(map[string]string)}
}

func copyCart(cart *models.Cart) *models.Cart {
	cp := *cart
	cp.Items = append([]models.CartItem(nil), cart.Items...)
	return &cp
}

func (m *memCarts) GetCart(_ context.Context, owner string) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[owner]
	if !ok {
		return nil, nil
	}
	return copyCart(cart), nil
}

func (m *memCarts) SaveCart(_ context.Context, cart *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart.UpdatedAt = time.Now().UTC()
	m.carts[cart.Owner] = copyCart(cart)
	return nil
}

func (m *memCarts) DeleteCart(_ context.Context, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, owner)
	return nil
}

func (m *memCarts) MergeCarts(_ context.Context, userID, sessionID string) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	userCart, ok := m.carts[userID]
	if !ok {
		userCart = &models.Cart{Owner: userID, Items: []models.CartItem{}}
	} else {
		userCart = copyCart(userCart)
	}

	if guestCart, ok := m.carts[sessionID]; ok {
		for _, guestItem := range guestCart.Items {
			if i := userCart.FindItem(guestItem.ProductID); i >= 0 {
				userCart.Items[i].Quantity += guestItem.Quantity
				userCart.Items[i].UnitPrice = guestItem.UnitPrice
			} else {
				userCart.Items = append(userCart.Items, guestItem)
			}
		}
		delete(m.carts, sessionID)
	}

	userCart.UpdatedAt = time.Now().UTC()
	m.carts[userID] = userCart
	return copyCart(userCart), nil
}

func (m *memCarts) GetIdempotency(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idem[key], nil
}

func (m *memCarts) SetIdempotency(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.idem[key] = value
	return nil
}

// --- orders ---

type memOrders struct {
	mu     sync.Mutex
	orders map[string]*models.Order
	seqs   map[string]int64
}

func newMemOrders() *memOrders {
	return &memOrders{orders: make(map[string]*models.Order), seqs: make(map[string]int64)}
}

func copyOrder(order *models.Order) *models.Order {
	cp := *order
	cp.Items = append([]models.OrderItem(nil), order.Items...)
	cp.StatusHistory = append([]models.StatusHistoryEntry(nil), order.StatusHistory...)
	return &cp
}

func (m *memOrders) Insert(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.orders[order.OrderNumber]; exists {
		return repository.ErrDuplicateOrderNumber
	}
	m.orders[order.OrderNumber] = copyOrder(order)
	return nil
}

func (m *memOrders) FindByNumber(_ context.Context, orderNumber string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderNumber]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyOrder(order), nil
}

func (m *memOrders) FindByUserID(_ context.Context, userID string, page, limit int) ([]models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Order
	for _, order := range m.orders {
		if order.UserID == userID {
			result = append(result, *copyOrder(order))
		}
	}
	return result, int64(len(result)), nil
}

func (m *memOrders) FindAll(_ context.Context, page, limit int) ([]models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Order
	for _, order := range m.orders {
		result = append(result, *copyOrder(order))
	}
	return result, int64(len(result)), nil
}

func (m *memOrders) UpdateStatus(_ context.Context, orderNumber string, from, to models.OrderStatus, upd repository.StatusUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderNumber]
	if !ok {
		return repository.ErrNotFound
	}
	if order.Status != from {
		return repository.ErrVersionConflict
	}
	order.Status = to
	order.UpdatedAt = time.Now().UTC()
	order.StatusHistory = append(order.StatusHistory, upd.Entry)
	if upd.ConfirmedAt != nil {
		order.ConfirmedAt = upd.ConfirmedAt
	}
	if upd.DeliveredAt != nil {
		order.DeliveredAt = upd.DeliveredAt
	}
	if upd.CancelledAt != nil {
		order.CancelledAt = upd.CancelledAt
	}
	if upd.CancelReason != "" {
		order.CancelReason = upd.CancelReason
	}
	return nil
}

func (m *memOrders) UpdatePaymentStatus(_ context.Context, orderNumber string, status models.PaymentStatus, paidAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderNumber]
	if !ok {
		return repository.ErrNotFound
	}
	order.PaymentStatus = status
	if paidAt != nil {
		order.PaidAt = paidAt
	}
	return nil
}

func (m *memOrders) NextDailySequence(_ context.Context, day string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seqs[day]++
	return m.seqs[day], nil
}

// --- vouchers ---

type memVouchers struct {
	mu       sync.Mutex
	vouchers map[string]*models.Voucher
}

func newMemVouchers(vouchers ...*models.Voucher) *memVouchers {
	m := &memVouchers{vouchers: make(map[string]*models.Voucher)}
	for _, v := range vouchers {
		cp := *v
		m.vouchers[v.Code] = &cp
	}
	return m
}

func (m *memVouchers) Create(_ context.Context, voucher *models.Voucher) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.vouchers[voucher.Code]; exists {
		return repository.ErrDuplicateCode
	}
	cp := *voucher
	m.vouchers[voucher.Code] = &cp
	return nil
}

func (m *memVouchers) FindByCode(_ context.Context, code string) (*models.Voucher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vouchers[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *memVouchers) FindAll(_ context.Context, page, limit int) ([]models.Voucher, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Voucher
	for _, v := range m.vouchers {
		result = append(result, *v)
	}
	return result, int64(len(result)), nil
}

func (m *memVouchers) IncrementUsedCount(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vouchers[code]
	if !ok {
		return repository.ErrNotFound
	}
	v.UsedCount++
	return nil
}

func (m *memVouchers) Deactivate(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vouchers[code]
	if !ok {
		return repository.ErrNotFound
	}
	v.IsActive = false
	return nil
}

// --- events ---

type memPublisher struct {
	mu       sync.Mutex
	messages [][]byte
}

func (m *memPublisher) Publish(_ context.Context, _ string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, append([]byte(nil), message...))
	return nil
}

// --- fixtures ---

func testProduct(id string, price, discount int64, stock int) *models.Product {
	return &models.Product{
		ID:       id,
		Name:     "Product " + id,
		Unit:     "Hộp",
		Price:    price,
		Discount: discount,
		Stock:    stock,
		IsActive: true,
		Image:    fmt.Sprintf("https://cdn.example.com/%s.jpg", id),
	}
}

func testVoucher(code string, kind models.VoucherKind, value int64) *models.Voucher {
	now := time.Now().UTC()
	return &models.Voucher{
		ID:        "voucher-" + code,
		Code:      code,
		Kind:      kind,
		Value:     value,
		StartsAt:  now.Add(-time.Hour),
		ExpiresAt: now.Add(24 * time.Hour),
		IsActive:  true,
		CreatedAt: now,
	}
}

func testAddress() models.ShippingAddress {
	return models.ShippingAddress{
		Name:     "Nguyen Van A",
		Phone:    "0901234567",
		Address:  "12 Nguyen Trai",
		Ward:     "Ben Thanh",
		District: "Quan 1",
		Province: "TP. Ho Chi Minh",
	}
}
