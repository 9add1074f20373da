package services

import (
	"context"
	"time"

	"medicare-backend/models"
	"medicare-backend/repository"

	"go.uber.org/zap"
)

const idempotencyTTL = 24 * time.Hour

// CartService owns all mutations of the pre-checkout basket. Every
// mutation that grows a line re-checks stock against the cumulative
// quantity, not just the delta.
type CartService interface {
	Get(ctx context.Context, owner string) (*models.Cart, *ServiceError)
	AddItem(ctx context.Context, owner, productID string, quantity int, idemKey string) (*models.Cart, *ServiceError)
	UpdateItemQuantity(ctx context.Context, owner, productID string, quantity int) (*models.Cart, *ServiceError)
	RemoveItem(ctx context.Context, owner, productID string) (*models.Cart, *ServiceError)
	Clear(ctx context.Context, owner string) *ServiceError
	MergeGuestCart(ctx context.Context, userID, sessionID string) (*models.Cart, *ServiceError)
	RemoveOrderedLines(ctx context.Context, owner string, productIDs []string) error
}

type cartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	logger   *zap.Logger
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository, logger *zap.Logger) CartService {
	return &cartService{carts: carts, products: products, logger: logger}
}

// Get returns the owner's cart, materializing an empty one if none exists.
func (s *cartService) Get(ctx context.Context, owner string) (*models.Cart, *ServiceError) {
	cart, err := s.carts.GetCart(ctx, owner)
	if err != nil {
		s.logger.Error("failed to get cart", zap.String("owner", owner), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to get cart"}
	}
	if cart == nil {
		cart = &models.Cart{Owner: owner, Items: []models.CartItem{}}
	}
	return cart, nil
}

// AddItem accumulates quantity onto an existing line (refreshing the
// captured unit price) or appends a new one. An optional idempotency key
// makes duplicate submits of the same request a no-op instead of a
// second accumulation.
func (s *cartService) AddItem(ctx context.Context, owner, productID string, quantity int, idemKey string) (*models.Cart, *ServiceError) {
	if quantity < 1 {
		return nil, &ServiceError{StatusCode: 400, Message: "Quantity must be at least 1", Reason: "invalid_quantity"}
	}

	if idemKey != "" {
		seen, err := s.carts.GetIdempotency(ctx, idemKey)
		if err != nil {
			s.logger.Warn("idempotency lookup failed", zap.Error(err))
		} else if seen != "" {
			return s.Get(ctx, owner)
		}
	}

	cart, svcErr := s.Get(ctx, owner)
	if svcErr != nil {
		return nil, svcErr
	}

	cumulative := quantity
	if i := cart.FindItem(productID); i >= 0 {
		cumulative += cart.Items[i].Quantity
	}

	product, svcErr := s.checkAvailability(ctx, productID, cumulative)
	if svcErr != nil {
		return nil, svcErr
	}

	if i := cart.FindItem(productID); i >= 0 {
		cart.Items[i].Quantity = cumulative
		cart.Items[i].UnitPrice = product.Price
	} else {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: productID,
			Quantity:  quantity,
			UnitPrice: product.Price,
		})
	}

	if err := s.carts.SaveCart(ctx, cart); err != nil {
		s.logger.Error("failed to save cart", zap.String("owner", owner), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to save cart"}
	}

	if idemKey != "" {
		if err := s.carts.SetIdempotency(ctx, idemKey, productID, idempotencyTTL); err != nil {
			s.logger.Warn("idempotency store failed", zap.Error(err))
		}
	}

	return cart, nil
}

// UpdateItemQuantity sets a line to an absolute quantity. Zero or
// negative removes the line; it is not an error.
func (s *cartService) UpdateItemQuantity(ctx context.Context, owner, productID string, quantity int) (*models.Cart, *ServiceError) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, owner, productID)
	}

	cart, svcErr := s.Get(ctx, owner)
	if svcErr != nil {
		return nil, svcErr
	}

	product, svcErr := s.checkAvailability(ctx, productID, quantity)
	if svcErr != nil {
		return nil, svcErr
	}

	if i := cart.FindItem(productID); i >= 0 {
		cart.Items[i].Quantity = quantity
		cart.Items[i].UnitPrice = product.Price
	} else {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: productID,
			Quantity:  quantity,
			UnitPrice: product.Price,
		})
	}

	if err := s.carts.SaveCart(ctx, cart); err != nil {
		s.logger.Error("failed to save cart", zap.String("owner", owner), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to save cart"}
	}
	return cart, nil
}

func (s *cartService) RemoveItem(ctx context.Context, owner, productID string) (*models.Cart, *ServiceError) {
	cart, svcErr := s.Get(ctx, owner)
	if svcErr != nil {
		return nil, svcErr
	}

	items := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID != productID {
			items = append(items, item)
		}
	}
	cart.Items = items

	if err := s.carts.SaveCart(ctx, cart); err != nil {
		s.logger.Error("failed to save cart", zap.String("owner", owner), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to save cart"}
	}
	return cart, nil
}

func (s *cartService) Clear(ctx context.Context, owner string) *ServiceError {
	if err := s.carts.DeleteCart(ctx, owner); err != nil {
		s.logger.Error("failed to clear cart", zap.String("owner", owner), zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to clear cart"}
	}
	return nil
}

// MergeGuestCart folds the guest-session cart into the user's cart at
// login. Quantities for shared products are summed; the guest cart is
// deleted in the same transaction, so running the merge again is a no-op.
func (s *cartService) MergeGuestCart(ctx context.Context, userID, sessionID string) (*models.Cart, *ServiceError) {
	merged, err := s.carts.MergeCarts(ctx, userID, sessionID)
	if err != nil {
		s.logger.Error("cart merge failed",
			zap.String("user_id", userID), zap.String("session_id", sessionID), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to merge carts"}
	}
	s.logger.Info("guest cart merged",
		zap.String("user_id", userID), zap.Int("total_items", merged.TotalItems()))
	return merged, nil
}

// RemoveOrderedLines drops only the lines that made it into an order,
// leaving anything added mid-checkout in place.
func (s *cartService) RemoveOrderedLines(ctx context.Context, owner string, productIDs []string) error {
	cart, err := s.carts.GetCart(ctx, owner)
	if err != nil || cart == nil {
		return err
	}

	ordered := make(map[string]bool, len(productIDs))
	for _, id := range productIDs {
		ordered[id] = true
	}

	items := cart.Items[:0]
	for _, item := range cart.Items {
		if !ordered[item.ProductID] {
			items = append(items, item)
		}
	}
	cart.Items = items

	if len(cart.Items) == 0 {
		return s.carts.DeleteCart(ctx, owner)
	}
	return s.carts.SaveCart(ctx, cart)
}

// checkAvailability verifies the product is sellable and has enough
// stock for the requested total. This is the read-only check; the atomic
// reserve happens at checkout.
func (s *cartService) checkAvailability(ctx context.Context, productID string, quantity int) (*models.Product, *ServiceError) {
	product, err := s.products.FindByID(ctx, productID)
	if err == repository.ErrNotFound {
		return nil, &ServiceError{StatusCode: 404, Message: "Product not found", Reason: "not_found"}
	}
	if err != nil {
		s.logger.Error("product lookup failed", zap.String("product_id", productID), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to check product"}
	}
	if !product.IsActive {
		return nil, &ServiceError{StatusCode: 400, Message: "Product is no longer available", Reason: "product_inactive"}
	}
	if product.Stock < quantity {
		stockErr := &InsufficientStockError{ProductID: productID, Requested: quantity, Available: product.Stock}
		return nil, &ServiceError{StatusCode: 409, Message: stockErr.Error(), Reason: "insufficient_stock"}
	}
	return product, nil
}
