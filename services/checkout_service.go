package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"medicare-backend/events"
	"medicare-backend/models"
	"medicare-backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// orderNumberRetries bounds the insert-and-retry loop on the unique
// order_number index before the checkout fails.
const orderNumberRetries = 3

// CheckoutService materializes a cart into an immutable priced order.
type CheckoutService interface {
	PlaceOrder(ctx context.Context, owner string, isGuest bool, req *models.PlaceOrderRequest) (*models.Order, *ServiceError)
}

type checkoutService struct {
	carts       CartService
	products    repository.ProductRepository
	orders      repository.OrderRepository
	vouchers    VoucherService
	pricing     PricingConfig
	orderPrefix string
	publisher   events.Publisher
	topicArn    string
	logger      *zap.Logger
	now         func() time.Time
}

func NewCheckoutService(
	carts CartService,
	products repository.ProductRepository,
	orders repository.OrderRepository,
	vouchers VoucherService,
	pricing PricingConfig,
	orderPrefix string,
	publisher events.Publisher,
	topicArn string,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutService{
		carts:       carts,
		products:    products,
		orders:      orders,
		vouchers:    vouchers,
		pricing:     pricing,
		orderPrefix: orderPrefix,
		publisher:   publisher,
		topicArn:    topicArn,
		logger:      logger,
		now:         time.Now,
	}
}

// PlaceOrder snapshots every cart line from the live product document,
// reserves stock atomically per line (releasing everything reserved so
// far if a line fails), prices the order, and inserts it under a fresh
// order number. The cart keeps any lines added mid-checkout.
func (s *checkoutService) PlaceOrder(ctx context.Context, owner string, isGuest bool, req *models.PlaceOrderRequest) (*models.Order, *ServiceError) {
	cart, svcErr := s.carts.Get(ctx, owner)
	if svcErr != nil {
		return nil, svcErr
	}
	if len(cart.Items) == 0 {
		return nil, &ServiceError{StatusCode: 400, Message: "Cart is empty", Reason: "empty_cart"}
	}

	now := s.now().UTC()

	items, subtotal, discount, svcErr := s.snapshotAndReserve(ctx, cart.Items)
	if svcErr != nil {
		return nil, svcErr
	}

	var voucherResult *models.VoucherResult
	if req.VoucherCode != "" {
		voucherResult, svcErr = s.vouchers.Validate(ctx, req.VoucherCode, subtotal, now)
		if svcErr != nil {
			s.releaseAll(ctx, items)
			return nil, svcErr
		}
	}

	pricing := models.Pricing{Subtotal: subtotal, Discount: discount}
	pricing.ShippingFee = s.pricing.ShippingFee(subtotal)
	if voucherResult != nil {
		pricing.VoucherCode = voucherResult.Code
		pricing.VoucherDiscount = voucherResult.DiscountAmount
		if voucherResult.ShippingWaived {
			pricing.ShippingFee = 0
		}
	}
	pricing.Total = FinalTotal(pricing.Subtotal, pricing.Discount, pricing.VoucherDiscount, pricing.ShippingFee)

	paymentStatus := models.PaymentPending
	if req.PaymentMethod == models.PaymentMethodCOD {
		paymentStatus = models.PaymentUnpaid
	}

	order := &models.Order{
		ID:              uuid.NewString(),
		UserID:          owner,
		IsGuest:         isGuest,
		Items:           items,
		CustomerInfo:    models.CustomerInfo{Name: req.ShippingAddress.Name, Phone: req.ShippingAddress.Phone, Email: req.Email},
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   paymentStatus,
		Pricing:         pricing,
		Status:          models.StatusPending,
		Note:            req.Note,
		CreatedAt:       now,
		UpdatedAt:       now,
		StatusHistory: []models.StatusHistoryEntry{
			{Status: models.StatusPending, Note: defaultStatusNote(models.StatusPending), Actor: owner, Timestamp: now},
		},
	}

	if svcErr := s.insertWithFreshNumber(ctx, order, now); svcErr != nil {
		s.releaseAll(ctx, items)
		return nil, svcErr
	}

	orderedIDs := make([]string, 0, len(items))
	for _, item := range items {
		orderedIDs = append(orderedIDs, item.ProductID)
	}
	if err := s.carts.RemoveOrderedLines(ctx, owner, orderedIDs); err != nil {
		s.logger.Warn("failed to clear ordered cart lines",
			zap.String("owner", owner), zap.Error(err))
	}

	if voucherResult != nil {
		if err := s.vouchers.MarkUsed(ctx, voucherResult.Code); err != nil {
			s.logger.Warn("failed to mark voucher used",
				zap.String("code", voucherResult.Code), zap.Error(err))
		}
		s.publish(ctx, events.VoucherAppliedEvent{
			EventType:      "voucher_applied",
			Code:           voucherResult.Code,
			OrderNumber:    order.OrderNumber,
			DiscountAmount: voucherResult.DiscountAmount,
			Timestamp:      now,
		})
	}

	s.publish(ctx, events.OrderCreatedEvent{
		EventType:   "order_created",
		OrderNumber: order.OrderNumber,
		UserID:      owner,
		Total:       order.Pricing.Total,
		ItemCount:   len(order.Items),
		Timestamp:   now,
	})

	s.logger.Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", owner),
		zap.Int64("total", order.Pricing.Total))

	return order, nil
}

// snapshotAndReserve copies each cart line into an immutable order item
// and reserves its stock. On failure everything reserved so far is
// released before returning.
func (s *checkoutService) snapshotAndReserve(ctx context.Context, cartItems []models.CartItem) ([]models.OrderItem, int64, int64, *ServiceError) {
	items := make([]models.OrderItem, 0, len(cartItems))
	var subtotal, discount int64

	for _, line := range cartItems {
		product, err := s.products.FindByID(ctx, line.ProductID)
		if err == repository.ErrNotFound {
			s.releaseAll(ctx, items)
			return nil, 0, 0, &ServiceError{StatusCode: 404, Message: fmt.Sprintf("Product %s not found", line.ProductID), Reason: "not_found"}
		}
		if err != nil {
			s.releaseAll(ctx, items)
			s.logger.Error("product lookup failed", zap.String("product_id", line.ProductID), zap.Error(err))
			return nil, 0, 0, &ServiceError{StatusCode: 500, Message: "Failed to create order"}
		}
		if !product.IsActive {
			s.releaseAll(ctx, items)
			return nil, 0, 0, &ServiceError{StatusCode: 400, Message: fmt.Sprintf("Product %s is no longer available", product.Name), Reason: "product_inactive"}
		}

		if err := s.products.Reserve(ctx, line.ProductID, line.Quantity); err != nil {
			s.releaseAll(ctx, items)
			if err == repository.ErrInsufficientStock || err == repository.ErrProductInactive {
				stockErr := &InsufficientStockError{ProductID: line.ProductID, Requested: line.Quantity, Available: product.Stock}
				return nil, 0, 0, &ServiceError{StatusCode: 409, Message: stockErr.Error(), Reason: "insufficient_stock"}
			}
			s.logger.Error("stock reserve failed", zap.String("product_id", line.ProductID), zap.Error(err))
			return nil, 0, 0, &ServiceError{StatusCode: 500, Message: "Failed to create order"}
		}

		item := models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     product.Image,
			Unit:      product.Unit,
			UnitPrice: product.Price,
			Discount:  product.Discount,
			Quantity:  line.Quantity,
			LineTotal: product.Price * int64(line.Quantity),
		}
		items = append(items, item)
		subtotal += item.LineTotal
		discount += product.Discount * int64(line.Quantity)
	}

	return items, subtotal, discount, nil
}

// insertWithFreshNumber draws a per-day sequence and inserts the order,
// retrying a bounded number of times if the unique index reports a
// collision. The retry is internal; callers never see the collision.
func (s *checkoutService) insertWithFreshNumber(ctx context.Context, order *models.Order, now time.Time) *ServiceError {
	day := now.Format("20060102")

	for attempt := 0; attempt < orderNumberRetries; attempt++ {
		seq, err := s.orders.NextDailySequence(ctx, day)
		if err != nil {
			s.logger.Error("order sequence failed", zap.Error(err))
			return &ServiceError{StatusCode: 500, Message: "Failed to create order"}
		}

		order.OrderNumber = fmt.Sprintf("%s%s%04d", s.orderPrefix, day, seq)

		err = s.orders.Insert(ctx, order)
		if err == nil {
			return nil
		}
		if err == repository.ErrDuplicateOrderNumber {
			s.logger.Warn("order number collision, retrying",
				zap.String("order_number", order.OrderNumber), zap.Int("attempt", attempt+1))
			continue
		}
		s.logger.Error("order insert failed", zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to create order"}
	}

	s.logger.Error("order number collisions exhausted retries", zap.String("day", day))
	return &ServiceError{StatusCode: 500, Message: "Failed to create order"}
}

func (s *checkoutService) releaseAll(ctx context.Context, items []models.OrderItem) {
	for _, item := range items {
		if err := s.products.Release(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Error("stock release failed",
				zap.String("product_id", item.ProductID), zap.Int("quantity", item.Quantity), zap.Error(err))
		}
	}
}

func (s *checkoutService) publish(ctx context.Context, event any) {
	if s.publisher == nil || s.topicArn == "" {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("failed to marshal event", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, s.topicArn, payload); err != nil {
		s.logger.Warn("event publish failed", zap.Error(err))
	}
}
