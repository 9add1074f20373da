package services

import (
	"context"
	"encoding/json"
	"time"

	"medicare-backend/events"
	"medicare-backend/models"
	"medicare-backend/repository"

	"go.uber.org/zap"
)

// allowedTransitions is the order lifecycle state machine. Anything not
// listed, including re-entering the current state, is rejected.
var allowedTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPending:         {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed:       {models.StatusProcessing, models.StatusCancelled},
	models.StatusProcessing:      {models.StatusShipping, models.StatusCancelled},
	models.StatusShipping:        {models.StatusDelivered},
	models.StatusDelivered:       {models.StatusReturnRequested},
	models.StatusReturnRequested: {models.StatusReturned},
}

var defaultStatusNotes = map[models.OrderStatus]string{
	models.StatusPending:         "Order has been placed",
	models.StatusConfirmed:       "Order has been confirmed",
	models.StatusProcessing:      "Order is being prepared",
	models.StatusShipping:        "Order is out for delivery",
	models.StatusDelivered:       "Order has been delivered",
	models.StatusCancelled:       "Order has been cancelled",
	models.StatusReturnRequested: "Return has been requested",
	models.StatusReturned:        "Order has been returned",
}

func defaultStatusNote(status models.OrderStatus) string {
	return defaultStatusNotes[status]
}

func transitionAllowed(from, to models.OrderStatus) bool {
	for _, target := range allowedTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// OrderService enforces the order lifecycle and serves order queries.
type OrderService interface {
	GetByNumber(ctx context.Context, orderNumber string) (*models.Order, *ServiceError)
	GetUserOrders(ctx context.Context, userID string, page, limit int) (*models.OrderListResponse, *ServiceError)
	GetAllOrders(ctx context.Context, page, limit int) (*models.OrderListResponse, *ServiceError)
	Transition(ctx context.Context, orderNumber string, to models.OrderStatus, note, actor string) (*models.Order, *ServiceError)
	Cancel(ctx context.Context, orderNumber, reason, actor string) (*models.Order, *ServiceError)
	RequestReturn(ctx context.Context, orderNumber, reason, actor string) (*models.Order, *ServiceError)
	CompleteReturn(ctx context.Context, orderNumber, actor string) (*models.Order, *ServiceError)
	UpdatePaymentStatus(ctx context.Context, orderNumber string, status models.PaymentStatus) *ServiceError
}

type orderService struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	publisher events.Publisher
	topicArn  string
	logger    *zap.Logger
	now       func() time.Time
}

func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	publisher events.Publisher,
	topicArn string,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orders:    orders,
		products:  products,
		publisher: publisher,
		topicArn:  topicArn,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *orderService) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, *ServiceError) {
	order, err := s.orders.FindByNumber(ctx, orderNumber)
	if err == repository.ErrNotFound {
		return nil, &ServiceError{StatusCode: 404, Message: "Order not found", Reason: "not_found"}
	}
	if err != nil {
		s.logger.Error("order lookup failed", zap.String("order_number", orderNumber), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch order"}
	}
	return order, nil
}

func (s *orderService) GetUserOrders(ctx context.Context, userID string, page, limit int) (*models.OrderListResponse, *ServiceError) {
	orders, total, err := s.orders.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		s.logger.Error("failed to fetch user orders", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch orders"}
	}
	return &models.OrderListResponse{Orders: orders, Meta: pageMeta(page, limit, total)}, nil
}

func (s *orderService) GetAllOrders(ctx context.Context, page, limit int) (*models.OrderListResponse, *ServiceError) {
	orders, total, err := s.orders.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("failed to fetch orders", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch orders"}
	}
	return &models.OrderListResponse{Orders: orders, Meta: pageMeta(page, limit, total)}, nil
}

// Transition moves an order to a new status if the state machine allows
// it, appending the audit entry and stamping the status timestamps in a
// single conditional write. Cancellation restocks every line.
func (s *orderService) Transition(ctx context.Context, orderNumber string, to models.OrderStatus, note, actor string) (*models.Order, *ServiceError) {
	return s.transition(ctx, orderNumber, to, note, "", actor)
}

// Cancel is the customer/admin-facing shortcut for transitioning to
// cancelled with a reason. Only pending, confirmed and processing orders
// can be cancelled; the transition table enforces that.
func (s *orderService) Cancel(ctx context.Context, orderNumber, reason, actor string) (*models.Order, *ServiceError) {
	note := reason
	if note == "" {
		note = defaultStatusNote(models.StatusCancelled)
	}
	return s.transition(ctx, orderNumber, models.StatusCancelled, note, reason, actor)
}

// RequestReturn starts the return workflow on a delivered order.
func (s *orderService) RequestReturn(ctx context.Context, orderNumber, reason, actor string) (*models.Order, *ServiceError) {
	note := reason
	if note == "" {
		note = defaultStatusNote(models.StatusReturnRequested)
	}
	return s.transition(ctx, orderNumber, models.StatusReturnRequested, note, "", actor)
}

// CompleteReturn finishes the return workflow, restocking the items.
func (s *orderService) CompleteReturn(ctx context.Context, orderNumber, actor string) (*models.Order, *ServiceError) {
	return s.transition(ctx, orderNumber, models.StatusReturned, "", "", actor)
}

func (s *orderService) transition(ctx context.Context, orderNumber string, to models.OrderStatus, note, cancelReason, actor string) (*models.Order, *ServiceError) {
	if _, known := defaultStatusNotes[to]; !known {
		return nil, &ServiceError{StatusCode: 400, Message: "Unknown order status", Reason: "invalid_status"}
	}

	order, svcErr := s.GetByNumber(ctx, orderNumber)
	if svcErr != nil {
		return nil, svcErr
	}

	from := order.Status
	if !transitionAllowed(from, to) {
		trErr := &InvalidTransitionError{From: string(from), To: string(to)}
		return nil, &ServiceError{StatusCode: 409, Message: trErr.Error(), Reason: "invalid_transition"}
	}

	now := s.now().UTC()
	if note == "" {
		note = defaultStatusNote(to)
	}

	upd := repository.StatusUpdate{
		Entry: models.StatusHistoryEntry{Status: to, Note: note, Actor: actor, Timestamp: now},
	}
	switch to {
	case models.StatusConfirmed:
		upd.ConfirmedAt = &now
	case models.StatusDelivered:
		upd.DeliveredAt = &now
	case models.StatusCancelled:
		upd.CancelledAt = &now
		upd.CancelReason = cancelReason
	}

	err := s.orders.UpdateStatus(ctx, orderNumber, from, to, upd)
	if err == repository.ErrVersionConflict {
		// Someone else moved the order first; report it as an invalid
		// transition from whatever state it is in now.
		current, svcErr := s.GetByNumber(ctx, orderNumber)
		if svcErr != nil {
			return nil, svcErr
		}
		trErr := &InvalidTransitionError{From: string(current.Status), To: string(to)}
		return nil, &ServiceError{StatusCode: 409, Message: trErr.Error(), Reason: "invalid_transition"}
	}
	if err == repository.ErrNotFound {
		return nil, &ServiceError{StatusCode: 404, Message: "Order not found", Reason: "not_found"}
	}
	if err != nil {
		s.logger.Error("status update failed",
			zap.String("order_number", orderNumber), zap.String("to", string(to)), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to update order status"}
	}

	// Cancelled and returned orders put their stock back on the shelf.
	if to == models.StatusCancelled || to == models.StatusReturned {
		s.restock(ctx, order)
	}

	s.publishStatusChange(ctx, order, from, to, note, now)

	s.logger.Info("order status updated",
		zap.String("order_number", orderNumber),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor", actor))

	return s.GetByNumber(ctx, orderNumber)
}

func (s *orderService) UpdatePaymentStatus(ctx context.Context, orderNumber string, status models.PaymentStatus) *ServiceError {
	var paidAt *time.Time
	if status == models.PaymentPaid {
		now := s.now().UTC()
		paidAt = &now
	}

	err := s.orders.UpdatePaymentStatus(ctx, orderNumber, status, paidAt)
	if err == repository.ErrNotFound {
		return &ServiceError{StatusCode: 404, Message: "Order not found", Reason: "not_found"}
	}
	if err != nil {
		s.logger.Error("payment status update failed",
			zap.String("order_number", orderNumber), zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to update payment status"}
	}
	return nil
}

func (s *orderService) restock(ctx context.Context, order *models.Order) {
	for _, item := range order.Items {
		if err := s.products.Release(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Error("restock failed",
				zap.String("order_number", order.OrderNumber),
				zap.String("product_id", item.ProductID), zap.Error(err))
		}
	}
}

func (s *orderService) publishStatusChange(ctx context.Context, order *models.Order, from, to models.OrderStatus, note string, now time.Time) {
	if s.publisher == nil || s.topicArn == "" {
		return
	}
	event := events.OrderStatusChangedEvent{
		EventType:   "order_status_changed",
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		FromStatus:  string(from),
		ToStatus:    string(to),
		Note:        note,
		Timestamp:   now,
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

func pageMeta(page, limit int, total int64) models.PageMeta {
	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}
	return models.PageMeta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasMore:    total > int64(page*limit),
	}
}
