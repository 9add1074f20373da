package controllers

import (
	"net/http"
	"strconv"

	"medicare-backend/middleware"
	"medicare-backend/models"
	"medicare-backend/services"

	"github.com/gin-gonic/gin"
)

// OrderController handles checkout and the order lifecycle surface.
type OrderController struct {
	checkoutService services.CheckoutService
	orderService    services.OrderService
}

func NewOrderController(checkoutService services.CheckoutService, orderService services.OrderService) *OrderController {
	return &OrderController{checkoutService: checkoutService, orderService: orderService}
}

// PlaceOrder handles POST /orders.
func (oc *OrderController) PlaceOrder(c *gin.Context) {
	var req models.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, svcErr := oc.checkoutService.PlaceOrder(
		c.Request.Context(), middleware.Owner(c), middleware.IsGuest(c), &req)
	if svcErr != nil {
		respondError(c, svcErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// GetOrder handles GET /orders/:order_number.
func (oc *OrderController) GetOrder(c *gin.Context) {
	order, svcErr := oc.orderService.GetByNumber(c.Request.Context(), c.Param("order_number"))
	if svcErr != nil {
		respondError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// GetMyOrders handles GET /orders for the authenticated user.
func (oc *OrderController) GetMyOrders(c *gin.Context) {
	page, limit := pagination(c)
	resp, svcErr := oc.orderService.GetUserOrders(c.Request.Context(), middleware.Owner(c), page, limit)
	if svcErr != nil {
		respondError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetAllOrders handles GET /admin/orders.
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	page, limit := pagination(c)
	resp, svcErr := oc.orderService.GetAllOrders(c.Request.Context(), page, limit)
	if svcErr != nil {
		respondError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateStatus handles PUT /orders/:order_number/status (admin).
func (oc *OrderController) UpdateStatus(c *gin.Context) {
	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, svcErr := oc.orderService.Transition(
		c.Request.Context(), c.Param("order_number"), req.Status, req.Note, middleware.AdminID(c))
	if svcErr != nil {
		respondError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// CancelOrder handles PUT /orders/:order_number/cancel.
func (oc *OrderController) CancelOrder(c *gin.Context) {
	var req models.CancelOrderRequest
	_ = c.ShouldBindJSON(&req) // reason is optional

	order, svcErr := oc.orderService.Cancel(
		c.Request.Context(), c.Param("order_number"), req.Reason, middleware.Owner(c))
	if svcErr != nil {
		respondError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// RequestReturn handles POST /orders/:order_number/return.
func (oc *OrderController) RequestReturn(c *gin.Context) {
	var req models.CancelOrderRequest
	_ = c.ShouldBindJSON(&req)

	order, svcErr := oc.orderService.RequestReturn(
		c.Request.Context(), c.Param("order_number"), req.Reason, middleware.Owner(c))
	if svcErr != nil {
		respondError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// CompleteReturn handles PUT /orders/:order_number/return/complete (admin).
func (oc *OrderController) CompleteReturn(c *gin.Context) {
	order, svcErr := oc.orderService.CompleteReturn(
		c.Request.Context(), c.Param("order_number"), middleware.AdminID(c))
	if svcErr != nil {
		respondError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// UpdatePaymentStatus handles PUT /orders/:order_number/payment (admin).
func (oc *OrderController) UpdatePaymentStatus(c *gin.Context) {
	var req models.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if svcErr := oc.orderService.UpdatePaymentStatus(
		c.Request.Context(), c.Param("order_number"), req.PaymentStatus); svcErr != nil {
		respondError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment status updated"})
}

func pagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}
