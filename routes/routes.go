package routes

import (
	"medicare-backend/controllers"
	"medicare-backend/middleware"

	"github.com/gin-gonic/gin"
)

// Register wires the HTTP surface to the controllers. Identity comes
// from gateway-forwarded headers; admin routes require X-Admin-ID.
func Register(
	r *gin.Engine,
	cartController *controllers.CartController,
	orderController *controllers.OrderController,
	voucherController *controllers.VoucherController,
) {
	cart := r.Group("/cart")
	cart.Use(middleware.Identity())
	{
		cart.GET("", cartController.GetCart)
		cart.POST("/add", cartController.AddItem)
		cart.PUT("/update", cartController.UpdateItem)
		cart.DELETE("/remove/:product_id", cartController.RemoveItem)
		cart.DELETE("/clear", cartController.ClearCart)
	}
	r.POST("/cart/merge", middleware.RequireUser(), cartController.MergeCart)

	orders := r.Group("/orders")
	orders.Use(middleware.Identity())
	{
		orders.POST("", orderController.PlaceOrder)
		orders.GET("", orderController.GetMyOrders)
		orders.GET("/:order_number", orderController.GetOrder)
		orders.PUT("/:order_number/cancel", orderController.CancelOrder)
		orders.POST("/:order_number/return", orderController.RequestReturn)
	}

	admin := r.Group("/")
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("admin/orders", orderController.GetAllOrders)
		admin.PUT("orders/:order_number/status", orderController.UpdateStatus)
		admin.PUT("orders/:order_number/payment", orderController.UpdatePaymentStatus)
		admin.PUT("orders/:order_number/return/complete", orderController.CompleteReturn)

		admin.POST("vouchers", voucherController.CreateVoucher)
		admin.GET("vouchers", voucherController.ListVouchers)
		admin.GET("vouchers/:code", voucherController.GetVoucher)
		admin.DELETE("vouchers/:code", voucherController.DeactivateVoucher)
	}

	r.POST("/vouchers/validate", voucherController.ValidateVoucher)
}
