package controllers

import (
	"net/http"

	"medicare-backend/middleware"
	"medicare-backend/models"
	"medicare-backend/services"

	"github.com/gin-gonic/gin"
)

// CartController handles the cart HTTP surface. All business rules live
// in the cart service; handlers only bind, call and translate.
type CartController struct {
	cartService services.CartService
}

func NewCartController(cartService services.CartService) *CartController {
	return &CartController{cartService: cartService}
}

// GetCart handles GET /cart.
func (cc *CartController) GetCart(c *gin.Context) {
	cart, svcErr := cc.cartService.Get(c.Request.Context(), middleware.Owner(c))
	if svcErr != nil {
		respondError(c, svcErr)
		return
	}
	respondCart(c, cart)
}

// AddItem handles POST /cart/add. An optional Idempotency-Key header
// makes duplicate submits safe.
func (cc *CartController) AddItem(c *gin.Context) {
	var req models.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	cart, svcErr := cc.cartService.AddItem(
		c.Request.Context(), middleware.Owner(c),
		req.ProductID, req.Quantity, c.GetHeader("Idempotency-Key"))
	if svcErr != nil {
		respondError(c, svcErr)
		return
	}
	respondCart(c, cart)
}

// UpdateItem handles PUT /cart/update. A quantity of zero or below
// removes the line.
func (cc *CartController) UpdateItem(c *gin.Context) {
	var req models.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	cart, svcErr := cc.cartService.UpdateItemQuantity(
		c.Request.Context(), middleware.Owner(c), req.ProductID, req.Quantity)
	if svcErr != nil {
		respondError(c, svcErr)
		return
	}
	respondCart(c, cart)
}

// RemoveItem handles DELETE /cart/remove/:product_id.
func (cc *CartController) RemoveItem(c *gin.Context) {
	cart, svcErr := cc.cartService.RemoveItem(
		c.Request.Context(), middleware.Owner(c), c.Param("product_id"))
	if svcErr != nil {
		respondError(c, svcErr)
		return
	}
	respondCart(c, cart)
}

// ClearCart handles DELETE /cart/clear.
func (cc *CartController) ClearCart(c *gin.Context) {
	if svcErr := cc.cartService.Clear(c.Request.Context(), middleware.Owner(c)); svcErr != nil {
		respondError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

// MergeCart handles POST /cart/merge, called once after login.
func (cc *CartController) MergeCart(c *gin.Context) {
	var req models.MergeCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	cart, svcErr := cc.cartService.MergeGuestCart(
		c.Request.Context(), middleware.Owner(c), req.SessionID)
	if svcErr != nil {
		respondError(c, svcErr)
		return
	}
	respondCart(c, cart)
}

func respondCart(c *gin.Context, cart *models.Cart) {
	c.JSON(http.StatusOK, models.CartResponse{
		Cart:       cart,
		TotalItems: cart.TotalItems(),
		TotalPrice: cart.TotalPrice(),
	})
}

func respondError(c *gin.Context, svcErr *services.ServiceError) {
	body := gin.H{"error": svcErr.Message}
	if svcErr.Reason != "" {
		body["reason"] = svcErr.Reason
	}
	c.JSON(svcErr.StatusCode, body)
}
