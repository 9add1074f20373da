package controllers

import (
	"net/http"
	"time"

	"medicare-backend/models"
	"medicare-backend/services"

	"github.com/gin-gonic/gin"
)

// VoucherController handles voucher validation and the admin CRUD.
type VoucherController struct {
	voucherService services.VoucherService
}

func NewVoucherController(voucherService services.VoucherService) *VoucherController {
	return &VoucherController{voucherService: voucherService}
}

// ValidateVoucher handles POST /vouchers/validate, called by the client
// before checkout to preview the discount.
func (vc *VoucherController) ValidateVoucher(c *gin.Context) {
	var req models.ValidateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	result, svcErr := vc.voucherService.Validate(c.Request.Context(), req.Code, req.Subtotal, time.Now())
	if svcErr != nil {
		respondError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CreateVoucher handles POST /vouchers (admin).
func (vc *VoucherController) CreateVoucher(c *gin.Context) {
	var req models.CreateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	voucher, svcErr := vc.voucherService.Create(c.Request.Context(), &req)
	if svcErr != nil {
		respondError(c, svcErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"voucher": voucher})
}

// GetVoucher handles GET /vouchers/:code (admin).
func (vc *VoucherController) GetVoucher(c *gin.Context) {
	voucher, svcErr := vc.voucherService.Get(c.Request.Context(), c.Param("code"))
	if svcErr != nil {
		respondError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"voucher": voucher})
}

// ListVouchers handles GET /vouchers (admin).
func (vc *VoucherController) ListVouchers(c *gin.Context) {
	page, limit := pagination(c)
	vouchers, total, svcErr := vc.voucherService.List(c.Request.Context(), page, limit)
	if svcErr != nil {
		respondError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vouchers": vouchers, "total": total, "page": page, "limit": limit})
}

// DeactivateVoucher handles DELETE /vouchers/:code (admin).
func (vc *VoucherController) DeactivateVoucher(c *gin.Context) {
	if svcErr := vc.voucherService.Deactivate(c.Request.Context(), c.Param("code")); svcErr != nil {
		respondError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Voucher deactivated"})
}
