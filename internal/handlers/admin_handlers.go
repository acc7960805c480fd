package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

//
// --- Admin Settings Handlers ---
//

type sellerFeeRequest struct {
	// null clears the override so the platform default applies
	PlatformFeePercent *decimal.Decimal `json:"platformFeePercent"`
}

// SetSellerFee is the handler for PUT /v1/admin/sellers/:id/fee
func (h *Handlers) SetSellerFee(c *gin.Context) {
	sellerID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req sellerFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if _, err := h.Repos.Seller.GetByID(c.Request.Context(), sellerID); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.Fees.SetSellerOverride(c.Request.Context(), sellerID, req.PlatformFeePercent); err != nil {
		h.respondError(c, err)
		return
	}

	effective, err := h.Fees.EffectivePercent(c.Request.Context(), sellerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sellerId":                    sellerID,
		"platformFeePercent":          req.PlatformFeePercent,
		"effectivePlatformFeePercent": effective,
	})
}

type platformFeeRequest struct {
	PlatformFeePercent *decimal.Decimal `json:"platformFeePercent" binding:"required"`
}

// SetPlatformFee is the handler for PUT /v1/admin/settings/fee
func (h *Handlers) SetPlatformFee(c *gin.Context) {
	var req platformFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.Fees.SetPlatformDefault(c.Request.Context(), *req.PlatformFeePercent); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"platformFeePercent": req.PlatformFeePercent})
}

type restrictionRequest struct {
	Restricted *bool `json:"restricted" binding:"required"`
}

// SetSellerRestriction is the handler for PUT /v1/admin/sellers/:id/restriction
// It is the only way a seller gets frozen; unfreezing also happens automatically
// once the seller has no overdue invoices.
func (h *Handlers) SetSellerRestriction(c *gin.Context) {
	sellerID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req restrictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.Invoices.SetRestriction(c.Request.Context(), sellerID, *req.Restricted); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sellerId": sellerID, "paymentRestricted": *req.Restricted})
}
