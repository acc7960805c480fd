package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

//
// --- Seller Dashboard ---
//

// GetSellerAnalytics returns the settlement KPIs for the seller dashboard
// GET /v1/seller/analytics
func (h *Handlers) GetSellerAnalytics(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}
	summary, err := h.Analytics.SellerSummary(c.Request.Context(), who.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
