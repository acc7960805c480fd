package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/01moynul/taptosell-settlement/internal/export"
	"github.com/01moynul/taptosell-settlement/internal/invoicing"
	"github.com/01moynul/taptosell-settlement/internal/models"
	"github.com/01moynul/taptosell-settlement/internal/repository"
)

//
// --- Seller Invoice Handlers ---
//

// ListMyInvoices is the handler for GET /v1/seller/invoices?status=
func (h *Handlers) ListMyInvoices(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}
	invoices, err := h.Invoices.ListForSeller(c.Request.Context(), who.UserID, models.InvoiceStatus(c.Query("status")))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

// GetMyInvoice is the handler for GET /v1/seller/invoices/:id
func (h *Handlers) GetMyInvoice(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}
	invoiceID, ok := pathID(c, "id")
	if !ok {
		return
	}
	inv, err := h.Invoices.Get(c.Request.Context(), invoiceID, &who.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// ExportMyInvoice is the handler for GET /v1/seller/invoices/:id/export
func (h *Handlers) ExportMyInvoice(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}
	h.exportInvoice(c, &who.UserID)
}

// PayMyInvoice is the handler for POST /v1/seller/invoices/:id/pay
func (h *Handlers) PayMyInvoice(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}
	h.markPaid(c, &who.UserID)
}

// CanCreateOrders is the handler for GET /v1/seller/can-create-orders
func (h *Handlers) CanCreateOrders(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}
	allowed, err := h.Invoices.CanCreateOrders(c.Request.Context(), who.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"canCreateOrders": allowed})
}

//
// --- Admin Invoice Handlers ---
//

// GenerateSellerInvoice is the handler for POST /v1/admin/sellers/:id/invoices/generate
func (h *Handlers) GenerateSellerInvoice(c *gin.Context) {
	sellerID, ok := pathID(c, "id")
	if !ok {
		return
	}
	inv, err := h.Engine.GenerateForSeller(c.Request.Context(), sellerID, h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

// RunWeeklyInvoices is the handler for POST /v1/admin/invoices/run-weekly
func (h *Handlers) RunWeeklyInvoices(c *gin.Context) {
	report, err := h.Engine.GenerateWeekly(c.Request.Context(), h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// SweepOverdueInvoices is the handler for POST /v1/admin/invoices/sweep-overdue
func (h *Handlers) SweepOverdueInvoices(c *gin.Context) {
	report, err := h.Invoices.SweepOverdue(c.Request.Context(), h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ListInvoices is the handler for GET /v1/admin/invoices?sellerId=&status=
func (h *Handlers) ListInvoices(c *gin.Context) {
	filter := repository.InvoiceFilter{Status: models.InvoiceStatus(c.Query("status"))}
	if raw := c.Query("sellerId"); raw != "" {
		sellerID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sellerId"})
			return
		}
		filter.SellerID = &sellerID
	}
	invoices, err := h.Invoices.ListAll(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

// ExportInvoice is the handler for GET /v1/admin/invoices/:id/export
func (h *Handlers) ExportInvoice(c *gin.Context) {
	h.exportInvoice(c, nil)
}

// MarkInvoicePaid is the handler for POST /v1/admin/invoices/:id/pay
func (h *Handlers) MarkInvoicePaid(c *gin.Context) {
	h.markPaid(c, nil)
}

type markPaidRequest struct {
	PaymentNotes *string `json:"paymentNotes" binding:"omitempty,max=1000"`
}

// markPaid settles the invoice in the path; sellerID scopes it to one seller.
func (h *Handlers) markPaid(c *gin.Context, sellerID *uuid.UUID) {
	invoiceID, ok := pathID(c, "id")
	if !ok {
		return
	}
	// the body is optional
	var req markPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindError(c, err)
		return
	}

	inv, err := h.Invoices.MarkPaid(c.Request.Context(), invoicing.MarkPaidInput{
		InvoiceID: invoiceID,
		SellerID:  sellerID,
		Notes:     req.PaymentNotes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// exportInvoice streams the invoice as an XLSX download.
func (h *Handlers) exportInvoice(c *gin.Context, sellerID *uuid.UUID) {
	invoiceID, ok := pathID(c, "id")
	if !ok {
		return
	}
	inv, err := h.Invoices.Get(c.Request.Context(), invoiceID, sellerID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	sellerName := ""
	if seller, err := h.Repos.Seller.GetByID(c.Request.Context(), inv.SellerID); err == nil {
		sellerName = seller.FullName
	}

	c.Header("Content-Type", export.ContentType)
	c.Header("Content-Disposition", "attachment; filename="+export.FileName(inv, sellerName))
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)
	if err := export.WriteInvoice(c.Writer, inv, sellerName, h.Location); err != nil {
		// headers are gone by now, so the client just sees a truncated file
		h.logger().Error("Failed to export invoice", zap.String("invoice_id", invoiceID.String()), zap.Error(err))
	}
}
