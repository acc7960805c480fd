package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/01moynul/taptosell-settlement/internal/models"
	"github.com/01moynul/taptosell-settlement/internal/orders"
)

//
// --- Order Handlers ---
//

type updateStatusRequest struct {
	Status            models.OrderStatus `json:"status" binding:"required"`
	TrackingID        *string            `json:"trackingId" binding:"omitempty,max=100"`
	StatusExplanation *string            `json:"statusExplanation" binding:"omitempty,max=1000"`
}

// UpdateOrderStatus is the handler for PATCH /v1/seller/orders/:id/status
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	// 1. --- Get Seller & Order IDs ---
	who, ok := actor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	// 2. --- Bind Input ---
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	// 3. --- Apply Transition ---
	order, err := h.Orders.Transition(c.Request.Context(), orders.TransitionInput{
		OrderID:     orderID,
		SellerID:    who.UserID,
		Status:      req.Status,
		TrackingID:  req.TrackingID,
		Explanation: req.StatusExplanation,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type explanationRequest struct {
	Explanation string `json:"explanation" binding:"required,max=1000"`
}

// CancelOrder is the handler for POST /v1/{seller,customer}/orders/:id/cancel
func (h *Handlers) CancelOrder(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req explanationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	order, err := h.Orders.Cancel(c.Request.Context(), orders.CancelInput{OrderID: orderID, Actor: who, Explanation: req.Explanation})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ReturnOrder is the handler for POST /v1/{seller,customer}/orders/:id/return
func (h *Handlers) ReturnOrder(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req explanationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	order, err := h.Orders.Return(c.Request.Context(), orders.ReturnInput{OrderID: orderID, Actor: who, Explanation: req.Explanation})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetOrder is the handler for GET /v1/{seller,customer}/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.Orders.Get(c.Request.Context(), orderID, who)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type placeOrderItemRequest struct {
	ProductID          uuid.UUID  `json:"productId" binding:"required"`
	Quantity           int        `json:"quantity" binding:"required,min=1,max=1000"`
	VariantID          *uuid.UUID `json:"variantId"`
	VariantCombination *string    `json:"variantCombination" binding:"omitempty,max=255"`
}

type placeOrderRequest struct {
	SellerID        uuid.UUID               `json:"sellerId" binding:"required"`
	Items           []placeOrderItemRequest `json:"items" binding:"required,min=1,dive"`
	ShippingAddress models.ShippingAddress  `json:"shippingAddress"`
	PaymentMethod   *string                 `json:"paymentMethod" binding:"omitempty,max=30"`
	BuyerCurrency   string                  `json:"buyerCurrency" binding:"omitempty,len=3"`
	ExchangeRate    *decimal.Decimal        `json:"exchangeRate"`
	AffiliateID     *uuid.UUID              `json:"affiliateId"`
	ReferralCode    *string                 `json:"referralCode" binding:"omitempty,max=50"`
}

// PlaceOrder is the handler for POST /v1/customer/orders
func (h *Handlers) PlaceOrder(c *gin.Context) {
	// 1. --- Get Customer ID ---
	who, ok := actor(c)
	if !ok {
		return
	}

	// 2. --- Bind Input ---
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.ExchangeRate != nil && !req.ExchangeRate.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exchangeRate must be positive"})
		return
	}

	// 3. --- Build Service Input ---
	in := orders.PlaceOrderInput{
		CustomerID:      who.UserID,
		SellerID:        req.SellerID,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		BuyerCurrency:   req.BuyerCurrency,
		AffiliateID:     req.AffiliateID,
		ReferralCode:    req.ReferralCode,
	}
	if req.ExchangeRate != nil {
		in.ExchangeRate = *req.ExchangeRate
	}
	for _, item := range req.Items {
		in.Items = append(in.Items, orders.PlaceOrderItem{
			ProductID:          item.ProductID,
			Quantity:           item.Quantity,
			VariantID:          item.VariantID,
			VariantCombination: item.VariantCombination,
		})
	}

	// 4. --- Place Order ---
	order, err := h.Orders.PlaceOrder(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}
