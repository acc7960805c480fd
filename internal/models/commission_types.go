package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommissionStatus is the payout state of an affiliate commission.
type CommissionStatus string

const (
	CommissionStatusPending   CommissionStatus = "pending"
	CommissionStatusApproved  CommissionStatus = "approved"
	CommissionStatusPaid      CommissionStatus = "paid"
	CommissionStatusCancelled CommissionStatus = "cancelled"
)

// CommissionStatusFor maps an order status to the commission status it implies.
// ok is false when the order status leaves commissions untouched.
func CommissionStatusFor(s OrderStatus) (status CommissionStatus, ok bool) {
	switch s {
	case OrderStatusDelivered:
		return CommissionStatusApproved, true
	case OrderStatusCancelled, OrderStatusReturned:
		return CommissionStatusCancelled, true
	default:
		return "", false
	}
}

// AffiliateCommission is the model for the 'affiliate_commissions' table.
// One row per commissionable order line.
type AffiliateCommission struct {
	ID                uuid.UUID        `json:"id" db:"id"`
	AffiliateID       uuid.UUID        `json:"affiliateId" db:"affiliate_id"`
	OrderID           uuid.UUID        `json:"orderId" db:"order_id"`
	ProductID         uuid.UUID        `json:"productId" db:"product_id"`
	OrderItemAmount   decimal.Decimal  `json:"orderItemAmount" db:"order_item_amount"`
	CommissionPercent decimal.Decimal  `json:"commissionPercent" db:"commission_percent"`
	CommissionAmount  decimal.Decimal  `json:"commissionAmount" db:"commission_amount"`
	Status            CommissionStatus `json:"status" db:"status"`
	Quantity          int              `json:"quantity" db:"quantity"`
	CreatedAt         time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time        `json:"updatedAt" db:"updated_at"`
}
