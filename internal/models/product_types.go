package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ProductStatusActive     = "active"
	ProductStatusOutOfStock = "out_of_stock"
)

// Product is the model for the 'products' table.
// Only the columns the settlement pipeline reads or writes are mapped.
type Product struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	SellerID      uuid.UUID       `json:"sellerId" db:"seller_id"`
	Name          string          `json:"name" db:"name"`
	Price         decimal.Decimal `json:"price" db:"price"` // seller base currency
	Currency      string          `json:"currency" db:"currency"`
	StockQuantity int             `json:"stock" db:"stock_quantity"`
	Status        string          `json:"status" db:"status"`

	// AffiliateCommission is the percent paid to a referring affiliate; nil means not commissionable.
	AffiliateCommission decimal.NullDecimal `json:"affiliateCommission" db:"affiliate_commission"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Affiliate is the model for the 'affiliates' table
type Affiliate struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"userId" db:"user_id"`
	ReferralCode string    `json:"referralCode" db:"referral_code"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

const AffiliateStatusActive = "active"
