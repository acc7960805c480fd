package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is the payment state of a seller invoice.
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// IsValid checks if the invoice status is known
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	default:
		return false
	}
}

// Invoice is the model for the 'invoices' table.
// An invoice is what a seller owes the platform for a batch of delivered COD orders.
type Invoice struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	InvoiceNumber  string          `json:"invoiceNumber" db:"invoice_number"`
	SellerID       uuid.UUID       `json:"sellerId" db:"seller_id"`
	WeekStartDate  time.Time       `json:"weekStartDate" db:"week_start_date"`
	WeekEndDate    time.Time       `json:"weekEndDate" db:"week_end_date"`
	DueDate        time.Time       `json:"dueDate" db:"due_date"`
	Status         InvoiceStatus   `json:"status" db:"status"`
	TotalAmount    decimal.Decimal `json:"totalAmount" db:"total_amount"`
	TotalAmountMKD decimal.Decimal `json:"totalAmountMKD" db:"total_amount_mkd"`
	TotalAmountEUR decimal.Decimal `json:"totalAmountEUR" db:"total_amount_eur"`
	OrderCount     int             `json:"orderCount" db:"order_count"`
	PaidAt         *time.Time      `json:"paidAt,omitempty" db:"paid_at"`
	PaymentNotes   *string         `json:"paymentNotes,omitempty" db:"payment_notes"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time       `json:"updatedAt" db:"updated_at"`

	Items []InvoiceItem `json:"items,omitempty" db:"-"`
}

// OrderIDs returns the ids of every order billed on the invoice.
func (inv *Invoice) OrderIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(inv.Items))
	for _, item := range inv.Items {
		ids = append(ids, item.OrderID)
	}
	return ids
}

// InvoiceItem is the model for the 'invoice_items' table. Immutable once created.
type InvoiceItem struct {
	ID                  uuid.UUID           `json:"id" db:"id"`
	InvoiceID           uuid.UUID           `json:"invoiceId" db:"invoice_id"`
	OrderID             uuid.UUID           `json:"orderId" db:"order_id"`
	OrderNumber         string              `json:"orderNumber" db:"order_number"`
	DeliveryDate        time.Time           `json:"deliveryDate" db:"delivery_date"`
	ProductPrice        decimal.Decimal     `json:"productPrice" db:"product_price"`
	ProductPriceMKD     decimal.Decimal     `json:"productPriceMKD" db:"product_price_mkd"`
	ProductPriceEUR     decimal.Decimal     `json:"productPriceEUR" db:"product_price_eur"`
	PlatformFeePercent  decimal.Decimal     `json:"platformFeePercent" db:"platform_fee_percent"`
	PlatformFee         decimal.Decimal     `json:"platformFee" db:"platform_fee"`
	PlatformFeeMKD      decimal.Decimal     `json:"platformFeeMKD" db:"platform_fee_mkd"`
	PlatformFeeEUR      decimal.Decimal     `json:"platformFeeEUR" db:"platform_fee_eur"`
	AffiliateFeePercent decimal.NullDecimal `json:"affiliateFeePercent" db:"affiliate_fee_percent"`
	AffiliateFee        decimal.Decimal     `json:"affiliateFee" db:"affiliate_fee"`
	AffiliateFeeMKD     decimal.Decimal     `json:"affiliateFeeMKD" db:"affiliate_fee_mkd"`
	AffiliateFeeEUR     decimal.Decimal     `json:"affiliateFeeEUR" db:"affiliate_fee_eur"`
	TotalOwed           decimal.Decimal     `json:"totalOwed" db:"total_owed"`
	TotalOwedMKD        decimal.Decimal     `json:"totalOwedMKD" db:"total_owed_mkd"`
	TotalOwedEUR        decimal.Decimal     `json:"totalOwedEUR" db:"total_owed_eur"`
	CreatedAt           time.Time           `json:"createdAt" db:"created_at"`
}

// InvoiceSummary is the payload mailed to a seller after generation.
type InvoiceSummary struct {
	InvoiceNumber  string
	SellerName     string
	WeekStartDate  time.Time
	WeekEndDate    time.Time
	DueDate        time.Time
	OrderCount     int
	TotalAmount    decimal.Decimal
	TotalAmountMKD decimal.Decimal
	TotalAmountEUR decimal.Decimal
}

// Summary builds the email payload for inv.
func (inv *Invoice) Summary(sellerName string) InvoiceSummary {
	return InvoiceSummary{
		InvoiceNumber:  inv.InvoiceNumber,
		SellerName:     sellerName,
		WeekStartDate:  inv.WeekStartDate,
		WeekEndDate:    inv.WeekEndDate,
		DueDate:        inv.DueDate,
		OrderCount:     inv.OrderCount,
		TotalAmount:    inv.TotalAmount,
		TotalAmountMKD: inv.TotalAmountMKD,
		TotalAmountEUR: inv.TotalAmountEUR,
	}
}
