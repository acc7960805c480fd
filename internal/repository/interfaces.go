package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/01moynul/taptosell-settlement/internal/models"
)

// InvoiceableFilter selects delivered, unpaid cash-on-delivery orders of one seller.
// A nil window means no date filter.
type InvoiceableFilter struct {
	SellerID     uuid.UUID
	UpdatedFrom  *time.Time
	UpdatedUntil *time.Time
}

// OrderRepository defines order data access methods
type OrderRepository interface {
	// Create persists the order with its items and decrements product stock in one transaction.
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// ApplyStatusChange atomically applies change if the order is still in change.From.
	// It returns an ErrConflict when the order moved meanwhile.
	ApplyStatusChange(ctx context.Context, change models.StatusChange) error
	ListInvoiceable(ctx context.Context, filter InvoiceableFilter) ([]*models.Order, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*models.Order, error)
}

// ProductRepository defines product data access methods
type ProductRepository interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)
}

// AffiliateRepository defines affiliate data access methods
type AffiliateRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Affiliate, error)
	GetActiveByReferralCode(ctx context.Context, code string) (*models.Affiliate, error)
}

// CommissionRepository defines affiliate commission data access methods
type CommissionRepository interface {
	CreateBatch(ctx context.Context, commissions []*models.AffiliateCommission) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*models.AffiliateCommission, error)
	ListByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]*models.AffiliateCommission, error)
	// UpdateStatusByOrderID moves every row of the order to status, leaving rows
	// already in status or in one of the skip statuses untouched.
	UpdateStatusByOrderID(ctx context.Context, orderID uuid.UUID, status models.CommissionStatus, skip ...models.CommissionStatus) (int64, error)
}

// SellerRepository reads sellers from the users table
type SellerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Seller, error)
	List(ctx context.Context) ([]*models.Seller, error)
}

// SellerSettingsRepository defines seller settings data access methods.
// Get returns an ErrNotFound when the seller never saved settings.
type SellerSettingsRepository interface {
	Get(ctx context.Context, sellerID uuid.UUID) (*models.SellerSettings, error)
	SetPlatformFeeOverride(ctx context.Context, sellerID uuid.UUID, percent *decimal.Decimal) error
	SetPaymentRestriction(ctx context.Context, sellerID uuid.UUID, restricted bool, at *time.Time) error
}

// PlatformSettingsRepository stores marketplace-wide settings
type PlatformSettingsRepository interface {
	// DefaultPlatformFeePercent returns ok=false when no default has been stored.
	DefaultPlatformFeePercent(ctx context.Context) (percent decimal.Decimal, ok bool, err error)
	SetDefaultPlatformFeePercent(ctx context.Context, percent decimal.Decimal) error
}

// InvoiceRepository defines invoice data access methods
type InvoiceRepository interface {
	// Create inserts the header and its items in one transaction. It returns an
	// ErrConflict if any of the orders was invoiced meanwhile and
	// ErrDuplicateInvoiceNumber if the number was taken.
	Create(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	ExistsForWeek(ctx context.Context, sellerID uuid.UUID, weekStart time.Time) (bool, error)
	NumberExists(ctx context.Context, number string) (bool, error)
	// InvoicedOrderIDs returns the subset of orderIDs already referenced by an invoice item.
	InvoicedOrderIDs(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	List(ctx context.Context, filter InvoiceFilter) ([]*models.Invoice, error)
	ListPendingDueBefore(ctx context.Context, before time.Time) ([]*models.Invoice, error)
	// MarkOverdue flips a pending invoice to overdue; changed is false if it was no longer pending.
	MarkOverdue(ctx context.Context, id uuid.UUID, at time.Time) (changed bool, err error)
	// MarkPaid settles the invoice and flags every billed order as seller-paid in one transaction.
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, notes *string) error
	CountBySellerAndStatus(ctx context.Context, sellerID uuid.UUID, status models.InvoiceStatus) (int, error)
}

// InvoiceFilter narrows invoice listings; zero values mean no filter.
type InvoiceFilter struct {
	SellerID *uuid.UUID
	Status   models.InvoiceStatus
}

// NotificationRepository stores in-app notifications
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Notification, error)
}

// Repositories aggregates all repositories
type Repositories struct {
	Order            OrderRepository
	Product          ProductRepository
	Affiliate        AffiliateRepository
	Commission       CommissionRepository
	Seller           SellerRepository
	SellerSettings   SellerSettingsRepository
	PlatformSettings PlatformSettingsRepository
	Invoice          InvoiceRepository
	Notification     NotificationRepository
}
