// Package commission keeps the affiliate commission rows of an order in step
// with the order's status.
package commission

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/01moynul/taptosell-settlement/internal/models"
	"github.com/01moynul/taptosell-settlement/internal/repository"
)

var hundred = decimal.NewFromInt(100)

// Ledger creates and syncs affiliate commissions.
type Ledger struct {
	repo   repository.CommissionRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewLedger(repo repository.CommissionRepository, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{repo: repo, logger: logger, now: time.Now}
}

// Amount is the commission on a line: base × percent / 100, rounded to cents.
func Amount(base, percent decimal.Decimal) decimal.Decimal {
	return base.Mul(percent).Div(hundred).Round(2)
}

// CreateForOrder writes one pending commission per line whose product pays a
// commission. Orders without an affiliate produce nothing.
func (l *Ledger) CreateForOrder(ctx context.Context, order *models.Order, products map[uuid.UUID]*models.Product) ([]*models.AffiliateCommission, error) {
	if order.AffiliateID == nil {
		return nil, nil
	}

	now := l.now().UTC()
	var rows []*models.AffiliateCommission
	for _, item := range order.Items {
		product, ok := products[item.ProductID]
		if !ok || !product.AffiliateCommission.Valid || !product.AffiliateCommission.Decimal.IsPositive() {
			continue
		}
		percent := product.AffiliateCommission.Decimal
		base := item.BaseLineTotal()
		rows = append(rows, &models.AffiliateCommission{
			ID:                uuid.New(),
			AffiliateID:       *order.AffiliateID,
			OrderID:           order.ID,
			ProductID:         item.ProductID,
			OrderItemAmount:   base,
			CommissionPercent: percent,
			CommissionAmount:  Amount(base, percent),
			Status:            models.CommissionStatusPending,
			Quantity:          item.Quantity,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
	}
	if len(rows) == 0 {
		return nil, nil
	}

	if err := l.repo.CreateBatch(ctx, rows); err != nil {
		return nil, err
	}
	l.logger.Info("Affiliate commissions created",
		zap.String("order_number", order.OrderNumber),
		zap.String("affiliate_id", order.AffiliateID.String()),
		zap.Int("lines", len(rows)),
	)
	return rows, nil
}

// SyncStatus moves the order's commissions to the status implied by the order
// status. Paid commissions are never touched; re-applying is a no-op.
func (l *Ledger) SyncStatus(ctx context.Context, orderID uuid.UUID, orderStatus models.OrderStatus) error {
	target, ok := models.CommissionStatusFor(orderStatus)
	if !ok {
		return nil
	}
	n, err := l.repo.UpdateStatusByOrderID(ctx, orderID, target, models.CommissionStatusPaid)
	if err != nil {
		return err
	}
	if n > 0 {
		l.logger.Info("Affiliate commissions synced",
			zap.String("order_id", orderID.String()),
			zap.String("status", string(target)),
			zap.Int64("rows", n),
		)
	}
	return nil
}

func (l *Ledger) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]*models.AffiliateCommission, error) {
	return l.repo.ListByOrderID(ctx, orderID)
}

// Totals is the commission billed against one order.
type Totals struct {
	Commission decimal.Decimal
	BaseAmount decimal.Decimal
}

// WeightedPercent is Σcommission / Σbase × 100, or false when nothing is owed.
func (t Totals) WeightedPercent() (decimal.Decimal, bool) {
	if !t.Commission.IsPositive() || !t.BaseAmount.IsPositive() {
		return decimal.Zero, false
	}
	return t.Commission.Div(t.BaseAmount).Mul(hundred).Round(4), true
}

// TotalsForOrders sums the live (non-cancelled) commissions of each order.
// Orders without commissions are absent from the result.
func (l *Ledger) TotalsForOrders(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]Totals, error) {
	byOrder, err := l.repo.ListByOrderIDs(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]Totals, len(byOrder))
	for orderID, rows := range byOrder {
		var t Totals
		for _, c := range rows {
			if c.Status == models.CommissionStatusCancelled {
				continue
			}
			t.Commission = t.Commission.Add(c.CommissionAmount)
			t.BaseAmount = t.BaseAmount.Add(c.OrderItemAmount)
		}
		if t.Commission.IsPositive() {
			out[orderID] = t
		}
	}
	return out, nil
}
