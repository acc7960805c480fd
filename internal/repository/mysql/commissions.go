package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/01moynul/taptosell-settlement/internal/models"
)

type commissionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCommissionRepository creates a new affiliate commission repository
func NewCommissionRepository(db *sql.DB, logger *zap.Logger) *commissionRepository {
	return &commissionRepository{db: db, logger: logger}
}

func (r *commissionRepository) CreateBatch(ctx context.Context, commissions []*models.AffiliateCommission) error {
	if len(commissions) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range commissions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO affiliate_commissions (id, affiliate_id, order_id, product_id, order_item_amount,
				commission_percent, commission_amount, status, quantity, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.AffiliateID, c.OrderID, c.ProductID, c.OrderItemAmount,
			c.CommissionPercent, c.CommissionAmount, c.Status, c.Quantity, c.CreatedAt, c.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to create affiliate commission", zap.Error(err), zap.String("order_id", c.OrderID.String()))
			return err
		}
	}
	return tx.Commit()
}

func (r *commissionRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*models.AffiliateCommission, error) {
	byOrder, err := r.ListByOrderIDs(ctx, []uuid.UUID{orderID})
	if err != nil {
		return nil, err
	}
	return byOrder[orderID], nil
}

func (r *commissionRepository) ListByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]*models.AffiliateCommission, error) {
	out := make(map[uuid.UUID][]*models.AffiliateCommission)
	if len(orderIDs) == 0 {
		return out, nil
	}
	placeholders, args := inClause(orderIDs)
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, affiliate_id, order_id, product_id, order_item_amount, commission_percent,
			commission_amount, status, quantity, created_at, updated_at
		FROM affiliate_commissions
		WHERE order_id IN (`+placeholders+`)
		ORDER BY created_at ASC, id ASC`, args...)
	if err != nil {
		r.logger.Error("Failed to list affiliate commissions", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c models.AffiliateCommission
		err := rows.Scan(&c.ID, &c.AffiliateID, &c.OrderID, &c.ProductID, &c.OrderItemAmount, &c.CommissionPercent,
			&c.CommissionAmount, &c.Status, &c.Quantity, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, err
		}
		out[c.OrderID] = append(out[c.OrderID], &c)
	}
	return out, rows.Err()
}

func (r *commissionRepository) UpdateStatusByOrderID(ctx context.Context, orderID uuid.UUID, status models.CommissionStatus, skip ...models.CommissionStatus) (int64, error) {
	query := "UPDATE affiliate_commissions SET status = ?, updated_at = ? WHERE order_id = ? AND status <> ?"
	args := []interface{}{status, time.Now().UTC(), orderID, status}
	for _, s := range skip {
		query += " AND status <> ?"
		args = append(args, s)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update affiliate commission status", zap.Error(err), zap.String("order_id", orderID.String()))
		return 0, err
	}
	return res.RowsAffected()
}
