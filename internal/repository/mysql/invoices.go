package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/01moynul/taptosell-settlement/internal/apperrors"
	"github.com/01moynul/taptosell-settlement/internal/models"
	"github.com/01moynul/taptosell-settlement/internal/repository"
)

const invoiceColumns = `
	id, invoice_number, seller_id, week_start_date, week_end_date, due_date, status,
	total_amount, total_amount_mkd, total_amount_eur, order_count, paid_at, payment_notes,
	created_at, updated_at`

type invoiceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sql.DB, logger *zap.Logger) *invoiceRepository {
	return &invoiceRepository{db: db, logger: logger}
}

func (r *invoiceRepository) Create(ctx context.Context, inv *models.Invoice) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	// Re-check inside the transaction; the locking read blocks a concurrent
	// run that is about to insert items for the same orders.
	if ids := inv.OrderIDs(); len(ids) > 0 {
		placeholders, args := inClause(ids)
		var taken int
		err := tx.QueryRowContext(ctx,
			"SELECT COUNT(DISTINCT order_id) FROM invoice_items WHERE order_id IN ("+placeholders+") FOR UPDATE", args...,
		).Scan(&taken)
		if err != nil {
			return fmt.Errorf("failed to re-check invoiced orders: %w", err)
		}
		if taken > 0 {
			return apperrors.Conflict("%d orders were invoiced by another run", taken)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.InvoiceNumber, inv.SellerID, inv.WeekStartDate, inv.WeekEndDate, inv.DueDate, inv.Status,
		inv.TotalAmount, inv.TotalAmountMKD, inv.TotalAmountEUR, inv.OrderCount, inv.PaidAt, nullString(inv.PaymentNotes),
		inv.CreatedAt, inv.UpdatedAt,
	)
	if isDuplicateEntry(err) {
		return repository.ErrDuplicateInvoiceNumber
	}
	if err != nil {
		r.logger.Error("Failed to create invoice", zap.Error(err), zap.String("invoice_number", inv.InvoiceNumber))
		return err
	}

	for _, item := range inv.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO invoice_items (id, invoice_id, order_id, order_number, delivery_date,
				product_price, product_price_mkd, product_price_eur,
				platform_fee_percent, platform_fee, platform_fee_mkd, platform_fee_eur,
				affiliate_fee_percent, affiliate_fee, affiliate_fee_mkd, affiliate_fee_eur,
				total_owed, total_owed_mkd, total_owed_eur, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, inv.ID, item.OrderID, item.OrderNumber, item.DeliveryDate,
			item.ProductPrice, item.ProductPriceMKD, item.ProductPriceEUR,
			item.PlatformFeePercent, item.PlatformFee, item.PlatformFeeMKD, item.PlatformFeeEUR,
			item.AffiliateFeePercent, item.AffiliateFee, item.AffiliateFeeMKD, item.AffiliateFeeEUR,
			item.TotalOwed, item.TotalOwedMKD, item.TotalOwedEUR, item.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to create invoice item", zap.Error(err), zap.String("invoice_number", inv.InvoiceNumber))
			return err
		}
	}

	return tx.Commit()
}

func (r *invoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRowContext(ctx, "SELECT "+invoiceColumns+" FROM invoices WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("invoice", id.String())
	}
	if err != nil {
		r.logger.Error("Failed to get invoice", zap.Error(err), zap.String("invoice_id", id.String()))
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, invoice_id, order_id, order_number, delivery_date,
			product_price, product_price_mkd, product_price_eur,
			platform_fee_percent, platform_fee, platform_fee_mkd, platform_fee_eur,
			affiliate_fee_percent, affiliate_fee, affiliate_fee_mkd, affiliate_fee_eur,
			total_owed, total_owed_mkd, total_owed_eur, created_at
		FROM invoice_items
		WHERE invoice_id = ?
		ORDER BY delivery_date ASC, order_number ASC`, id)
	if err != nil {
		r.logger.Error("Failed to load invoice items", zap.Error(err), zap.String("invoice_id", id.String()))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.InvoiceItem
		err := rows.Scan(
			&item.ID, &item.InvoiceID, &item.OrderID, &item.OrderNumber, &item.DeliveryDate,
			&item.ProductPrice, &item.ProductPriceMKD, &item.ProductPriceEUR,
			&item.PlatformFeePercent, &item.PlatformFee, &item.PlatformFeeMKD, &item.PlatformFeeEUR,
			&item.AffiliateFeePercent, &item.AffiliateFee, &item.AffiliateFeeMKD, &item.AffiliateFeeEUR,
			&item.TotalOwed, &item.TotalOwedMKD, &item.TotalOwedEUR, &item.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		inv.Items = append(inv.Items, item)
	}
	return inv, rows.Err()
}

func (r *invoiceRepository) ExistsForWeek(ctx context.Context, sellerID uuid.UUID, weekStart time.Time) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM invoices WHERE seller_id = ? AND week_start_date = ?", sellerID, weekStart,
	).Scan(&n)
	return n > 0, err
}

func (r *invoiceRepository) NumberExists(ctx context.Context, number string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM invoices WHERE invoice_number = ?", number).Scan(&n)
	return n > 0, err
}

func (r *invoiceRepository) InvoicedOrderIDs(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool)
	if len(orderIDs) == 0 {
		return out, nil
	}
	placeholders, args := inClause(orderIDs)
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT order_id FROM invoice_items WHERE order_id IN ("+placeholders+")", args...)
	if err != nil {
		r.logger.Error("Failed to check invoiced orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

func (r *invoiceRepository) List(ctx context.Context, filter repository.InvoiceFilter) ([]*models.Invoice, error) {
	query := "SELECT " + invoiceColumns + " FROM invoices WHERE 1 = 1"
	var args []interface{}
	if filter.SellerID != nil {
		query += " AND seller_id = ?"
		args = append(args, *filter.SellerID)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	return r.list(ctx, query+" ORDER BY week_start_date DESC, invoice_number DESC", args...)
}

func (r *invoiceRepository) ListPendingDueBefore(ctx context.Context, before time.Time) ([]*models.Invoice, error) {
	return r.list(ctx, "SELECT "+invoiceColumns+" FROM invoices WHERE status = ? AND due_date < ? ORDER BY due_date ASC",
		models.InvoiceStatusPending, before)
}

func (r *invoiceRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list invoices", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var out []*models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *invoiceRepository) MarkOverdue(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE invoices SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		models.InvoiceStatusOverdue, at, id, models.InvoiceStatusPending,
	)
	if err != nil {
		r.logger.Error("Failed to mark invoice overdue", zap.Error(err), zap.String("invoice_id", id.String()))
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkPaid settles the invoice and every order it bills. The invoice row is
// locked so a concurrent payment sees the paid status.
func (r *invoiceRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, notes *string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var status models.InvoiceStatus
	var number string
	err = tx.QueryRowContext(ctx, "SELECT status, invoice_number FROM invoices WHERE id = ? FOR UPDATE", id).Scan(&status, &number)
	if err == sql.ErrNoRows {
		return apperrors.NotFound("invoice", id.String())
	}
	if err != nil {
		return fmt.Errorf("failed to lock invoice: %w", err)
	}
	if status != models.InvoiceStatusPending && status != models.InvoiceStatusOverdue {
		return apperrors.BadRequest("invoice %s is already %s", number, status)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE invoices SET status = ?, paid_at = ?, payment_notes = ?, updated_at = ? WHERE id = ?",
		models.InvoiceStatusPaid, paidAt, nullString(notes), paidAt, id,
	)
	if err != nil {
		r.logger.Error("Failed to mark invoice paid", zap.Error(err), zap.String("invoice_number", number))
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET seller_paid = 1, payment_settled_at = ?, updated_at = ?
		WHERE id IN (SELECT order_id FROM invoice_items WHERE invoice_id = ?)`,
		paidAt, paidAt, id,
	)
	if err != nil {
		r.logger.Error("Failed to settle invoiced orders", zap.Error(err), zap.String("invoice_number", number))
		return err
	}

	return tx.Commit()
}

func (r *invoiceRepository) CountBySellerAndStatus(ctx context.Context, sellerID uuid.UUID, status models.InvoiceStatus) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM invoices WHERE seller_id = ? AND status = ?", sellerID, status,
	).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInvoice(row rowScanner) (*models.Invoice, error) {
	var inv models.Invoice
	var paidAt sql.NullTime
	var notes sql.NullString
	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.SellerID, &inv.WeekStartDate, &inv.WeekEndDate, &inv.DueDate, &inv.Status,
		&inv.TotalAmount, &inv.TotalAmountMKD, &inv.TotalAmountEUR, &inv.OrderCount, &paidAt, &notes,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.PaidAt = timePtr(paidAt)
	inv.PaymentNotes = stringPtr(notes)
	return &inv, nil
}
