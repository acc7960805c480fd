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

const orderColumns = `
	id, order_number, seller_id, customer_id, affiliate_id, referral_code,
	total_amount, total_amount_base, buyer_currency, seller_base_currency, exchange_rate,
	status, tracking_id, status_explanation, shipping_address, payment_method,
	seller_paid, admin_paid, payment_settled_at, created_at, updated_at`

type orderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB, logger *zap.Logger) *orderRepository {
	return &orderRepository{db: db, logger: logger}
}

// Create inserts the order and its items and takes the ordered quantities out
// of stock. Product rows are locked so concurrent orders cannot oversell.
func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	need := make(map[uuid.UUID]int)
	for _, item := range order.Items {
		need[item.ProductID] += item.Quantity
	}
	for productID, qty := range need {
		var stock int
		var name string
		err := tx.QueryRowContext(ctx,
			"SELECT name, stock_quantity FROM products WHERE id = ? FOR UPDATE", productID,
		).Scan(&name, &stock)
		if err == sql.ErrNoRows {
			return apperrors.NotFound("product", productID.String())
		}
		if err != nil {
			return fmt.Errorf("failed to lock product %s: %w", productID, err)
		}
		if stock < qty {
			return fmt.Errorf("product %s: %w", name, repository.ErrInsufficientStock)
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE products
			SET stock_quantity = stock_quantity - ?,
				status = CASE WHEN stock_quantity = 0 THEN ? ELSE status END,
				updated_at = ?
			WHERE id = ?`,
			qty, models.ProductStatusOutOfStock, order.CreatedAt, productID,
		)
		if err != nil {
			return fmt.Errorf("failed to decrement stock for %s: %w", productID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.OrderNumber, order.SellerID, order.CustomerID, order.AffiliateID, nullString(order.ReferralCode),
		order.TotalAmount, order.TotalAmountBase, order.BuyerCurrency, nullString(order.SellerBaseCurrency), order.ExchangeRate,
		order.Status, nullString(order.TrackingID), nullString(order.StatusExplanation), order.ShippingAddress, nullString(order.PaymentMethod),
		order.SellerPaid, order.AdminPaid, order.PaymentSettledAt, order.CreatedAt, order.UpdatedAt,
	)
	if isDuplicateEntry(err) {
		return apperrors.Conflict("order number %s already exists", order.OrderNumber)
	}
	if err != nil {
		r.logger.Error("Failed to create order", zap.Error(err), zap.String("order_number", order.OrderNumber))
		return err
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, product_name, quantity, price, base_price,
				base_currency, variant_id, variant_combination, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, order.ID, item.ProductID, item.ProductName, item.Quantity, item.Price, item.BasePrice,
			item.BaseCurrency, item.VariantID, nullString(item.VariantCombination), item.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to create order item", zap.Error(err), zap.String("order_number", order.OrderNumber))
			return err
		}
	}

	return tx.Commit()
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	orders, err := r.list(ctx, "WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, apperrors.NotFound("order", id.String())
	}
	return orders[0], nil
}

// ApplyStatusChange locks the order row, checks it is still in change.From and
// writes the new status together with any stock restoration.
func (r *orderRepository) ApplyStatusChange(ctx context.Context, change models.StatusChange) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var current models.OrderStatus
	var orderNumber string
	err = tx.QueryRowContext(ctx,
		"SELECT status, order_number FROM orders WHERE id = ? FOR UPDATE", change.OrderID,
	).Scan(&current, &orderNumber)
	if err == sql.ErrNoRows {
		return apperrors.NotFound("order", change.OrderID.String())
	}
	if err != nil {
		return fmt.Errorf("failed to lock order: %w", err)
	}
	if current != change.From {
		return apperrors.Conflict("order %s is no longer %s", orderNumber, change.From)
	}

	if change.RestoreStock {
		if err := restoreStock(ctx, tx, change.OrderID, change.At); err != nil {
			r.logger.Error("Failed to restore stock", zap.Error(err), zap.String("order_number", orderNumber))
			return err
		}
	}

	var explanation sql.NullString
	if change.To.RequiresExplanation() {
		explanation = nullString(change.Explanation)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET status = ?, tracking_id = COALESCE(?, tracking_id), status_explanation = ?, updated_at = ?
		WHERE id = ?`,
		change.To, nullString(change.TrackingID), explanation, change.At, change.OrderID,
	)
	if err != nil {
		r.logger.Error("Failed to update order status", zap.Error(err), zap.String("order_number", orderNumber))
		return err
	}

	return tx.Commit()
}

// restoreStock puts every line quantity back. The status column is assigned
// first because MySQL evaluates SET clauses left to right.
func restoreStock(ctx context.Context, tx querier, orderID uuid.UUID, at time.Time) error {
	rows, err := tx.QueryContext(ctx, "SELECT product_id, quantity FROM order_items WHERE order_id = ?", orderID)
	if err != nil {
		return err
	}
	type line struct {
		productID uuid.UUID
		quantity  int
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.productID, &l.quantity); err != nil {
			rows.Close()
			return err
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, l := range lines {
		_, err := tx.ExecContext(ctx, `
			UPDATE products
			SET status = CASE WHEN status = ? AND stock_quantity + ? > 0 THEN ? ELSE status END,
				stock_quantity = stock_quantity + ?,
				updated_at = ?
			WHERE id = ?`,
			models.ProductStatusOutOfStock, l.quantity, models.ProductStatusActive,
			l.quantity, at, l.productID,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *orderRepository) ListInvoiceable(ctx context.Context, filter repository.InvoiceableFilter) ([]*models.Order, error) {
	where := `WHERE seller_id = ? AND status = ? AND seller_paid = 0
		AND (payment_method IS NULL OR LOWER(payment_method) = ?)`
	args := []interface{}{filter.SellerID, models.OrderStatusDelivered, models.PaymentMethodCOD}
	if filter.UpdatedFrom != nil {
		where += " AND updated_at >= ?"
		args = append(args, *filter.UpdatedFrom)
	}
	if filter.UpdatedUntil != nil {
		where += " AND updated_at <= ?"
		args = append(args, *filter.UpdatedUntil)
	}
	return r.list(ctx, where+" ORDER BY updated_at ASC, order_number ASC", args...)
}

func (r *orderRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*models.Order, error) {
	return r.list(ctx, "WHERE seller_id = ? ORDER BY updated_at ASC, order_number ASC", sellerID)
}

// list loads orders matching the clause and attaches their items.
func (r *orderRepository) list(ctx context.Context, clause string, args ...interface{}) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+orderColumns+" FROM orders "+clause, args...)
	if err != nil {
		r.logger.Error("Failed to list orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var out []*models.Order
	byID := make(map[uuid.UUID]*models.Order)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
		byID[o.ID] = o
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, 0, len(out))
	for _, o := range out {
		ids = append(ids, o.ID)
	}
	if err := r.attachItems(ctx, byID, ids); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *orderRepository) attachItems(ctx context.Context, byID map[uuid.UUID]*models.Order, ids []uuid.UUID) error {
	placeholders, args := inClause(ids)
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, price, base_price,
			base_currency, variant_id, variant_combination, created_at
		FROM order_items
		WHERE order_id IN (`+placeholders+`)
		ORDER BY created_at ASC, id ASC`, args...)
	if err != nil {
		r.logger.Error("Failed to load order items", zap.Error(err))
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		var variantID uuid.NullUUID
		var variantCombination sql.NullString
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price, &item.BasePrice,
			&item.BaseCurrency, &variantID, &variantCombination, &item.CreatedAt,
		)
		if err != nil {
			return err
		}
		if variantID.Valid {
			item.VariantID = &variantID.UUID
		}
		item.VariantCombination = stringPtr(variantCombination)
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}

func scanOrder(rows *sql.Rows) (*models.Order, error) {
	var o models.Order
	var affiliateID uuid.NullUUID
	var referralCode, sellerBaseCurrency, trackingID, explanation, paymentMethod sql.NullString
	var settledAt sql.NullTime
	err := rows.Scan(
		&o.ID, &o.OrderNumber, &o.SellerID, &o.CustomerID, &affiliateID, &referralCode,
		&o.TotalAmount, &o.TotalAmountBase, &o.BuyerCurrency, &sellerBaseCurrency, &o.ExchangeRate,
		&o.Status, &trackingID, &explanation, &o.ShippingAddress, &paymentMethod,
		&o.SellerPaid, &o.AdminPaid, &settledAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if affiliateID.Valid {
		o.AffiliateID = &affiliateID.UUID
	}
	o.ReferralCode = stringPtr(referralCode)
	o.SellerBaseCurrency = stringPtr(sellerBaseCurrency)
	o.TrackingID = stringPtr(trackingID)
	o.StatusExplanation = stringPtr(explanation)
	o.PaymentMethod = stringPtr(paymentMethod)
	o.PaymentSettledAt = timePtr(settledAt)
	return &o, nil
}

type productRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *sql.DB, logger *zap.Logger) *productRepository {
	return &productRepository{db: db, logger: logger}
}

func (r *productRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	out := make(map[uuid.UUID]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders, args := inClause(ids)
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, seller_id, name, price, currency, stock_quantity, status, affiliate_commission, created_at, updated_at
		FROM products
		WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		r.logger.Error("Failed to load products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Product
		err := rows.Scan(&p.ID, &p.SellerID, &p.Name, &p.Price, &p.Currency, &p.StockQuantity, &p.Status,
			&p.AffiliateCommission, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, err
		}
		out[p.ID] = &p
	}
	return out, rows.Err()
}

type affiliateRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAffiliateRepository creates a new affiliate repository
func NewAffiliateRepository(db *sql.DB, logger *zap.Logger) *affiliateRepository {
	return &affiliateRepository{db: db, logger: logger}
}

func (r *affiliateRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Affiliate, error) {
	return r.get(ctx, "WHERE id = ?", id.String(), id)
}

func (r *affiliateRepository) GetActiveByReferralCode(ctx context.Context, code string) (*models.Affiliate, error) {
	return r.get(ctx, "WHERE referral_code = ? AND status = ?", code, code, models.AffiliateStatusActive)
}

func (r *affiliateRepository) get(ctx context.Context, clause, key string, args ...interface{}) (*models.Affiliate, error) {
	var a models.Affiliate
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, referral_code, status, created_at FROM affiliates "+clause, args...,
	).Scan(&a.ID, &a.UserID, &a.ReferralCode, &a.Status, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("affiliate", key)
	}
	if err != nil {
		r.logger.Error("Failed to get affiliate", zap.Error(err), zap.String("key", key))
		return nil, err
	}
	return &a, nil
}
