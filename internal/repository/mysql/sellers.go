package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/01moynul/taptosell-settlement/internal/apperrors"
	"github.com/01moynul/taptosell-settlement/internal/models"
)

const roleSeller = "seller"

type sellerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSellerRepository creates a new seller repository
func NewSellerRepository(db *sql.DB, logger *zap.Logger) *sellerRepository {
	return &sellerRepository{db: db, logger: logger}
}

func (r *sellerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	var s models.Seller
	err := r.db.QueryRowContext(ctx,
		"SELECT id, email, full_name FROM users WHERE id = ? AND role = ?", id, roleSeller,
	).Scan(&s.ID, &s.Email, &s.FullName)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("seller", id.String())
	}
	if err != nil {
		r.logger.Error("Failed to get seller", zap.Error(err), zap.String("seller_id", id.String()))
		return nil, err
	}
	return &s, nil
}

func (r *sellerRepository) List(ctx context.Context) ([]*models.Seller, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, email, full_name FROM users WHERE role = ? ORDER BY email ASC", roleSeller)
	if err != nil {
		r.logger.Error("Failed to list sellers", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var out []*models.Seller
	for rows.Next() {
		var s models.Seller
		if err := rows.Scan(&s.ID, &s.Email, &s.FullName); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

type sellerSettingsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSellerSettingsRepository creates a new seller settings repository
func NewSellerSettingsRepository(db *sql.DB, logger *zap.Logger) *sellerSettingsRepository {
	return &sellerSettingsRepository{db: db, logger: logger}
}

func (r *sellerSettingsRepository) Get(ctx context.Context, sellerID uuid.UUID) (*models.SellerSettings, error) {
	var s models.SellerSettings
	var restrictedAt sql.NullTime
	var telegramChatID sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT seller_id, platform_fee_percent, payment_restricted, payment_restricted_at,
			shipping_countries, notifications_orders, telegram_chat_id, created_at, updated_at
		FROM seller_settings
		WHERE seller_id = ?`, sellerID,
	).Scan(
		&s.SellerID, &s.PlatformFeePercent, &s.PaymentRestricted, &restrictedAt,
		&s.ShippingCountries, &s.NotificationsOrders, &telegramChatID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("seller settings", sellerID.String())
	}
	if err != nil {
		r.logger.Error("Failed to get seller settings", zap.Error(err), zap.String("seller_id", sellerID.String()))
		return nil, err
	}
	s.PaymentRestrictedAt = timePtr(restrictedAt)
	s.TelegramChatID = stringPtr(telegramChatID)
	return &s, nil
}

// SetPlatformFeeOverride writes the override, creating the settings row with
// defaults when the seller has none yet.
func (r *sellerSettingsRepository) SetPlatformFeeOverride(ctx context.Context, sellerID uuid.UUID, percent *decimal.Decimal) error {
	var value decimal.NullDecimal
	if percent != nil {
		value = decimal.NewNullDecimal(*percent)
	}
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO seller_settings (seller_id, platform_fee_percent, shipping_countries, created_at, updated_at)
		VALUES (?, ?, '[]', ?, ?)
		ON DUPLICATE KEY UPDATE platform_fee_percent = VALUES(platform_fee_percent), updated_at = VALUES(updated_at)`,
		sellerID, value, now, now,
	)
	if err != nil {
		r.logger.Error("Failed to set platform fee override", zap.Error(err), zap.String("seller_id", sellerID.String()))
	}
	return err
}

func (r *sellerSettingsRepository) SetPaymentRestriction(ctx context.Context, sellerID uuid.UUID, restricted bool, at *time.Time) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO seller_settings (seller_id, payment_restricted, payment_restricted_at, shipping_countries, created_at, updated_at)
		VALUES (?, ?, ?, '[]', ?, ?)
		ON DUPLICATE KEY UPDATE payment_restricted = VALUES(payment_restricted),
			payment_restricted_at = VALUES(payment_restricted_at), updated_at = VALUES(updated_at)`,
		sellerID, restricted, at, now, now,
	)
	if err != nil {
		r.logger.Error("Failed to set payment restriction", zap.Error(err), zap.String("seller_id", sellerID.String()))
	}
	return err
}

type platformSettingsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPlatformSettingsRepository creates a new platform settings repository
func NewPlatformSettingsRepository(db *sql.DB, logger *zap.Logger) *platformSettingsRepository {
	return &platformSettingsRepository{db: db, logger: logger}
}

// platformSettingsID is the id of the single platform_settings row.
const platformSettingsID = 1

func (r *platformSettingsRepository) DefaultPlatformFeePercent(ctx context.Context) (decimal.Decimal, bool, error) {
	var percent decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		"SELECT default_platform_fee_percent FROM platform_settings WHERE id = ?", platformSettingsID,
	).Scan(&percent)
	if err == sql.ErrNoRows {
		return decimal.Zero, false, nil
	}
	if err != nil {
		r.logger.Error("Failed to read platform settings", zap.Error(err))
		return decimal.Zero, false, err
	}
	return percent, true, nil
}

func (r *platformSettingsRepository) SetDefaultPlatformFeePercent(ctx context.Context, percent decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO platform_settings (id, default_platform_fee_percent, updated_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE default_platform_fee_percent = VALUES(default_platform_fee_percent), updated_at = VALUES(updated_at)`,
		platformSettingsID, percent, time.Now().UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to write platform settings", zap.Error(err))
	}
	return err
}

type notificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) *notificationRepository {
	return &notificationRepository{db: db, logger: logger}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	var orderNumber sql.NullString
	if n.OrderNumber != "" {
		orderNumber = sql.NullString{String: n.OrderNumber, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, order_id, order_number, message, metadata, is_customer, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Type, n.OrderID, orderNumber, n.Message, n.Metadata, n.IsCustomer, n.IsRead, n.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create notification", zap.Error(err), zap.String("user_id", n.UserID.String()))
	}
	return err
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, type, order_id, order_number, message, metadata, is_customer, is_read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, err
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		var n models.Notification
		var orderID uuid.NullUUID
		var orderNumber sql.NullString
		err := rows.Scan(&n.ID, &n.UserID, &n.Type, &orderID, &orderNumber, &n.Message, &n.Metadata,
			&n.IsCustomer, &n.IsRead, &n.CreatedAt)
		if err != nil {
			return nil, err
		}
		if orderID.Valid {
			n.OrderID = &orderID.UUID
		}
		n.OrderNumber = orderNumber.String
		out = append(out, &n)
	}
	return out, rows.Err()
}
