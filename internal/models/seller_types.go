package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Seller is the subset of a 'users' row (role = seller) the settlement pipeline needs.
type Seller struct {
	ID       uuid.UUID `json:"id" db:"id"`
	Email    string    `json:"email" db:"email"`
	FullName string    `json:"fullName" db:"full_name"`
}

// StringList is a JSON array column.
type StringList []string

// Scan implements sql.Scanner
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("string list: unsupported column type")
	}
	return json.Unmarshal(raw, l)
}

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// SellerSettings is the model for the 'seller_settings' table
type SellerSettings struct {
	SellerID            uuid.UUID           `json:"sellerId" db:"seller_id"`
	PlatformFeePercent  decimal.NullDecimal `json:"platformFeePercent" db:"platform_fee_percent"` // NULL = platform default
	PaymentRestricted   bool                `json:"paymentRestricted" db:"payment_restricted"`
	PaymentRestrictedAt *time.Time          `json:"paymentRestrictedAt,omitempty" db:"payment_restricted_at"`
	ShippingCountries   StringList          `json:"shippingCountries" db:"shipping_countries"`
	NotificationsOrders bool                `json:"notificationsOrders" db:"notifications_orders"`
	TelegramChatID      *string             `json:"telegramChatId,omitempty" db:"telegram_chat_id"`
	CreatedAt           time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time           `json:"updatedAt" db:"updated_at"`
}

// NotificationPrefs is what the order pipeline needs to decide on seller alerts.
type NotificationPrefs struct {
	TelegramChatID      *string
	NotificationsOrders bool
	ShippingCountries   []string
}

// Prefs extracts the notification preferences from the settings row.
func (s *SellerSettings) Prefs() NotificationPrefs {
	return NotificationPrefs{
		TelegramChatID:      s.TelegramChatID,
		NotificationsOrders: s.NotificationsOrders,
		ShippingCountries:   s.ShippingCountries,
	}
}
