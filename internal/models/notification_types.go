package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// NotificationType identifies the order event a notification describes.
type NotificationType string

const (
	NotificationOrderPlaced        NotificationType = "order_placed"
	NotificationOrderStatusChanged NotificationType = "order_status_changed"
	NotificationOrderCancelled     NotificationType = "order_cancelled"
	NotificationOrderReturned      NotificationType = "order_returned"
)

// NotificationTypeFor picks the notification type for an order moving into status.
func NotificationTypeFor(status OrderStatus) NotificationType {
	switch status {
	case OrderStatusCancelled:
		return NotificationOrderCancelled
	case OrderStatusReturned:
		return NotificationOrderReturned
	default:
		return NotificationOrderStatusChanged
	}
}

// Metadata is a free-form JSON object column.
type Metadata map[string]interface{}

// Scan implements sql.Scanner
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("metadata: unsupported column type")
	}
	return json.Unmarshal(raw, m)
}

// Value implements driver.Valuer
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Notification is the model for the 'notifications' table
type Notification struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	UserID      uuid.UUID        `json:"userId" db:"user_id"`
	Type        NotificationType `json:"type" db:"type"`
	OrderID     *uuid.UUID       `json:"orderId,omitempty" db:"order_id"`
	OrderNumber string           `json:"orderNumber,omitempty" db:"order_number"`
	Message     string           `json:"message" db:"message"`
	Metadata    Metadata         `json:"metadata,omitempty" db:"metadata"`
	IsCustomer  bool             `json:"isCustomer" db:"is_customer"`
	IsRead      bool             `json:"isRead" db:"is_read"`
	CreatedAt   time.Time        `json:"createdAt" db:"created_at"`
}

// OrderAlert is the order snapshot sent to a seller's Telegram chat.
type OrderAlert struct {
	OrderNumber string
	Status      OrderStatus
	Explanation string
	TotalAmount string
	Currency    string
	City        string
}
