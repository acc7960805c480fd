// Package notify delivers order and invoice side effects: in-app
// notifications, Telegram alerts and email. Callers go through Dispatcher,
// which never blocks them and never returns an error.
package notify

import (
	"context"

	"github.com/google/uuid"

	"github.com/01moynul/taptosell-settlement/internal/models"
)

//go:generate mockgen -destination=mocks/mock_notify.go -package=mocks github.com/01moynul/taptosell-settlement/internal/notify Notifier,Messenger,Mailer

// Notifier stores an in-app notification and pushes it to connected clients.
type Notifier interface {
	NotifyOrderEvent(ctx context.Context, userID uuid.UUID, typ models.NotificationType, orderID uuid.UUID, orderNumber string, metadata models.Metadata, isCustomer bool) (*models.Notification, error)
	Deliver(ctx context.Context, userID uuid.UUID, n *models.Notification) error
}

// Messenger sends seller alerts to a Telegram chat. It reports success instead of failing.
type Messenger interface {
	SendOrderAlert(ctx context.Context, chatID string, alert models.OrderAlert) bool
}

// Mailer sends transactional email to sellers.
type Mailer interface {
	SendInvoiceSummary(ctx context.Context, email string, summary models.InvoiceSummary) error
	SendSellerNotification(ctx context.Context, email string, kind string, payload map[string]string) error
}

// Seller notification kinds.
const (
	KindAccountUnfrozen = "account_unfrozen"
	KindInvoiceOverdue  = "invoice_overdue"
)
