package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/01moynul/taptosell-settlement/internal/models"
)

// OrderEvent is an order change both parties of the order are told about.
type OrderEvent struct {
	SellerID    uuid.UUID
	CustomerID  uuid.UUID
	OrderID     uuid.UUID
	OrderNumber string
	Type        models.NotificationType
	Metadata    models.Metadata
}

// Dispatcher runs side effects in the background. Work is detached from the
// request context and bounded by timeout; failures are logged and dropped.
type Dispatcher struct {
	notifier  Notifier
	messenger Messenger
	mailer    Mailer
	timeout   time.Duration
	logger    *zap.Logger
	wg        sync.WaitGroup
}

func NewDispatcher(notifier Notifier, messenger Messenger, mailer Mailer, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		notifier:  notifier,
		messenger: messenger,
		mailer:    mailer,
		timeout:   timeout,
		logger:    logger,
	}
}

// Go runs fn in the background under the dispatcher's timeout.
func (d *Dispatcher) Go(task string, fn func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("Background task panicked", zap.String("task", task), zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			d.logger.Warn("Background task failed", zap.String("task", task), zap.Error(err))
		}
	}()
}

// Wait blocks until every dispatched task has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// OrderEvent notifies the seller and the customer concurrently.
func (d *Dispatcher) OrderEvent(ev OrderEvent) {
	if d.notifier == nil {
		return
	}
	d.Go("order_event:"+ev.OrderNumber, func(ctx context.Context) error {
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return d.notifyOne(ctx, ev, ev.SellerID, false) })
		g.Go(func() error { return d.notifyOne(ctx, ev, ev.CustomerID, true) })
		return g.Wait()
	})
}

func (d *Dispatcher) notifyOne(ctx context.Context, ev OrderEvent, userID uuid.UUID, isCustomer bool) error {
	n, err := d.notifier.NotifyOrderEvent(ctx, userID, ev.Type, ev.OrderID, ev.OrderNumber, ev.Metadata, isCustomer)
	if err != nil {
		return fmt.Errorf("store notification for %s: %w", userID, err)
	}
	if err := d.notifier.Deliver(ctx, userID, n); err != nil {
		return fmt.Errorf("deliver notification to %s: %w", userID, err)
	}
	return nil
}

// OrderAlert sends a Telegram alert to the seller's chat.
func (d *Dispatcher) OrderAlert(chatID string, alert models.OrderAlert) {
	if d.messenger == nil || chatID == "" {
		return
	}
	d.Go("telegram:"+alert.OrderNumber, func(ctx context.Context) error {
		if !d.messenger.SendOrderAlert(ctx, chatID, alert) {
			return fmt.Errorf("telegram alert for order %s was not delivered", alert.OrderNumber)
		}
		return nil
	})
}

// InvoiceSummary emails a freshly generated invoice to its seller.
func (d *Dispatcher) InvoiceSummary(email string, summary models.InvoiceSummary) {
	if d.mailer == nil || email == "" {
		return
	}
	d.Go("invoice_email:"+summary.InvoiceNumber, func(ctx context.Context) error {
		return d.mailer.SendInvoiceSummary(ctx, email, summary)
	})
}

// SellerNotification emails the seller about an account or invoice event.
func (d *Dispatcher) SellerNotification(email, kind string, payload map[string]string) {
	if d.mailer == nil || email == "" {
		return
	}
	d.Go("seller_email:"+kind, func(ctx context.Context) error {
		return d.mailer.SendSellerNotification(ctx, email, kind, payload)
	})
}
