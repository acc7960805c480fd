package notify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/01moynul/taptosell-settlement/internal/models"
	"github.com/01moynul/taptosell-settlement/internal/notify"
	"github.com/01moynul/taptosell-settlement/internal/notify/mocks"
)

func TestOrderEventNotifiesSellerAndCustomer(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	d := notify.NewDispatcher(notifier, nil, nil, time.Second, nil)

	ev := notify.OrderEvent{
		SellerID:    uuid.New(),
		CustomerID:  uuid.New(),
		OrderID:     uuid.New(),
		OrderNumber: "ORD-7",
		Type:        models.NotificationOrderCancelled,
	}
	for _, party := range []struct {
		id         uuid.UUID
		isCustomer bool
	}{{ev.SellerID, false}, {ev.CustomerID, true}} {
		n := &models.Notification{ID: uuid.New(), UserID: party.id}
		notifier.EXPECT().
			NotifyOrderEvent(gomock.Any(), party.id, ev.Type, ev.OrderID, ev.OrderNumber, gomock.Any(), party.isCustomer).
			Return(n, nil)
		notifier.EXPECT().Deliver(gomock.Any(), party.id, n).Return(nil)
	}

	d.OrderEvent(ev)
	d.Wait()
}

func TestDispatcherSwallowsFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	messenger := mocks.NewMockMessenger(ctrl)
	mailer := mocks.NewMockMailer(ctrl)
	d := notify.NewDispatcher(notifier, messenger, mailer, time.Second, nil)

	notifier.EXPECT().NotifyOrderEvent(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("db down")).Times(2)
	messenger.EXPECT().SendOrderAlert(gomock.Any(), "42", gomock.Any()).Return(false)
	mailer.EXPECT().SendInvoiceSummary(gomock.Any(), "seller@example.com", gomock.Any()).Return(errors.New("ses throttled"))

	d.OrderEvent(notify.OrderEvent{SellerID: uuid.New(), CustomerID: uuid.New(), OrderNumber: "ORD-8"})
	d.OrderAlert("42", models.OrderAlert{OrderNumber: "ORD-8"})
	d.InvoiceSummary("seller@example.com", models.InvoiceSummary{InvoiceNumber: "INV-2025-03-abcdefgh"})
	d.Wait()
}

func TestDispatcherSkipsMissingTargets(t *testing.T) {
	ctrl := gomock.NewController(t)
	messenger := mocks.NewMockMessenger(ctrl)
	mailer := mocks.NewMockMailer(ctrl)
	d := notify.NewDispatcher(nil, messenger, mailer, time.Second, nil)

	// No expectations: none of these may reach the mocks.
	d.OrderAlert("", models.OrderAlert{OrderNumber: "ORD-9"})
	d.SellerNotification("", notify.KindAccountUnfrozen, nil)
	d.OrderEvent(notify.OrderEvent{OrderNumber: "ORD-9"})
	d.Wait()
}

func TestGoRecoversPanicsAndAppliesTimeout(t *testing.T) {
	d := notify.NewDispatcher(nil, nil, nil, 20*time.Millisecond, nil)

	d.Go("panics", func(ctx context.Context) error { panic("boom") })

	var deadline bool
	d.Go("deadline", func(ctx context.Context) error {
		<-ctx.Done()
		deadline = errors.Is(ctx.Err(), context.DeadlineExceeded)
		return ctx.Err()
	})
	d.Wait()
	assert.True(t, deadline)
}
