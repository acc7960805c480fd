package invoicing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/01moynul/taptosell-settlement/internal/apperrors"
	"github.com/01moynul/taptosell-settlement/internal/models"
	"github.com/01moynul/taptosell-settlement/internal/notify"
	"github.com/01moynul/taptosell-settlement/internal/notify/mocks"
	"github.com/01moynul/taptosell-settlement/internal/repository"
)

// invoiceOne bills a single 1000 MKD order and returns the invoice, due 20 March 2026.
func (f *fixture) invoiceOne(t *testing.T) (*models.Invoice, models.Order) {
	t.Helper()
	order := f.deliver(f.seller.ID, "1000", "MKD", time.Date(2026, 3, 4, 12, 0, 0, 0, cet))
	inv, err := f.engine.GenerateForSeller(context.Background(), f.seller.ID, mondayRun)
	require.NoError(t, err)
	return inv, order
}

func (f *fixture) order(t *testing.T, id uuid.UUID) *models.Order {
	t.Helper()
	o, err := f.repos.Order.GetByID(context.Background(), id)
	require.NoError(t, err)
	return o
}

func TestMarkPaidSettlesOrdersAndLiftsRestriction(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	inv, order := f.invoiceOne(t)

	sweep, err := f.manager.SweepOverdue(ctx, time.Date(2026, 3, 23, 0, 5, 0, 0, cet))
	require.NoError(t, err)
	assert.Equal(t, []string{inv.InvoiceNumber}, sweep.Flipped)
	require.NoError(t, f.manager.SetRestriction(ctx, f.seller.ID, true))

	allowed, err := f.manager.CanCreateOrders(ctx, f.seller.ID)
	require.NoError(t, err)
	assert.False(t, allowed)

	paidAt := time.Date(2026, 3, 24, 10, 0, 0, 0, time.UTC)
	f.manager.SetClock(func() time.Time { return paidAt })
	notes := "  bank transfer 0042 "
	paid, err := f.manager.MarkPaid(ctx, MarkPaidInput{InvoiceID: inv.ID, SellerID: &f.seller.ID, Notes: &notes})
	require.NoError(t, err)

	assert.Equal(t, models.InvoiceStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.True(t, paid.PaidAt.Equal(paidAt))
	require.NotNil(t, paid.PaymentNotes)
	assert.Equal(t, "bank transfer 0042", *paid.PaymentNotes)

	settled := f.order(t, order.ID)
	assert.True(t, settled.SellerPaid)
	require.NotNil(t, settled.PaymentSettledAt)

	allowed, err = f.manager.CanCreateOrders(ctx, f.seller.ID)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMarkPaidRejections(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	inv, _ := f.invoiceOne(t)

	stranger := uuid.New()
	_, err := f.manager.MarkPaid(ctx, MarkPaidInput{InvoiceID: inv.ID, SellerID: &stranger})
	assert.True(t, apperrors.IsNotFound(err), "other sellers see no invoice")

	_, err = f.manager.MarkPaid(ctx, MarkPaidInput{InvoiceID: uuid.New()})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.manager.MarkPaid(ctx, MarkPaidInput{InvoiceID: inv.ID})
	require.NoError(t, err, "admin may settle any invoice")

	_, err = f.manager.MarkPaid(ctx, MarkPaidInput{InvoiceID: inv.ID})
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestSweepOverdueOnlyAfterDueDay(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	inv, _ := f.invoiceOne(t)

	onDueDay, err := f.manager.SweepOverdue(ctx, time.Date(2026, 3, 20, 23, 0, 0, 0, cet))
	require.NoError(t, err)
	assert.Empty(t, onDueDay.Flipped)

	next, err := f.manager.SweepOverdue(ctx, time.Date(2026, 3, 21, 0, 5, 0, 0, cet))
	require.NoError(t, err)
	assert.Equal(t, 1, next.Checked)
	assert.Equal(t, []string{inv.InvoiceNumber}, next.Flipped)

	again, err := f.manager.SweepOverdue(ctx, time.Date(2026, 3, 22, 0, 5, 0, 0, cet))
	require.NoError(t, err)
	assert.Zero(t, again.Checked)

	stored, err := f.manager.Get(ctx, inv.ID, &f.seller.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusOverdue, stored.Status)
}

func TestOverdueInvoicesNeverFreezeAutomatically(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.invoiceOne(t)

	_, err := f.manager.SweepOverdue(ctx, time.Date(2026, 3, 23, 0, 5, 0, 0, cet))
	require.NoError(t, err)

	allowed, err := f.manager.CanCreateOrders(ctx, f.seller.ID)
	require.NoError(t, err)
	assert.True(t, allowed)

	require.NoError(t, f.manager.SetRestriction(ctx, f.seller.ID, true))
	lifted, err := f.manager.RecheckRestriction(ctx, f.seller.ID)
	require.NoError(t, err)
	assert.False(t, lifted, "still overdue, restriction stays")

	allowed, err = f.manager.CanCreateOrders(ctx, f.seller.ID)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCanCreateOrdersWithoutSettings(t *testing.T) {
	f := newFixture(t, nil)
	allowed, err := f.manager.CanCreateOrders(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.True(t, allowed)

	err = f.manager.SetRestriction(context.Background(), uuid.New(), true)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSweepAndUnfreezeEmailSeller(t *testing.T) {
	ctrl := gomock.NewController(t)
	mailer := mocks.NewMockMailer(ctrl)
	f := newFixture(t, mailer)
	ctx := context.Background()

	mailer.EXPECT().SendInvoiceSummary(gomock.Any(), f.seller.Email, gomock.Any()).Return(nil)
	inv, _ := f.invoiceOne(t)

	mailer.EXPECT().
		SendSellerNotification(gomock.Any(), f.seller.Email, notify.KindInvoiceOverdue, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ string, payload map[string]string) error {
			assert.Equal(t, inv.InvoiceNumber, payload["invoiceNumber"])
			assert.Equal(t, "20.03.2026", payload["dueDate"])
			return nil
		})
	_, err := f.manager.SweepOverdue(ctx, time.Date(2026, 3, 23, 0, 5, 0, 0, cet))
	require.NoError(t, err)

	require.NoError(t, f.manager.SetRestriction(ctx, f.seller.ID, true))
	mailer.EXPECT().
		SendSellerNotification(gomock.Any(), f.seller.Email, notify.KindAccountUnfrozen, gomock.Any()).
		Return(nil)
	_, err = f.manager.MarkPaid(ctx, MarkPaidInput{InvoiceID: inv.ID})
	require.NoError(t, err)
	f.engine.dispatcher.Wait()
}

func TestListAllRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.manager.ListForSeller(context.Background(), f.seller.ID, models.InvoiceStatus("lost"))
	assert.True(t, apperrors.IsBadRequest(err))
}

// flakyInvoices fails the overdue flip for one invoice.
type flakyInvoices struct {
	repository.InvoiceRepository
	failFor uuid.UUID
}

func (r *flakyInvoices) MarkOverdue(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	if id == r.failFor {
		return false, errors.New("lock wait timeout exceeded")
	}
	return r.InvoiceRepository.MarkOverdue(ctx, id, at)
}

func TestSweepOverdueIsolatesFailingInvoice(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	due := time.Date(2026, 3, 20, 0, 0, 0, 0, cet)
	broken := models.Invoice{ID: uuid.New(), InvoiceNumber: "INV-2026-10-aaaaaaaa", SellerID: f.seller.ID,
		Status: models.InvoiceStatusPending, WeekStartDate: time.Date(2026, 3, 2, 0, 0, 0, 0, cet), DueDate: due}
	healthy := models.Invoice{ID: uuid.New(), InvoiceNumber: "INV-2026-09-aaaaaaaa", SellerID: f.seller.ID,
		Status: models.InvoiceStatusPending, WeekStartDate: time.Date(2026, 2, 23, 0, 0, 0, 0, cet), DueDate: due}
	f.store.PutInvoice(broken)
	f.store.PutInvoice(healthy)
	f.repos.Invoice = &flakyInvoices{InvoiceRepository: f.repos.Invoice, failFor: broken.ID}

	report, err := f.manager.SweepOverdue(ctx, time.Date(2026, 3, 23, 0, 5, 0, 0, cet))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, []string{healthy.InvoiceNumber}, report.Flipped)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, broken.ID, report.Failures[0].InvoiceID)
	assert.Contains(t, report.Failures[0].Error, "lock wait timeout")

	stored, err := f.repos.Invoice.GetByID(ctx, healthy.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusOverdue, stored.Status)
	stored, err = f.repos.Invoice.GetByID(ctx, broken.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPending, stored.Status)
}
