package invoicing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/01moynul/taptosell-settlement/internal/apperrors"
	"github.com/01moynul/taptosell-settlement/internal/models"
	"github.com/01moynul/taptosell-settlement/internal/notify"
	"github.com/01moynul/taptosell-settlement/internal/repository"
)

// Manager moves invoices through pending, overdue and paid, and keeps the
// seller's payment restriction in step.
type Manager struct {
	repos      *repository.Repositories
	dispatcher *notify.Dispatcher
	loc        *time.Location
	logger     *zap.Logger
	now        func() time.Time
}

func NewManager(repos *repository.Repositories, dispatcher *notify.Dispatcher, loc *time.Location, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Manager{repos: repos, dispatcher: dispatcher, loc: loc, logger: logger, now: time.Now}
}

// SetClock replaces the manager clock.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// MarkPaidInput settles an invoice. A nil SellerID is an admin acting on any invoice.
type MarkPaidInput struct {
	InvoiceID uuid.UUID
	SellerID  *uuid.UUID
	Notes     *string
}

// MarkPaid settles the invoice, flags its orders as paid by the seller and
// lifts the seller's restriction when nothing else is overdue.
func (m *Manager) MarkPaid(ctx context.Context, in MarkPaidInput) (*models.Invoice, error) {
	inv, err := m.Get(ctx, in.InvoiceID, in.SellerID)
	if err != nil {
		return nil, err
	}
	if inv.Status == models.InvoiceStatusPaid || inv.Status == models.InvoiceStatusCancelled {
		return nil, apperrors.BadRequest("invoice %s is already %s", inv.InvoiceNumber, inv.Status)
	}

	var notes *string
	if in.Notes != nil {
		if trimmed := strings.TrimSpace(*in.Notes); trimmed != "" {
			notes = &trimmed
		}
	}
	if err := m.repos.Invoice.MarkPaid(ctx, inv.ID, m.now().UTC(), notes); err != nil {
		return nil, err
	}
	m.logger.Info("Invoice marked paid",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("seller_id", inv.SellerID.String()),
		zap.Bool("by_admin", in.SellerID == nil),
	)

	if _, err := m.RecheckRestriction(ctx, inv.SellerID); err != nil {
		m.logger.Error("Restriction recheck failed after payment",
			zap.String("seller_id", inv.SellerID.String()),
			zap.Error(err),
		)
	}
	return m.repos.Invoice.GetByID(ctx, inv.ID)
}

// SweepReport summarises one overdue sweep.
type SweepReport struct {
	Checked  int              `json:"checked"`
	Flipped  []string         `json:"flipped"`
	Failures []InvoiceFailure `json:"failures"`
}

// InvoiceFailure records an invoice the sweep could not update.
type InvoiceFailure struct {
	InvoiceID uuid.UUID `json:"invoiceId"`
	Error     string    `json:"error"`
}

// SweepOverdue flips every pending invoice due before today to overdue.
// Each invoice is handled on its own; one failure does not stop the sweep.
func (m *Manager) SweepOverdue(ctx context.Context, now time.Time) (*SweepReport, error) {
	today := StartOfDay(now.In(m.loc))
	due, err := m.repos.Invoice.ListPendingDueBefore(ctx, today)
	if err != nil {
		return nil, err
	}

	report := &SweepReport{Checked: len(due)}
	for _, inv := range due {
		changed, err := m.repos.Invoice.MarkOverdue(ctx, inv.ID, now.UTC())
		if err != nil {
			m.logger.Error("Failed to mark invoice overdue",
				zap.String("invoice_number", inv.InvoiceNumber),
				zap.Error(err),
			)
			report.Failures = append(report.Failures, InvoiceFailure{InvoiceID: inv.ID, Error: err.Error()})
			continue
		}
		if !changed {
			continue
		}
		report.Flipped = append(report.Flipped, inv.InvoiceNumber)
		m.logger.Info("Invoice overdue",
			zap.String("invoice_number", inv.InvoiceNumber),
			zap.Time("due_date", inv.DueDate),
		)
		m.notifySeller(ctx, inv.SellerID, notify.KindInvoiceOverdue, map[string]string{
			"invoiceNumber": inv.InvoiceNumber,
			"dueDate":       inv.DueDate.In(m.loc).Format("02.01.2006"),
		})

		if _, err := m.RecheckRestriction(ctx, inv.SellerID); err != nil {
			m.logger.Error("Restriction recheck failed after overdue flip",
				zap.String("seller_id", inv.SellerID.String()),
				zap.Error(err),
			)
		}
	}
	return report, nil
}

// RecheckRestriction lifts the seller's payment restriction once no invoice is
// overdue and reports whether it did.
//
// Overdue invoices never set the restriction here; freezing is a manual admin
// action through SetRestriction. This asymmetry is deliberate business policy
// until product decides otherwise.
func (m *Manager) RecheckRestriction(ctx context.Context, sellerID uuid.UUID) (bool, error) {
	overdue, err := m.repos.Invoice.CountBySellerAndStatus(ctx, sellerID, models.InvoiceStatusOverdue)
	if err != nil {
		return false, err
	}
	st, err := m.repos.SellerSettings.Get(ctx, sellerID)
	if apperrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if overdue > 0 {
		if !st.PaymentRestricted {
			m.logger.Info("Seller has overdue invoices, automatic restriction is disabled",
				zap.String("seller_id", sellerID.String()),
				zap.Int("overdue", overdue),
			)
		}
		return false, nil
	}
	if !st.PaymentRestricted {
		return false, nil
	}

	if err := m.repos.SellerSettings.SetPaymentRestriction(ctx, sellerID, false, nil); err != nil {
		return false, err
	}
	m.logger.Info("Seller restriction lifted", zap.String("seller_id", sellerID.String()))
	m.notifySeller(ctx, sellerID, notify.KindAccountUnfrozen, nil)
	return true, nil
}

// CanCreateOrders reports whether the seller may take new orders.
// Sellers without a settings row are unrestricted.
func (m *Manager) CanCreateOrders(ctx context.Context, sellerID uuid.UUID) (bool, error) {
	st, err := m.repos.SellerSettings.Get(ctx, sellerID)
	if apperrors.IsNotFound(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return !st.PaymentRestricted, nil
}

// SetRestriction freezes or unfreezes a seller by hand.
func (m *Manager) SetRestriction(ctx context.Context, sellerID uuid.UUID, restricted bool) error {
	if _, err := m.repos.Seller.GetByID(ctx, sellerID); err != nil {
		return err
	}
	var at *time.Time
	if restricted {
		now := m.now().UTC()
		at = &now
	}
	if err := m.repos.SellerSettings.SetPaymentRestriction(ctx, sellerID, restricted, at); err != nil {
		return err
	}
	m.logger.Info("Seller restriction changed by admin",
		zap.String("seller_id", sellerID.String()),
		zap.Bool("restricted", restricted),
	)
	if !restricted {
		m.notifySeller(ctx, sellerID, notify.KindAccountUnfrozen, nil)
	}
	return nil
}

// Get returns an invoice with its items. With a sellerID, invoices of other
// sellers are reported as missing.
func (m *Manager) Get(ctx context.Context, invoiceID uuid.UUID, sellerID *uuid.UUID) (*models.Invoice, error) {
	inv, err := m.repos.Invoice.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if sellerID != nil && inv.SellerID != *sellerID {
		return nil, apperrors.NotFound("invoice", invoiceID.String())
	}
	return inv, nil
}

func (m *Manager) ListForSeller(ctx context.Context, sellerID uuid.UUID, status models.InvoiceStatus) ([]*models.Invoice, error) {
	return m.ListAll(ctx, repository.InvoiceFilter{SellerID: &sellerID, Status: status})
}

func (m *Manager) ListAll(ctx context.Context, filter repository.InvoiceFilter) ([]*models.Invoice, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperrors.BadRequest("unknown invoice status %q", filter.Status)
	}
	return m.repos.Invoice.List(ctx, filter)
}

func (m *Manager) notifySeller(ctx context.Context, sellerID uuid.UUID, kind string, payload map[string]string) {
	if m.dispatcher == nil {
		return
	}
	seller, err := m.repos.Seller.GetByID(ctx, sellerID)
	if err != nil {
		m.logger.Warn("Cannot email seller", zap.String("seller_id", sellerID.String()), zap.Error(err))
		return
	}
	m.dispatcher.SellerNotification(seller.Email, kind, payload)
}
