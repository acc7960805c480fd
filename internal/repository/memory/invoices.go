package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/01moynul/taptosell-settlement/internal/apperrors"
	"github.com/01moynul/taptosell-settlement/internal/models"
	"github.com/01moynul/taptosell-settlement/internal/repository"
)

type invoiceRepo struct{ s *Store }

func (r *invoiceRepo) Create(ctx context.Context, invoice *models.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	invoiced := r.invoicedLocked(invoice.OrderIDs())
	if len(invoiced) > 0 {
		return apperrors.Conflict("%d orders were invoiced by another run", len(invoiced))
	}
	for _, existing := range r.s.invoices {
		if existing.InvoiceNumber == invoice.InvoiceNumber {
			return repository.ErrDuplicateInvoiceNumber
		}
	}
	r.s.invoices[invoice.ID] = cloneInvoice(invoice)
	return nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[id]
	if !ok {
		return nil, apperrors.NotFound("invoice", id.String())
	}
	return cloneInvoice(inv), nil
}

func (r *invoiceRepo) ExistsForWeek(ctx context.Context, sellerID uuid.UUID, weekStart time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, inv := range r.s.invoices {
		if inv.SellerID == sellerID && inv.WeekStartDate.Equal(weekStart) {
			return true, nil
		}
	}
	return false, nil
}

func (r *invoiceRepo) NumberExists(ctx context.Context, number string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, inv := range r.s.invoices {
		if inv.InvoiceNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *invoiceRepo) InvoicedOrderIDs(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.invoicedLocked(orderIDs), nil
}

func (r *invoiceRepo) invoicedLocked(orderIDs []uuid.UUID) map[uuid.UUID]bool {
	wanted := make(map[uuid.UUID]bool, len(orderIDs))
	for _, id := range orderIDs {
		wanted[id] = true
	}
	out := make(map[uuid.UUID]bool)
	for _, inv := range r.s.invoices {
		for _, item := range inv.Items {
			if wanted[item.OrderID] {
				out[item.OrderID] = true
			}
		}
	}
	return out
}

func (r *invoiceRepo) List(ctx context.Context, filter repository.InvoiceFilter) ([]*models.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Invoice
	for _, inv := range r.s.invoices {
		if filter.SellerID != nil && inv.SellerID != *filter.SellerID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		cp := *inv
		cp.Items = nil
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WeekStartDate.Equal(out[j].WeekStartDate) {
			return out[i].InvoiceNumber > out[j].InvoiceNumber
		}
		return out[i].WeekStartDate.After(out[j].WeekStartDate)
	})
	return out, nil
}

func (r *invoiceRepo) ListPendingDueBefore(ctx context.Context, before time.Time) ([]*models.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Invoice
	for _, inv := range r.s.invoices {
		if inv.Status == models.InvoiceStatusPending && inv.DueDate.Before(before) {
			cp := *inv
			cp.Items = nil
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (r *invoiceRepo) MarkOverdue(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[id]
	if !ok {
		return false, apperrors.NotFound("invoice", id.String())
	}
	if inv.Status != models.InvoiceStatusPending {
		return false, nil
	}
	inv.Status = models.InvoiceStatusOverdue
	inv.UpdatedAt = at
	return true, nil
}

func (r *invoiceRepo) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, notes *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[id]
	if !ok {
		return apperrors.NotFound("invoice", id.String())
	}
	if inv.Status != models.InvoiceStatusPending && inv.Status != models.InvoiceStatusOverdue {
		return apperrors.BadRequest("invoice %s is already %s", inv.InvoiceNumber, inv.Status)
	}
	inv.Status = models.InvoiceStatusPaid
	paid := paidAt
	inv.PaidAt = &paid
	inv.PaymentNotes = notes
	inv.UpdatedAt = paidAt

	for _, item := range inv.Items {
		if o, ok := r.s.orders[item.OrderID]; ok {
			o.SellerPaid = true
			settled := paidAt
			o.PaymentSettledAt = &settled
			o.UpdatedAt = paidAt
		}
	}
	return nil
}

func (r *invoiceRepo) CountBySellerAndStatus(ctx context.Context, sellerID uuid.UUID, status models.InvoiceStatus) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, inv := range r.s.invoices {
		if inv.SellerID == sellerID && inv.Status == status {
			n++
		}
	}
	return n, nil
}
