// Package analytics computes the settlement KPIs shown on the seller dashboard.
package analytics

import (
	"context"

	"github.com/google/uuid"

	"github.com/01moynul/taptosell-settlement/internal/apperrors"
	"github.com/01moynul/taptosell-settlement/internal/currency"
	"github.com/01moynul/taptosell-settlement/internal/models"
	"github.com/01moynul/taptosell-settlement/internal/repository"
)

// SellerSummary is the seller's settlement position. Every amount is in the
// seller's base currency, split into the MKD and EUR buckets.
type SellerSummary struct {
	SellerID          uuid.UUID                  `json:"sellerId"`
	OrdersByStatus    map[models.OrderStatus]int `json:"ordersByStatus"`
	DeliveredRevenue  currency.Split             `json:"deliveredRevenue"`
	UncollectedCOD    currency.Split             `json:"uncollectedCod"` // delivered COD not yet settled with the platform
	OpenPayables      currency.Split             `json:"openPayables"`   // pending + overdue invoices
	OverduePayables   currency.Split             `json:"overduePayables"`
	OpenInvoices      int                        `json:"openInvoices"`
	OverdueInvoices   int                        `json:"overdueInvoices"`
	PaymentRestricted bool                       `json:"paymentRestricted"`
}

type Service struct {
	repos *repository.Repositories
}

func NewService(repos *repository.Repositories) *Service {
	return &Service{repos: repos}
}

// SellerSummary aggregates the seller's orders and invoices.
func (s *Service) SellerSummary(ctx context.Context, sellerID uuid.UUID) (*SellerSummary, error) {
	sum := &SellerSummary{
		SellerID:       sellerID,
		OrdersByStatus: make(map[models.OrderStatus]int),
	}

	// 1. Orders: counts per status, revenue of delivered orders
	orders, err := s.repos.Order.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		sum.OrdersByStatus[o.Status]++
		if o.Status != models.OrderStatusDelivered {
			continue
		}
		code := currency.BucketPtr(o.SellerBaseCurrency)
		sum.DeliveredRevenue.Add(code, o.BaseTotal())
		if o.IsCashOnDelivery() && !o.SellerPaid {
			sum.UncollectedCOD.Add(code, o.BaseTotal())
		}
	}

	// 2. Invoices: what the seller still owes the platform
	invoices, err := s.repos.Invoice.List(ctx, repository.InvoiceFilter{SellerID: &sellerID})
	if err != nil {
		return nil, err
	}
	for _, inv := range invoices {
		owed := currency.Split{MKD: inv.TotalAmountMKD, EUR: inv.TotalAmountEUR}
		switch inv.Status {
		case models.InvoiceStatusPending:
			sum.OpenInvoices++
			sum.OpenPayables.Merge(owed)
		case models.InvoiceStatusOverdue:
			sum.OpenInvoices++
			sum.OverdueInvoices++
			sum.OpenPayables.Merge(owed)
			sum.OverduePayables.Merge(owed)
		}
	}

	// 3. Restriction flag
	st, err := s.repos.SellerSettings.Get(ctx, sellerID)
	switch {
	case err == nil:
		sum.PaymentRestricted = st.PaymentRestricted
	case !apperrors.IsNotFound(err):
		return nil, err
	}
	return sum, nil
}
