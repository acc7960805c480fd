package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/01moynul/taptosell-settlement/internal/apperrors"
	"github.com/01moynul/taptosell-settlement/internal/models"
	"github.com/01moynul/taptosell-settlement/internal/repository"
)

type orderRepo struct{ s *Store }

func (r *orderRepo) Create(ctx context.Context, order *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, o := range r.s.orders {
		if o.OrderNumber == order.OrderNumber {
			return apperrors.Conflict("order number %s already exists", order.OrderNumber)
		}
	}

	// Check every line first so a failed order leaves stock untouched.
	need := make(map[uuid.UUID]int)
	for _, item := range order.Items {
		need[item.ProductID] += item.Quantity
	}
	for id, qty := range need {
		p, ok := r.s.products[id]
		if !ok {
			return apperrors.NotFound("product", id.String())
		}
		if p.StockQuantity < qty {
			return fmt.Errorf("product %s: %w", p.Name, repository.ErrInsufficientStock)
		}
	}
	for id, qty := range need {
		p := r.s.products[id]
		p.StockQuantity -= qty
		if p.StockQuantity == 0 {
			p.Status = models.ProductStatusOutOfStock
		}
		p.UpdatedAt = order.CreatedAt
	}

	r.s.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order", id.String())
	}
	return cloneOrder(o), nil
}

func (r *orderRepo) ApplyStatusChange(ctx context.Context, change models.StatusChange) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[change.OrderID]
	if !ok {
		return apperrors.NotFound("order", change.OrderID.String())
	}
	if o.Status != change.From {
		return apperrors.Conflict("order %s is no longer %s", o.OrderNumber, change.From)
	}

	if change.RestoreStock {
		for _, item := range o.Items {
			p, ok := r.s.products[item.ProductID]
			if !ok {
				continue
			}
			p.StockQuantity += item.Quantity
			if p.StockQuantity > 0 && p.Status == models.ProductStatusOutOfStock {
				p.Status = models.ProductStatusActive
			}
			p.UpdatedAt = change.At
		}
	}

	o.Status = change.To
	if change.TrackingID != nil {
		tracking := *change.TrackingID
		o.TrackingID = &tracking
	}
	if change.To.RequiresExplanation() && change.Explanation != nil {
		explanation := *change.Explanation
		o.StatusExplanation = &explanation
	} else {
		o.StatusExplanation = nil
	}
	o.UpdatedAt = change.At
	return nil
}

func (r *orderRepo) ListInvoiceable(ctx context.Context, filter repository.InvoiceableFilter) ([]*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*models.Order
	for _, o := range r.s.orders {
		if o.SellerID != filter.SellerID || o.Status != models.OrderStatusDelivered || o.SellerPaid || !o.IsCashOnDelivery() {
			continue
		}
		if !inWindow(o.UpdatedAt, filter.UpdatedFrom, filter.UpdatedUntil) {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sortOrders(out)
	return out, nil
}

func (r *orderRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*models.Order
	for _, o := range r.s.orders {
		if o.SellerID == sellerID {
			out = append(out, cloneOrder(o))
		}
	}
	sortOrders(out)
	return out, nil
}

type productRepo struct{ s *Store }

func (r *productRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[uuid.UUID]*models.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

type affiliateRepo struct{ s *Store }

func (r *affiliateRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Affiliate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.affiliates[id]
	if !ok {
		return nil, apperrors.NotFound("affiliate", id.String())
	}
	cp := *a
	return &cp, nil
}

func (r *affiliateRepo) GetActiveByReferralCode(ctx context.Context, code string) (*models.Affiliate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.affiliates {
		if a.ReferralCode == code && a.Status == models.AffiliateStatusActive {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("affiliate", code)
}
