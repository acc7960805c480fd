package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/01moynul/taptosell-settlement/internal/apperrors"
	"github.com/01moynul/taptosell-settlement/internal/models"
)

type commissionRepo struct{ s *Store }

func (r *commissionRepo) CreateBatch(ctx context.Context, commissions []*models.AffiliateCommission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range commissions {
		cp := *c
		r.s.commissions = append(r.s.commissions, &cp)
	}
	return nil
}

func (r *commissionRepo) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*models.AffiliateCommission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.AffiliateCommission
	for _, c := range r.s.commissions {
		if c.OrderID == orderID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *commissionRepo) ListByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]*models.AffiliateCommission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(orderIDs))
	for _, id := range orderIDs {
		wanted[id] = true
	}
	out := make(map[uuid.UUID][]*models.AffiliateCommission)
	for _, c := range r.s.commissions {
		if wanted[c.OrderID] {
			cp := *c
			out[c.OrderID] = append(out[c.OrderID], &cp)
		}
	}
	return out, nil
}

func (r *commissionRepo) UpdateStatusByOrderID(ctx context.Context, orderID uuid.UUID, status models.CommissionStatus, skip ...models.CommissionStatus) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	now := time.Now().UTC()
	for _, c := range r.s.commissions {
		if c.OrderID != orderID || c.Status == status || containsStatus(skip, c.Status) {
			continue
		}
		c.Status = status
		c.UpdatedAt = now
		n++
	}
	return n, nil
}

func containsStatus(list []models.CommissionStatus, s models.CommissionStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type sellerRepo struct{ s *Store }

func (r *sellerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seller, ok := r.s.sellers[id]
	if !ok {
		return nil, apperrors.NotFound("seller", id.String())
	}
	cp := *seller
	return &cp, nil
}

func (r *sellerRepo) List(ctx context.Context) ([]*models.Seller, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Seller, 0, len(r.s.sellers))
	for _, seller := range r.s.sellers {
		cp := *seller
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

type settingsRepo struct{ s *Store }

func (r *settingsRepo) Get(ctx context.Context, sellerID uuid.UUID) (*models.SellerSettings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.settings[sellerID]
	if !ok {
		return nil, apperrors.NotFound("seller settings", sellerID.String())
	}
	cp := *st
	return &cp, nil
}

// upsert returns the settings row for sellerID, creating the default row when missing.
func (r *settingsRepo) upsert(sellerID uuid.UUID) *models.SellerSettings {
	st, ok := r.s.settings[sellerID]
	if !ok {
		now := time.Now().UTC()
		st = &models.SellerSettings{
			SellerID:            sellerID,
			NotificationsOrders: true,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		r.s.settings[sellerID] = st
	}
	return st
}

func (r *settingsRepo) SetPlatformFeeOverride(ctx context.Context, sellerID uuid.UUID, percent *decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st := r.upsert(sellerID)
	if percent == nil {
		st.PlatformFeePercent = decimal.NullDecimal{}
	} else {
		st.PlatformFeePercent = decimal.NewNullDecimal(*percent)
	}
	st.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *settingsRepo) SetPaymentRestriction(ctx context.Context, sellerID uuid.UUID, restricted bool, at *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st := r.upsert(sellerID)
	st.PaymentRestricted = restricted
	st.PaymentRestrictedAt = at
	st.UpdatedAt = time.Now().UTC()
	return nil
}

type platformRepo struct{ s *Store }

func (r *platformRepo) DefaultPlatformFeePercent(ctx context.Context) (decimal.Decimal, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.platformFee == nil {
		return decimal.Zero, false, nil
	}
	return *r.s.platformFee, true, nil
}

func (r *platformRepo) SetDefaultPlatformFeePercent(ctx context.Context, percent decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.platformFee = &percent
	return nil
}

type notificationRepo struct{ s *Store }

func (r *notificationRepo) Create(ctx context.Context, n *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *n
	r.s.notifications = append(r.s.notifications, &cp)
	return nil
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Notification
	for i := len(r.s.notifications) - 1; i >= 0; i-- {
		n := r.s.notifications[i]
		if n.UserID != userID {
			continue
		}
		cp := *n
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
