// Package memory is an in-process implementation of the repository ports.
// It backs the service tests and local runs without MySQL; every method
// honours the same contracts as the MySQL store, including the
// compare-and-set on status changes and the invoice exclusion check.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/01moynul/taptosell-settlement/internal/models"
	"github.com/01moynul/taptosell-settlement/internal/repository"
)

// Store holds every table behind one mutex.
type Store struct {
	mu sync.Mutex

	orders        map[uuid.UUID]*models.Order
	products      map[uuid.UUID]*models.Product
	affiliates    map[uuid.UUID]*models.Affiliate
	commissions   []*models.AffiliateCommission
	sellers       map[uuid.UUID]*models.Seller
	settings      map[uuid.UUID]*models.SellerSettings
	platformFee   *decimal.Decimal
	invoices      map[uuid.UUID]*models.Invoice
	notifications []*models.Notification
}

// New returns an empty store.
func New() *Store {
	return &Store{
		orders:     make(map[uuid.UUID]*models.Order),
		products:   make(map[uuid.UUID]*models.Product),
		affiliates: make(map[uuid.UUID]*models.Affiliate),
		sellers:    make(map[uuid.UUID]*models.Seller),
		settings:   make(map[uuid.UUID]*models.SellerSettings),
		invoices:   make(map[uuid.UUID]*models.Invoice),
	}
}

// Repositories exposes the store through the repository ports.
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Order:            &orderRepo{s},
		Product:          &productRepo{s},
		Affiliate:        &affiliateRepo{s},
		Commission:       &commissionRepo{s},
		Seller:           &sellerRepo{s},
		SellerSettings:   &settingsRepo{s},
		PlatformSettings: &platformRepo{s},
		Invoice:          &invoiceRepo{s},
		Notification:     &notificationRepo{s},
	}
}

// Seeding helpers. They store copies so callers can keep mutating their values.

func (s *Store) AddSeller(seller models.Seller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sellers[seller.ID] = &seller
}

func (s *Store) AddProduct(p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = &p
}

func (s *Store) AddAffiliate(a models.Affiliate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.affiliates[a.ID] = &a
}

func (s *Store) PutSettings(st models.SellerSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[st.SellerID] = &st
}

// PutOrder stores an order as-is, without touching stock.
func (s *Store) PutOrder(o models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = cloneOrder(&o)
}

// PutInvoice stores an invoice as-is, bypassing the exclusion check.
func (s *Store) PutInvoice(inv models.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[inv.ID] = cloneInvoice(&inv)
}

// Product returns a copy of the product, or nil.
func (s *Store) Product(id uuid.UUID) *models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// Notifications returns every stored notification in insertion order.
func (s *Store) Notifications() []*models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Notification, len(s.notifications))
	for i, n := range s.notifications {
		cp := *n
		out[i] = &cp
	}
	return out
}

func cloneOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Items = append([]models.OrderItem(nil), o.Items...)
	return &cp
}

func cloneInvoice(inv *models.Invoice) *models.Invoice {
	cp := *inv
	cp.Items = append([]models.InvoiceItem(nil), inv.Items...)
	return &cp
}

func sortOrders(orders []*models.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].UpdatedAt.Equal(orders[j].UpdatedAt) {
			return orders[i].OrderNumber < orders[j].OrderNumber
		}
		return orders[i].UpdatedAt.Before(orders[j].UpdatedAt)
	})
}

func inWindow(t time.Time, from, until *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if until != nil && t.After(*until) {
		return false
	}
	return true
}
