package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/taptosell-settlement/internal/apperrors"
	"github.com/01moynul/taptosell-settlement/internal/models"
	"github.com/01moynul/taptosell-settlement/internal/repository"
)

func seedOrder(s *Store, status models.OrderStatus, stock int) (models.Order, uuid.UUID) {
	productID := uuid.New()
	s.AddProduct(models.Product{
		ID:            productID,
		Name:          "Mug",
		Price:         decimal.NewFromInt(250),
		StockQuantity: stock,
		Status:        models.ProductStatusOutOfStock,
	})
	order := models.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-1",
		SellerID:    uuid.New(),
		Status:      status,
		Items:       []models.OrderItem{{ID: uuid.New(), ProductID: productID, Quantity: 3, Price: decimal.NewFromInt(250)}},
	}
	s.PutOrder(order)
	return order, productID
}

func TestApplyStatusChangeRestoresStockOnce(t *testing.T) {
	s := New()
	repos := s.Repositories()
	order, productID := seedOrder(s, models.OrderStatusProcessing, 0)
	explanation := "customer changed their mind"

	change := models.StatusChange{
		OrderID:      order.ID,
		From:         models.OrderStatusProcessing,
		To:           models.OrderStatusCancelled,
		Explanation:  &explanation,
		RestoreStock: true,
		At:           time.Now(),
	}
	require.NoError(t, repos.Order.ApplyStatusChange(context.Background(), change))

	err := repos.Order.ApplyStatusChange(context.Background(), change)
	assert.True(t, apperrors.IsConflict(err))

	p := s.Product(productID)
	assert.Equal(t, 3, p.StockQuantity)
	assert.Equal(t, models.ProductStatusActive, p.Status)

	got, err := repos.Order.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)
	require.NotNil(t, got.StatusExplanation)
	assert.Equal(t, explanation, *got.StatusExplanation)
}

func TestOrderCreateRejectsInsufficientStock(t *testing.T) {
	s := New()
	repos := s.Repositories()
	order, productID := seedOrder(s, models.OrderStatusPending, 2)
	order.ID = uuid.New()
	order.OrderNumber = "ORD-2"

	err := repos.Order.Create(context.Background(), &order)
	assert.True(t, errors.Is(err, repository.ErrInsufficientStock))
	assert.Equal(t, 2, s.Product(productID).StockQuantity)
}

func TestInvoiceCreateRejectsAlreadyInvoicedOrders(t *testing.T) {
	s := New()
	repos := s.Repositories()
	orderID := uuid.New()

	first := &models.Invoice{ID: uuid.New(), InvoiceNumber: "INV-2025-01-aaaaaaaa", Items: []models.InvoiceItem{{ID: uuid.New(), OrderID: orderID}}}
	require.NoError(t, repos.Invoice.Create(context.Background(), first))

	second := &models.Invoice{ID: uuid.New(), InvoiceNumber: "INV-2025-01-aaaaaaaa-1", Items: []models.InvoiceItem{{ID: uuid.New(), OrderID: orderID}}}
	err := repos.Invoice.Create(context.Background(), second)
	assert.True(t, apperrors.IsConflict(err))

	dup := &models.Invoice{ID: uuid.New(), InvoiceNumber: "INV-2025-01-aaaaaaaa", Items: []models.InvoiceItem{{ID: uuid.New(), OrderID: uuid.New()}}}
	assert.ErrorIs(t, repos.Invoice.Create(context.Background(), dup), repository.ErrDuplicateInvoiceNumber)
}

func TestSettingsGetMissingIsNotFound(t *testing.T) {
	repos := New().Repositories()
	_, err := repos.SellerSettings.Get(context.Background(), uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}
