package commission

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/taptosell-settlement/internal/models"
	"github.com/01moynul/taptosell-settlement/internal/repository/memory"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fixture() (*Ledger, *models.Order, map[uuid.UUID]*models.Product) {
	repos := memory.New().Repositories()
	affiliateID := uuid.New()
	mug := &models.Product{ID: uuid.New(), Name: "Mug", AffiliateCommission: decimal.NewNullDecimal(dec("5"))}
	lamp := &models.Product{ID: uuid.New(), Name: "Lamp", AffiliateCommission: decimal.NewNullDecimal(dec("12.5"))}
	plain := &models.Product{ID: uuid.New(), Name: "Plain"}
	order := &models.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-100",
		AffiliateID: &affiliateID,
		Items: []models.OrderItem{
			{ProductID: mug.ID, Quantity: 2, Price: dec("4.10"), BasePrice: decimal.NewNullDecimal(dec("250"))},
			{ProductID: lamp.ID, Quantity: 1, Price: dec("1199.99")},
			{ProductID: plain.ID, Quantity: 3, Price: dec("100")},
		},
	}
	products := map[uuid.UUID]*models.Product{mug.ID: mug, lamp.ID: lamp, plain.ID: plain}
	return NewLedger(repos.Commission, nil), order, products
}

func TestCreateForOrderSnapshotsPercentPerLine(t *testing.T) {
	l, order, products := fixture()
	rows, err := l.CreateForOrder(context.Background(), order, products)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.True(t, rows[0].OrderItemAmount.Equal(dec("500")))
	assert.True(t, rows[0].CommissionAmount.Equal(dec("25")))
	assert.True(t, rows[1].CommissionAmount.Equal(dec("150")), rows[1].CommissionAmount.String())

	var sum, expected decimal.Decimal
	for _, r := range rows {
		assert.Equal(t, models.CommissionStatusPending, r.Status)
		sum = sum.Add(r.CommissionAmount)
		expected = expected.Add(Amount(r.OrderItemAmount, r.CommissionPercent))
	}
	assert.True(t, sum.Equal(expected))

	stored, err := l.ListForOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestCreateForOrderWithoutAffiliate(t *testing.T) {
	l, order, products := fixture()
	order.AffiliateID = nil
	rows, err := l.CreateForOrder(context.Background(), order, products)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSyncStatusFollowsOrder(t *testing.T) {
	ctx := context.Background()
	l, order, products := fixture()
	_, err := l.CreateForOrder(ctx, order, products)
	require.NoError(t, err)

	statusOf := func() []models.CommissionStatus {
		rows, err := l.ListForOrder(ctx, order.ID)
		require.NoError(t, err)
		var out []models.CommissionStatus
		for _, r := range rows {
			out = append(out, r.Status)
		}
		return out
	}

	require.NoError(t, l.SyncStatus(ctx, order.ID, models.OrderStatusInTransit))
	assert.Equal(t, []models.CommissionStatus{models.CommissionStatusPending, models.CommissionStatusPending}, statusOf())

	require.NoError(t, l.SyncStatus(ctx, order.ID, models.OrderStatusDelivered))
	require.NoError(t, l.SyncStatus(ctx, order.ID, models.OrderStatusDelivered))
	assert.Equal(t, []models.CommissionStatus{models.CommissionStatusApproved, models.CommissionStatusApproved}, statusOf())

	require.NoError(t, l.SyncStatus(ctx, order.ID, models.OrderStatusReturned))
	assert.Equal(t, []models.CommissionStatus{models.CommissionStatusCancelled, models.CommissionStatusCancelled}, statusOf())
}

func TestTotalsForOrders(t *testing.T) {
	ctx := context.Background()
	l, order, products := fixture()
	_, err := l.CreateForOrder(ctx, order, products)
	require.NoError(t, err)

	totals, err := l.TotalsForOrders(ctx, []uuid.UUID{order.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, totals, 1)

	got := totals[order.ID]
	assert.True(t, got.Commission.Equal(dec("175")))
	assert.True(t, got.BaseAmount.Equal(dec("1699.99")))
	pct, ok := got.WeightedPercent()
	assert.True(t, ok)
	assert.True(t, pct.Equal(dec("10.2942")), pct.String())

	require.NoError(t, l.SyncStatus(ctx, order.ID, models.OrderStatusCancelled))
	totals, err = l.TotalsForOrders(ctx, []uuid.UUID{order.ID})
	require.NoError(t, err)
	assert.Empty(t, totals)
}
