package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/01moynul/taptosell-settlement/internal/models"
)

func sampleInvoice() *models.Invoice {
	week := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return &models.Invoice{
		ID:             uuid.New(),
		InvoiceNumber:  "INV-2026-10-3f2a9c1e",
		WeekStartDate:  week,
		WeekEndDate:    week.AddDate(0, 0, 7).Add(-time.Millisecond),
		DueDate:        time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
		Status:         models.InvoiceStatusPending,
		TotalAmount:    decimal.NewFromInt(95),
		TotalAmountMKD: decimal.NewFromInt(95),
		OrderCount:     1,
		Items: []models.InvoiceItem{{
			OrderNumber:         "ORD-20260303-AB12CD",
			DeliveryDate:        week.AddDate(0, 0, 1),
			ProductPrice:        decimal.NewFromInt(1000),
			PlatformFeePercent:  decimal.NewFromInt(7),
			PlatformFee:         decimal.NewFromInt(70),
			AffiliateFeePercent: decimal.NewNullDecimal(decimal.RequireFromString("2.5")),
			AffiliateFee:        decimal.NewFromInt(25),
			TotalOwed:           decimal.NewFromInt(95),
			TotalOwedMKD:        decimal.NewFromInt(95),
		}},
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "inv-2026-10-3f2a9c1e-ana-petrova.xlsx", FileName(sampleInvoice(), "Ana Petrova"))
}

func TestWriteInvoiceRoundTripsThroughExcel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteInvoice(&buf, sampleInvoice(), "Ana Petrova", time.UTC))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Invoice", "Orders"}, f.GetSheetList())

	number, err := f.GetCellValue("Invoice", "B1")
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-10-3f2a9c1e", number)

	period, err := f.GetCellValue("Invoice", "B3")
	require.NoError(t, err)
	assert.Equal(t, "02.03.2026 - 08.03.2026", period)

	order, err := f.GetCellValue("Orders", "B2")
	require.NoError(t, err)
	assert.Equal(t, "ORD-20260303-AB12CD", order)

	owed, err := f.GetCellValue("Orders", "I2")
	require.NoError(t, err)
	assert.Equal(t, "95", owed)

	affPct, err := f.GetCellValue("Orders", "G2")
	require.NoError(t, err)
	assert.Equal(t, "2.5", affPct)
}
