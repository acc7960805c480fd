// Package export renders invoices as spreadsheets for download.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/01moynul/taptosell-settlement/internal/models"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	summarySheet = "Invoice"
	itemsSheet   = "Orders"
	dateLayout   = "02.01.2006"
)

var itemHeaders = []string{
	"#", "Order", "Delivered", "Order total",
	"Platform fee %", "Platform fee", "Affiliate fee %", "Affiliate fee",
	"Owed", "Owed MKD", "Owed EUR",
}

var itemWidths = []float64{6, 24, 12, 14, 14, 14, 15, 14, 12, 12, 12}

// FileName is the download name, e.g. inv-2026-10-3f2a9c1e-ana-petrova.xlsx.
func FileName(inv *models.Invoice, sellerName string) string {
	return slug.Make(inv.InvoiceNumber+" "+sellerName) + ".xlsx"
}

// InvoiceWorkbook builds a two-sheet workbook: a summary and one row per billed order.
// Dates are shown in loc.
func InvoiceWorkbook(inv *models.Invoice, sellerName string, loc *time.Location) (*excelize.File, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}

	// 1. Summary sheet
	summary := [][]interface{}{
		{"Invoice", inv.InvoiceNumber},
		{"Seller", sellerName},
		{"Period", inv.WeekStartDate.In(loc).Format(dateLayout) + " - " + inv.WeekEndDate.In(loc).Format(dateLayout)},
		{"Due date", inv.DueDate.In(loc).Format(dateLayout)},
		{"Status", string(inv.Status)},
		{"Orders", inv.OrderCount},
		{"Total MKD", money(inv.TotalAmountMKD)},
		{"Total EUR", money(inv.TotalAmountEUR)},
		{"Total", money(inv.TotalAmount)},
	}
	if inv.PaidAt != nil {
		summary = append(summary, []interface{}{"Paid at", inv.PaidAt.In(loc).Format(dateLayout)})
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 14); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(summarySheet, "B", "B", 32); err != nil {
		return nil, err
	}

	// 2. Items sheet
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(itemsSheet, "A1", &itemHeaders); err != nil {
		return nil, err
	}
	for i, item := range inv.Items {
		affiliatePercent := interface{}("")
		if item.AffiliateFeePercent.Valid {
			affiliatePercent = money(item.AffiliateFeePercent.Decimal)
		}
		row := []interface{}{
			i + 1,
			item.OrderNumber,
			item.DeliveryDate.In(loc).Format(dateLayout),
			money(item.ProductPrice),
			money(item.PlatformFeePercent),
			money(item.PlatformFee),
			affiliatePercent,
			money(item.AffiliateFee),
			money(item.TotalOwed),
			money(item.TotalOwedMKD),
			money(item.TotalOwedEUR),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(itemsSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	// 3. Column widths
	for i, width := range itemWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(itemsSheet, col, col, width); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// WriteInvoice streams the workbook for inv to w.
func WriteInvoice(w io.Writer, inv *models.Invoice, sellerName string, loc *time.Location) error {
	f, err := InvoiceWorkbook(inv, sellerName, loc)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func money(d decimal.Decimal) float64 {
	return d.Round(4).InexactFloat64()
}
