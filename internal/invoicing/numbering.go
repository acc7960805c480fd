package invoicing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/01moynul/taptosell-settlement/internal/repository"
)

// maxNumberSuffix bounds the search for a free invoice number.
const maxNumberSuffix = 100

// BaseNumber formats INV-{year}-{isoWeek}-{first 8 chars of the seller id}.
// Year and week are both taken from the ISO calendar so late-December weeks
// that belong to the next ISO year keep a consistent pair.
func BaseNumber(weekStart time.Time, sellerID uuid.UUID) string {
	year, week := weekStart.ISOWeek()
	return fmt.Sprintf("INV-%d-%02d-%s", year, week, sellerID.String()[:8])
}

// allocateNumber returns base, or base-1, base-2, ... whichever is not yet
// persisted. Every candidate is checked against the store, never a local cache.
func allocateNumber(ctx context.Context, invoices repository.InvoiceRepository, base string) (string, error) {
	candidate := base
	for n := 1; n <= maxNumberSuffix; n++ {
		exists, err := invoices.NumberExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	return "", fmt.Errorf("no free invoice number after %d attempts for %s", maxNumberSuffix, base)
}
