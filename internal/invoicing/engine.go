// Package invoicing bills sellers for delivered cash-on-delivery orders and
// tracks what they owe until the invoice is settled.
package invoicing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/01moynul/taptosell-settlement/internal/apperrors"
	"github.com/01moynul/taptosell-settlement/internal/commission"
	"github.com/01moynul/taptosell-settlement/internal/currency"
	"github.com/01moynul/taptosell-settlement/internal/fees"
	"github.com/01moynul/taptosell-settlement/internal/lock"
	"github.com/01moynul/taptosell-settlement/internal/models"
	"github.com/01moynul/taptosell-settlement/internal/notify"
	"github.com/01moynul/taptosell-settlement/internal/repository"
)

const (
	defaultDueLagDays = 5
	defaultLockTTL    = 5 * time.Minute
	maxCreateAttempts = 5
)

var hundred = decimal.NewFromInt(100)

// Options tune the engine. Zero values fall back to the defaults.
type Options struct {
	Location   *time.Location
	DueLagDays int
	LockTTL    time.Duration
}

// Engine generates seller invoices.
type Engine struct {
	repos      *repository.Repositories
	ledger     *commission.Ledger
	fees       *fees.Resolver
	locker     lock.Locker
	dispatcher *notify.Dispatcher
	loc        *time.Location
	dueLagDays int
	lockTTL    time.Duration
	logger     *zap.Logger
}

func NewEngine(repos *repository.Repositories, ledger *commission.Ledger, resolver *fees.Resolver, locker lock.Locker, dispatcher *notify.Dispatcher, opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.DueLagDays <= 0 {
		opts.DueLagDays = defaultDueLagDays
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultLockTTL
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &Engine{
		repos:      repos,
		ledger:     ledger,
		fees:       resolver,
		locker:     locker,
		dispatcher: dispatcher,
		loc:        opts.Location,
		dueLagDays: opts.DueLagDays,
		lockTTL:    opts.LockTTL,
		logger:     logger,
	}
}

// RunReport summarises one weekly run.
type RunReport struct {
	Week     Window            `json:"week"`
	Sellers  int               `json:"sellers"`
	Created  []*models.Invoice `json:"created"`
	Skipped  int               `json:"skipped"`
	Failures []SellerFailure   `json:"failures"`
}

// SellerFailure records a seller the run could not invoice.
type SellerFailure struct {
	SellerID uuid.UUID `json:"sellerId"`
	Error    string    `json:"error"`
}

// GenerateWeekly invoices every seller for the ISO week before now.
// A failing seller is logged and skipped; only listing the sellers is fatal.
func (e *Engine) GenerateWeekly(ctx context.Context, now time.Time) (*RunReport, error) {
	week := PreviousWeek(now, e.loc)
	sellers, err := e.repos.Seller.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sellers: %w", err)
	}

	report := &RunReport{Week: week, Sellers: len(sellers)}
	e.logger.Info("Weekly invoice run started",
		zap.Time("week_start", week.Start),
		zap.Time("week_end", week.End),
		zap.Int("sellers", len(sellers)),
	)

	for _, seller := range sellers {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		inv, err := e.weeklyForSeller(ctx, seller, week, now)
		switch {
		case errors.Is(err, errSellerBusy):
			report.Failures = append(report.Failures, SellerFailure{SellerID: seller.ID, Error: err.Error()})
		case err != nil:
			e.logger.Error("Weekly invoice failed for seller",
				zap.String("seller_id", seller.ID.String()),
				zap.Error(err),
			)
			report.Failures = append(report.Failures, SellerFailure{SellerID: seller.ID, Error: err.Error()})
		case inv == nil:
			report.Skipped++
		default:
			report.Created = append(report.Created, inv)
		}
	}

	e.logger.Info("Weekly invoice run finished",
		zap.Int("created", len(report.Created)),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", len(report.Failures)),
	)
	return report, nil
}

// errSellerBusy is reported when another run holds the seller's lock.
var errSellerBusy = errors.New("another invoice run holds the seller lock; run the admin generation for this week")

// weeklyForSeller returns a nil invoice when there is nothing to bill.
func (e *Engine) weeklyForSeller(ctx context.Context, seller *models.Seller, week Window, now time.Time) (*models.Invoice, error) {
	release, err := e.locker.Acquire(ctx, lock.SellerKey(seller.ID), e.lockTTL)
	if errors.Is(err, lock.ErrNotAcquired) {
		// the next weekly run only looks at its own week, so this one needs an admin run
		e.logger.Warn("Seller invoice run already in progress, week not invoiced",
			zap.String("seller_id", seller.ID.String()),
			zap.Time("week_start", week.Start),
			zap.Time("week_end", week.End),
		)
		return nil, errSellerBusy
	}
	if err != nil {
		return nil, fmt.Errorf("acquire seller lock: %w", err)
	}
	defer release()

	exists, err := e.repos.Invoice.ExistsForWeek(ctx, seller.ID, week.Start)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	orders, err := e.eligibleOrders(ctx, repository.InvoiceableFilter{
		SellerID:     seller.ID,
		UpdatedFrom:  &week.Start,
		UpdatedUntil: &week.End,
	})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return e.createInvoice(ctx, seller, orders, week, now)
}

// GenerateForSeller bills every delivered, unpaid COD order of the seller that
// no invoice covers yet, regardless of when it was delivered.
func (e *Engine) GenerateForSeller(ctx context.Context, sellerID uuid.UUID, now time.Time) (*models.Invoice, error) {
	seller, err := e.repos.Seller.GetByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	release, err := e.locker.Acquire(ctx, lock.SellerKey(seller.ID), e.lockTTL)
	if errors.Is(err, lock.ErrNotAcquired) {
		return nil, apperrors.Conflict("an invoice run for this seller is already in progress")
	}
	if err != nil {
		return nil, fmt.Errorf("acquire seller lock: %w", err)
	}
	defer release()

	orders, err := e.eligibleOrders(ctx, repository.InvoiceableFilter{SellerID: seller.ID})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, apperrors.BadRequest("no uninvoiced delivered cash-on-delivery orders for seller %s", seller.ID)
	}

	window := Window{Start: deliveryDate(orders[0]), End: deliveryDate(orders[0])}
	for _, o := range orders[1:] {
		d := deliveryDate(o)
		if d.Before(window.Start) {
			window.Start = d
		}
		if d.After(window.End) {
			window.End = d
		}
	}
	return e.createInvoice(ctx, seller, orders, window, now)
}

// eligibleOrders lists invoiceable orders minus those already on an invoice item.
func (e *Engine) eligibleOrders(ctx context.Context, filter repository.InvoiceableFilter) ([]*models.Order, error) {
	orders, err := e.repos.Order.ListInvoiceable(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	invoiced, err := e.repos.Invoice.InvoicedOrderIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := orders[:0]
	for _, o := range orders {
		if !invoiced[o.ID] {
			out = append(out, o)
		}
	}
	return out, nil
}

// deliveryDate is the last update of a delivered order, which is when it was
// moved to delivered since delivered is terminal.
func deliveryDate(o *models.Order) time.Time {
	return o.UpdatedAt
}

// PlatformFee is base × percent / 100, rounded to cents.
func PlatformFee(base, percent decimal.Decimal) decimal.Decimal {
	return base.Mul(percent).Div(hundred).Round(2)
}

// Build computes the invoice for orders without persisting it.
func (e *Engine) Build(ctx context.Context, sellerID uuid.UUID, orders []*models.Order, window Window, now time.Time) (*models.Invoice, error) {
	percent, err := e.fees.EffectivePercent(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("resolve platform fee: %w", err)
	}

	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	commissions, err := e.ledger.TotalsForOrders(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load affiliate commissions: %w", err)
	}

	created := now.UTC()
	inv := &models.Invoice{
		ID:            uuid.New(),
		SellerID:      sellerID,
		WeekStartDate: window.Start,
		WeekEndDate:   window.End,
		DueDate:       DueDate(now, e.dueLagDays, e.loc),
		Status:        models.InvoiceStatusPending,
		OrderCount:    len(orders),
		CreatedAt:     created,
		UpdatedAt:     created,
	}

	var total currency.Split
	for _, o := range orders {
		item := buildItem(inv.ID, o, percent, commissions[o.ID], created)
		total.Add(currency.BucketPtr(o.SellerBaseCurrency), item.TotalOwed)
		inv.Items = append(inv.Items, item)
	}
	inv.TotalAmountMKD = total.MKD
	inv.TotalAmountEUR = total.EUR
	inv.TotalAmount = total.Total()
	return inv, nil
}

func buildItem(invoiceID uuid.UUID, o *models.Order, percent decimal.Decimal, aff commission.Totals, at time.Time) models.InvoiceItem {
	base := o.BaseTotal()
	platformFee := PlatformFee(base, percent)
	affiliateFee := aff.Commission
	owed := platformFee.Add(affiliateFee)

	item := models.InvoiceItem{
		ID:                 uuid.New(),
		InvoiceID:          invoiceID,
		OrderID:            o.ID,
		OrderNumber:        o.OrderNumber,
		DeliveryDate:       deliveryDate(o),
		ProductPrice:       base,
		PlatformFeePercent: percent,
		PlatformFee:        platformFee,
		AffiliateFee:       affiliateFee,
		TotalOwed:          owed,
		CreatedAt:          at,
	}
	if pct, ok := aff.WeightedPercent(); ok {
		item.AffiliateFeePercent = decimal.NewNullDecimal(pct)
	}

	code := currency.BucketPtr(o.SellerBaseCurrency)
	price := currency.SplitOf(code, base)
	fee := currency.SplitOf(code, platformFee)
	affSplit := currency.SplitOf(code, affiliateFee)
	owedSplit := currency.SplitOf(code, owed)
	item.ProductPriceMKD, item.ProductPriceEUR = price.MKD, price.EUR
	item.PlatformFeeMKD, item.PlatformFeeEUR = fee.MKD, fee.EUR
	item.AffiliateFeeMKD, item.AffiliateFeeEUR = affSplit.MKD, affSplit.EUR
	item.TotalOwedMKD, item.TotalOwedEUR = owedSplit.MKD, owedSplit.EUR
	return item
}

// createInvoice builds, numbers and stores the invoice, then emails the seller.
// A number taken between the lookup and the insert is retried with a fresh lookup.
func (e *Engine) createInvoice(ctx context.Context, seller *models.Seller, orders []*models.Order, window Window, now time.Time) (*models.Invoice, error) {
	inv, err := e.Build(ctx, seller.ID, orders, window, now)
	if err != nil {
		return nil, err
	}

	base := BaseNumber(window.Start, seller.ID)
	for attempt := 1; ; attempt++ {
		number, err := allocateNumber(ctx, e.repos.Invoice, base)
		if err != nil {
			return nil, err
		}
		inv.InvoiceNumber = number

		err = e.repos.Invoice.Create(ctx, inv)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicateInvoiceNumber) && attempt < maxCreateAttempts {
			e.logger.Warn("Invoice number taken concurrently, retrying",
				zap.String("invoice_number", number),
				zap.Int("attempt", attempt),
			)
			continue
		}
		return nil, err
	}

	stored, err := e.repos.Invoice.GetByID(ctx, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("reload invoice %s: %w", inv.InvoiceNumber, err)
	}

	e.logger.Info("Invoice generated",
		zap.String("invoice_number", stored.InvoiceNumber),
		zap.String("seller_id", seller.ID.String()),
		zap.Int("orders", stored.OrderCount),
		zap.String("total", stored.TotalAmount.StringFixed(2)),
	)
	if e.dispatcher != nil {
		e.dispatcher.InvoiceSummary(seller.Email, stored.Summary(seller.FullName))
	}
	return stored, nil
}
