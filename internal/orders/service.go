// Package orders implements the order status machine and order placement.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/01moynul/taptosell-settlement/internal/apperrors"
	"github.com/01moynul/taptosell-settlement/internal/commission"
	"github.com/01moynul/taptosell-settlement/internal/currency"
	"github.com/01moynul/taptosell-settlement/internal/models"
	"github.com/01moynul/taptosell-settlement/internal/notify"
	"github.com/01moynul/taptosell-settlement/internal/repository"
)

// OrderGate decides whether a seller may receive new orders.
type OrderGate interface {
	CanCreateOrders(ctx context.Context, sellerID uuid.UUID) (bool, error)
}

type Service struct {
	repos      *repository.Repositories
	ledger     *commission.Ledger
	dispatcher *notify.Dispatcher
	gate       OrderGate
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(repos *repository.Repositories, ledger *commission.Ledger, dispatcher *notify.Dispatcher, gate OrderGate, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repos:      repos,
		ledger:     ledger,
		dispatcher: dispatcher,
		gate:       gate,
		logger:     logger,
		now:        time.Now,
	}
}

// SetClock replaces the service clock.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Get returns an order visible to the actor.
func (s *Service) Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.owns(order) {
		return nil, apperrors.Forbidden("you do not have access to order %s", order.OrderNumber)
	}
	return order, nil
}

// Transition moves a seller's order to the requested status.
func (s *Service) Transition(ctx context.Context, in TransitionInput) (*models.Order, error) {
	order, err := s.repos.Order.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order.SellerID != in.SellerID {
		return nil, apperrors.Forbidden("you do not have permission to update order %s", order.OrderNumber)
	}
	if !in.Status.IsValid() {
		return nil, apperrors.BadRequest("unknown order status %q", in.Status)
	}
	if !order.Status.CanTransitionTo(in.Status) {
		return nil, invalidTransition(order.Status, in.Status)
	}

	change := models.StatusChange{
		OrderID:      order.ID,
		From:         order.Status,
		To:           in.Status,
		TrackingID:   trimmed(in.TrackingID),
		RestoreStock: in.Status.RequiresExplanation(),
		At:           s.now().UTC(),
	}
	if in.Status.RequiresExplanation() {
		explanation := trimmed(in.Explanation)
		if explanation == nil {
			return nil, apperrors.BadRequest("a status explanation is required when the order is %s", in.Status)
		}
		change.Explanation = explanation
	}

	return s.apply(ctx, order, change)
}

// Cancel cancels an order that has not been delivered yet.
func (s *Service) Cancel(ctx context.Context, in CancelInput) (*models.Order, error) {
	order, err := s.repos.Order.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if !in.Actor.owns(order) {
		return nil, apperrors.Forbidden("you do not have permission to cancel order %s", order.OrderNumber)
	}
	explanation := trimmed(&in.Explanation)
	if explanation == nil {
		return nil, apperrors.BadRequest("a cancellation reason is required")
	}
	switch order.Status {
	case models.OrderStatusPending, models.OrderStatusProcessing, models.OrderStatusInTransit:
	default:
		return nil, apperrors.BadRequest("order %s is %s and cannot be cancelled", order.OrderNumber, order.Status)
	}

	return s.apply(ctx, order, models.StatusChange{
		OrderID:      order.ID,
		From:         order.Status,
		To:           models.OrderStatusCancelled,
		Explanation:  explanation,
		RestoreStock: true,
		At:           s.now().UTC(),
	})
}

// Return marks a delivered order as returned and puts its items back in stock.
func (s *Service) Return(ctx context.Context, in ReturnInput) (*models.Order, error) {
	order, err := s.repos.Order.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if !in.Actor.owns(order) {
		return nil, apperrors.Forbidden("you do not have permission to return order %s", order.OrderNumber)
	}
	explanation := trimmed(&in.Explanation)
	if explanation == nil {
		return nil, apperrors.BadRequest("a return reason is required")
	}
	if order.Status != models.OrderStatusDelivered {
		return nil, apperrors.BadRequest("only delivered orders can be returned; order %s is %s", order.OrderNumber, order.Status)
	}

	return s.apply(ctx, order, models.StatusChange{
		OrderID:      order.ID,
		From:         order.Status,
		To:           models.OrderStatusReturned,
		Explanation:  explanation,
		RestoreStock: true,
		At:           s.now().UTC(),
	})
}

// apply persists the change and fires the side effects. Nothing after the
// store call can fail the request.
func (s *Service) apply(ctx context.Context, order *models.Order, change models.StatusChange) (*models.Order, error) {
	if err := s.repos.Order.ApplyStatusChange(ctx, change); err != nil {
		return nil, err
	}
	s.logger.Info("Order status changed",
		zap.String("order_number", order.OrderNumber),
		zap.String("from", string(change.From)),
		zap.String("to", string(change.To)),
		zap.Bool("stock_restored", change.RestoreStock),
	)

	if err := s.ledger.SyncStatus(ctx, order.ID, change.To); err != nil {
		s.logger.Warn("Failed to sync affiliate commissions", zap.String("order_number", order.OrderNumber), zap.Error(err))
	}

	updated, err := s.repos.Order.GetByID(ctx, order.ID)
	if err != nil {
		// The change is committed; report it on the copy we already have.
		s.logger.Warn("Failed to reload order", zap.String("order_number", order.OrderNumber), zap.Error(err))
		updated = order
		updated.Status = change.To
		updated.StatusExplanation = change.Explanation
		updated.UpdatedAt = change.At
	}

	s.notifyStatusChange(ctx, updated, change)
	return updated, nil
}

func (s *Service) notifyStatusChange(ctx context.Context, order *models.Order, change models.StatusChange) {
	metadata := models.Metadata{
		"status":         string(change.To),
		"previousStatus": string(change.From),
	}
	if order.TrackingID != nil {
		metadata["trackingId"] = *order.TrackingID
	}
	if change.Explanation != nil {
		metadata["statusExplanation"] = *change.Explanation
	}
	s.dispatcher.OrderEvent(notify.OrderEvent{
		SellerID:    order.SellerID,
		CustomerID:  order.CustomerID,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Type:        models.NotificationTypeFor(change.To),
		Metadata:    metadata,
	})

	if change.To.RequiresExplanation() {
		s.alertSeller(ctx, order)
	}
}

// alertSeller sends a Telegram alert if the seller opted in to order alerts.
func (s *Service) alertSeller(ctx context.Context, order *models.Order) {
	settings, err := s.repos.SellerSettings.Get(ctx, order.SellerID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.logger.Warn("Failed to read seller notification preferences", zap.String("seller_id", order.SellerID.String()), zap.Error(err))
		}
		return
	}
	prefs := settings.Prefs()
	if prefs.TelegramChatID == nil || !prefs.NotificationsOrders || !shipsTo(prefs.ShippingCountries, order.ShippingAddress.Country) {
		return
	}

	alert := models.OrderAlert{
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		TotalAmount: order.BaseTotal().StringFixed(2),
		Currency:    string(currency.BucketPtr(order.SellerBaseCurrency)),
		City:        order.ShippingAddress.City,
	}
	if order.StatusExplanation != nil {
		alert.Explanation = *order.StatusExplanation
	}
	s.dispatcher.OrderAlert(*prefs.TelegramChatID, alert)
}

// shipsTo treats an empty country list as shipping everywhere.
func shipsTo(countries []string, country string) bool {
	if len(countries) == 0 || country == "" {
		return true
	}
	for _, c := range countries {
		if strings.EqualFold(c, country) {
			return true
		}
	}
	return false
}

// PlaceOrder creates an order for one seller and takes its items out of stock.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, apperrors.BadRequest("an order needs at least one item")
	}
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return nil, apperrors.BadRequest("quantity must be positive")
		}
	}

	allowed, err := s.gate.CanCreateOrders(ctx, in.SellerID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperrors.Forbidden("this seller is not accepting orders at the moment")
	}

	ids := make([]uuid.UUID, 0, len(in.Items))
	for _, item := range in.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.repos.Product.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	rate := in.ExchangeRate
	if !rate.IsPositive() {
		rate = decimal.NewFromInt(1)
	}
	now := s.now().UTC()
	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     newOrderNumber(now),
		SellerID:        in.SellerID,
		CustomerID:      in.CustomerID,
		ExchangeRate:    rate,
		Status:          models.OrderStatusPending,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   normalizePaymentMethod(in.PaymentMethod),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var total, baseTotal decimal.Decimal
	var baseCurrency string
	for _, req := range in.Items {
		product, ok := products[req.ProductID]
		if !ok {
			return nil, apperrors.NotFound("product", req.ProductID.String())
		}
		if product.SellerID != in.SellerID {
			return nil, apperrors.BadRequest("product %s is not sold by this seller", product.Name)
		}
		if product.Status != models.ProductStatusActive {
			return nil, apperrors.BadRequest("product %s is not available", product.Name)
		}
		bucket := string(currency.Bucket(product.Currency))
		if baseCurrency == "" {
			baseCurrency = bucket
		} else if bucket != baseCurrency {
			// one base total per order, and lines are never converted between MKD and EUR
			return nil, apperrors.BadRequest("product %s is priced in %s but the order is in %s", product.Name, bucket, baseCurrency)
		}

		price := product.Price.Mul(rate).Round(2)
		item := models.OrderItem{
			ID:                 uuid.New(),
			OrderID:            order.ID,
			ProductID:          product.ID,
			ProductName:        product.Name,
			Quantity:           req.Quantity,
			Price:              price,
			BasePrice:          decimal.NewNullDecimal(product.Price),
			BaseCurrency:       bucket,
			VariantID:          req.VariantID,
			VariantCombination: req.VariantCombination,
			CreatedAt:          now,
		}
		order.Items = append(order.Items, item)
		total = total.Add(item.LineTotal())
		baseTotal = baseTotal.Add(item.BaseLineTotal())
	}
	order.TotalAmount = total
	order.TotalAmountBase = decimal.NewNullDecimal(baseTotal)
	order.SellerBaseCurrency = &baseCurrency
	order.BuyerCurrency = strings.ToUpper(strings.TrimSpace(in.BuyerCurrency))
	if order.BuyerCurrency == "" {
		order.BuyerCurrency = baseCurrency
	}

	if affiliate := s.resolveAffiliate(ctx, in); affiliate != nil {
		order.AffiliateID = &affiliate.ID
		code := affiliate.ReferralCode
		order.ReferralCode = &code
	}

	if err := s.repos.Order.Create(ctx, order); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, apperrors.BadRequest("%s", err.Error())
		}
		return nil, err
	}
	s.logger.Info("Order placed",
		zap.String("order_number", order.OrderNumber),
		zap.String("seller_id", order.SellerID.String()),
		zap.String("total", order.TotalAmount.String()),
	)

	if _, err := s.ledger.CreateForOrder(ctx, order, products); err != nil {
		s.logger.Error("Failed to create affiliate commissions", zap.String("order_number", order.OrderNumber), zap.Error(err))
	}

	s.dispatcher.OrderEvent(notify.OrderEvent{
		SellerID:    order.SellerID,
		CustomerID:  order.CustomerID,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Type:        models.NotificationOrderPlaced,
		Metadata:    models.Metadata{"status": string(order.Status), "totalAmount": order.TotalAmount.StringFixed(2)},
	})
	s.alertSeller(ctx, order)
	return order, nil
}

// resolveAffiliate returns the active affiliate attached directly or through a
// referral code. An unknown or inactive affiliate is ignored.
func (s *Service) resolveAffiliate(ctx context.Context, in PlaceOrderInput) *models.Affiliate {
	var (
		affiliate *models.Affiliate
		err       error
	)
	switch {
	case in.AffiliateID != nil:
		affiliate, err = s.repos.Affiliate.GetByID(ctx, *in.AffiliateID)
	case in.ReferralCode != nil && strings.TrimSpace(*in.ReferralCode) != "":
		affiliate, err = s.repos.Affiliate.GetActiveByReferralCode(ctx, strings.TrimSpace(*in.ReferralCode))
	default:
		return nil
	}
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.logger.Warn("Failed to resolve affiliate", zap.Error(err))
		}
		return nil
	}
	if affiliate.Status != models.AffiliateStatusActive {
		return nil
	}
	return affiliate
}

func invalidTransition(from, to models.OrderStatus) error {
	next := from.NextStatuses()
	valid := make([]string, len(next))
	for i, s := range next {
		valid[i] = string(s)
	}
	return &apperrors.ErrInvalidStateTransition{From: string(from), To: string(to), Valid: valid}
}

func normalizePaymentMethod(pm *string) *string {
	if pm == nil || strings.TrimSpace(*pm) == "" {
		cod := models.PaymentMethodCOD
		return &cod
	}
	v := strings.ToLower(strings.TrimSpace(*pm))
	return &v
}

func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
