package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusInTransit  OrderStatus = "in_transit"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusReturned   OrderStatus = "returned"
)

// orderTransitions lists the statuses a seller may move an order to.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusInTransit, OrderStatusCancelled},
	OrderStatusInTransit:  {OrderStatusDelivered, OrderStatusReturned},
}

// IsValid checks if the order status is known
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusInTransit,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled || s == OrderStatusReturned
}

// RequiresExplanation reports whether an order in this status must carry a statusExplanation.
func (s OrderStatus) RequiresExplanation() bool {
	return s == OrderStatusCancelled || s == OrderStatusReturned
}

// NextStatuses returns the allowed targets from s. Terminal states return nil.
func (s OrderStatus) NextStatuses() []OrderStatus {
	next := orderTransitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

// CanTransitionTo checks if a status transition is valid
func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// ShippingAddress is stored as a JSON column on orders.
type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country"`
	Phone   string `json:"phone"`
}

// Scan implements sql.Scanner
func (a *ShippingAddress) Scan(value interface{}) error {
	if value == nil {
		*a = ShippingAddress{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("shipping address: unsupported column type")
	}
	return json.Unmarshal(raw, a)
}

// Value implements driver.Valuer
func (a ShippingAddress) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Order is the model for the 'orders' table
type Order struct {
	ID                 uuid.UUID           `json:"id" db:"id"`
	OrderNumber        string              `json:"orderNumber" db:"order_number"`
	SellerID           uuid.UUID           `json:"sellerId" db:"seller_id"`
	CustomerID         uuid.UUID           `json:"customerId" db:"customer_id"`
	AffiliateID        *uuid.UUID          `json:"affiliateId,omitempty" db:"affiliate_id"`
	ReferralCode       *string             `json:"referralCode,omitempty" db:"referral_code"`
	TotalAmount        decimal.Decimal     `json:"totalAmount" db:"total_amount"`          // buyer currency
	TotalAmountBase    decimal.NullDecimal `json:"totalAmountBase" db:"total_amount_base"` // seller base currency
	BuyerCurrency      string              `json:"buyerCurrency" db:"buyer_currency"`
	SellerBaseCurrency *string             `json:"sellerBaseCurrency,omitempty" db:"seller_base_currency"`
	ExchangeRate       decimal.Decimal     `json:"exchangeRate" db:"exchange_rate"`
	Status             OrderStatus         `json:"status" db:"status"`
	TrackingID         *string             `json:"trackingId,omitempty" db:"tracking_id"`
	StatusExplanation  *string             `json:"statusExplanation,omitempty" db:"status_explanation"`
	ShippingAddress    ShippingAddress     `json:"shippingAddress" db:"shipping_address"`
	PaymentMethod      *string             `json:"paymentMethod,omitempty" db:"payment_method"`
	SellerPaid         bool                `json:"sellerPaid" db:"seller_paid"`
	AdminPaid          bool                `json:"adminPaid" db:"admin_paid"`
	PaymentSettledAt   *time.Time          `json:"paymentSettledAt,omitempty" db:"payment_settled_at"`
	CreatedAt          time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time           `json:"updatedAt" db:"updated_at"`

	Items []OrderItem `json:"items" db:"-"`
}

// BaseTotal is the order total in the seller's base currency. Legacy orders
// created before base amounts were recorded fall back to TotalAmount.
func (o *Order) BaseTotal() decimal.Decimal {
	if o.TotalAmountBase.Valid {
		return o.TotalAmountBase.Decimal
	}
	return o.TotalAmount
}

// IsCashOnDelivery reports whether the seller collected the money and owes the platform.
func (o *Order) IsCashOnDelivery() bool {
	return o.PaymentMethod == nil || strings.EqualFold(strings.TrimSpace(*o.PaymentMethod), PaymentMethodCOD)
}

// PaymentMethodCOD is the payment method value for cash-on-delivery orders.
const PaymentMethodCOD = "cod"

// OrderItem is the model for the 'order_items' table
type OrderItem struct {
	ID                 uuid.UUID           `json:"id" db:"id"`
	OrderID            uuid.UUID           `json:"orderId" db:"order_id"`
	ProductID          uuid.UUID           `json:"productId" db:"product_id"`
	ProductName        string              `json:"productName" db:"product_name"`
	Quantity           int                 `json:"quantity" db:"quantity"`
	Price              decimal.Decimal     `json:"price" db:"price"`          // buyer currency, at the time of purchase
	BasePrice          decimal.NullDecimal `json:"basePrice" db:"base_price"` // seller currency snapshot
	BaseCurrency       string              `json:"baseCurrency" db:"base_currency"`
	VariantID          *uuid.UUID          `json:"variantId,omitempty" db:"variant_id"`
	VariantCombination *string             `json:"variantCombination,omitempty" db:"variant_combination"`
	CreatedAt          time.Time           `json:"createdAt" db:"created_at"`
}

// LineTotal is price × quantity in the buyer currency.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// BaseLineTotal is the line amount in the seller's base currency, falling back to the buyer price.
func (i OrderItem) BaseLineTotal() decimal.Decimal {
	price := i.Price
	if i.BasePrice.Valid {
		price = i.BasePrice.Decimal
	}
	return price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// StatusChange is an atomic status update applied by the order store.
// The store only applies it if the order is still in From; stock is
// restored for every line item when RestoreStock is set.
type StatusChange struct {
	OrderID      uuid.UUID
	From         OrderStatus
	To           OrderStatus
	TrackingID   *string
	Explanation  *string
	RestoreStock bool
	At           time.Time
}
