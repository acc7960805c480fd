package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/01moynul/taptosell-settlement/internal/models"
)

// Role is who is acting on an order.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

// Actor is the authenticated caller.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// owns reports whether the actor may act on the order.
func (a Actor) owns(o *models.Order) bool {
	switch a.Role {
	case RoleAdmin:
		return true
	case RoleSeller:
		return o.SellerID == a.UserID
	case RoleCustomer:
		return o.CustomerID == a.UserID
	default:
		return false
	}
}

// TransitionInput is a seller moving an order along the status machine.
type TransitionInput struct {
	OrderID     uuid.UUID
	SellerID    uuid.UUID
	Status      models.OrderStatus
	TrackingID  *string
	Explanation *string
}

// CancelInput cancels an order on behalf of its customer, its seller or an admin.
type CancelInput struct {
	OrderID     uuid.UUID
	Actor       Actor
	Explanation string
}

// ReturnInput marks a delivered order as returned.
type ReturnInput struct {
	OrderID     uuid.UUID
	Actor       Actor
	Explanation string
}

// PlaceOrderItem is one requested line.
type PlaceOrderItem struct {
	ProductID          uuid.UUID
	Quantity           int
	VariantID          *uuid.UUID
	VariantCombination *string
}

// PlaceOrderInput is a customer checkout for a single seller.
// ExchangeRate converts the seller's base currency into BuyerCurrency; zero means 1.
type PlaceOrderInput struct {
	CustomerID      uuid.UUID
	SellerID        uuid.UUID
	Items           []PlaceOrderItem
	ShippingAddress models.ShippingAddress
	PaymentMethod   *string
	BuyerCurrency   string
	ExchangeRate    decimal.Decimal
	AffiliateID     *uuid.UUID
	ReferralCode    *string
}
