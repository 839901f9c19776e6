package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

// Orders are created confirmed; no other lifecycle state exists yet.
const OrderStatusConfirmed OrderStatus = "confirmed"

// MaxLineQuantity bounds one product's quantity in an order, summed over
// its lines. It matches the INTEGER quantity and stock columns.
const MaxLineQuantity = math.MaxInt32

// Order is a placed order header.
type Order struct {
	ID             int64
	CustomerID     int64
	Status         OrderStatus
	PaymentType    string
	PaymentFee     decimal.Decimal
	ShippingMethod string
	ShippingCost   decimal.Decimal
	ShippingDays   int
	Subtotal       decimal.Decimal
	Total          decimal.Decimal
	CreatedAt      time.Time
}

// OrderItem is a persisted line. PriceAtOrder is captured when the order is
// placed and never follows later catalog price changes.
type OrderItem struct {
	ID           int64
	OrderID      int64
	ProductID    int64
	Quantity     int
	PriceAtOrder decimal.Decimal
}

// LineItem is a requested product and quantity.
type LineItem struct {
	ProductID int64
	Quantity  int
}
