package strategy

import (
	"github.com/cimillas/order-service/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	ShippingStandard  = "standard"
	ShippingExpress   = "express"
	ShippingOvernight = "overnight"
)

// Shipping prices a delivery method. Neither value depends on order content.
type Shipping interface {
	Cost() decimal.Decimal
	DeliveryDays() int
	Method() string
}

// FixedRate is a shipping method with a constant cost and delivery estimate.
type FixedRate struct {
	Key  string
	Rate decimal.Decimal
	Days int
}

func (f FixedRate) Cost() decimal.Decimal { return domain.Round2(f.Rate) }
func (f FixedRate) DeliveryDays() int     { return f.Days }
func (f FixedRate) Method() string        { return f.Key }

type ShippingRegistry = Registry[Shipping]

// NewShippingRegistry returns a registry with standard (5.99, 7 days),
// express (12.99, 3 days) and overnight (24.99, 1 day).
func NewShippingRegistry() *ShippingRegistry {
	r := NewRegistry[Shipping]("shipping")
	r.Register(ShippingStandard, fixed(ShippingStandard, 599, 7))
	r.Register(ShippingExpress, fixed(ShippingExpress, 1299, 3))
	r.Register(ShippingOvernight, fixed(ShippingOvernight, 2499, 1))
	return r
}

func fixed(key string, cents int64, days int) Factory[Shipping] {
	return func() Shipping {
		return FixedRate{Key: key, Rate: domain.Cents(cents), Days: days}
	}
}
