package strategy

import (
	"github.com/cimillas/order-service/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	PaymentCreditCard = "credit_card"
	PaymentPayPal     = "paypal"
	PaymentBitcoin    = "bitcoin"
)

// Payment computes the processing fee charged for a subtotal.
type Payment interface {
	Fee(subtotal decimal.Decimal) decimal.Decimal
	Type() string
}

// PercentageFee charges Rate of the subtotal, rounded to cents.
type PercentageFee struct {
	Key  string
	Rate decimal.Decimal
}

func (p PercentageFee) Fee(subtotal decimal.Decimal) decimal.Decimal {
	return domain.Round2(subtotal.Mul(p.Rate))
}

func (p PercentageFee) Type() string { return p.Key }

// FlatFee charges Amount regardless of the subtotal.
type FlatFee struct {
	Key    string
	Amount decimal.Decimal
}

func (f FlatFee) Fee(decimal.Decimal) decimal.Decimal {
	return domain.Round2(f.Amount)
}

func (f FlatFee) Type() string { return f.Key }

// PaymentRegistry is the registry type consumed by the order workflow.
type PaymentRegistry = Registry[Payment]

// NewPaymentRegistry returns a registry with credit_card (3%), paypal (3.5%)
// and bitcoin (flat 1.50) registered.
func NewPaymentRegistry() *PaymentRegistry {
	r := NewRegistry[Payment]("payment")
	r.Register(PaymentCreditCard, func() Payment {
		return PercentageFee{Key: PaymentCreditCard, Rate: decimal.RequireFromString("0.03")}
	})
	r.Register(PaymentPayPal, func() Payment {
		return PercentageFee{Key: PaymentPayPal, Rate: decimal.RequireFromString("0.035")}
	})
	r.Register(PaymentBitcoin, func() Payment {
		return FlatFee{Key: PaymentBitcoin, Amount: domain.Cents(150)}
	})
	return r
}
