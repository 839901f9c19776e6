package app

import (
	"fmt"
	"strings"

	"github.com/cimillas/order-service/internal/domain"
)

// KeySet reports which strategy keys a registry accepts.
type KeySet interface {
	IsSupported(key string) bool
	SupportedKeys() []string
}

// Validator checks the shape of a create-order request. It performs no I/O
// and stops at the first violation.
type Validator struct {
	payments KeySet
	shipping KeySet
}

func NewValidator(payments, shipping KeySet) *Validator {
	return &Validator{payments: payments, shipping: shipping}
}

func (v *Validator) Validate(in CreateOrderInput) error {
	if in.CustomerID <= 0 {
		return invalid("customer_id", "customer_id is required")
	}
	if len(in.Items) == 0 {
		return invalid("items", "items array is required and must not be empty")
	}
	perProduct := make(map[int64]int, len(in.Items))
	for _, item := range in.Items {
		if item.ProductID <= 0 {
			return invalid("items.product_id", "Each item must have a valid product_id")
		}
		if item.Quantity <= 0 {
			return invalid("items.quantity", "Each item must have a valid quantity greater than 0")
		}
		// Both terms are capped, so the sum cannot overflow.
		if item.Quantity > domain.MaxLineQuantity || perProduct[item.ProductID] > domain.MaxLineQuantity-item.Quantity {
			return invalid("items.quantity", fmt.Sprintf("quantity for product %d must not exceed %d", item.ProductID, domain.MaxLineQuantity))
		}
		perProduct[item.ProductID] += item.Quantity
	}
	if in.PaymentType == "" || !v.payments.IsSupported(in.PaymentType) {
		return invalid("payment_type", "payment_type must be one of: "+strings.Join(v.payments.SupportedKeys(), ", "))
	}
	if in.ShippingMethod == "" || !v.shipping.IsSupported(in.ShippingMethod) {
		return invalid("shipping_method", "shipping_method must be one of: "+strings.Join(v.shipping.SupportedKeys(), ", "))
	}
	return nil
}

func invalid(field, msg string) error {
	return &domain.ValidationError{Field: field, Message: msg}
}
