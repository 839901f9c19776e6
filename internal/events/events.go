// Package events announces confirmed orders to downstream consumers.
package events

import (
	"context"
	"time"
)

const TypeOrderConfirmed = "OrderConfirmed"

// OrderConfirmed is emitted once an order and its stock decrement have
// committed. Amounts are decimal strings with two places.
type OrderConfirmed struct {
	EventID        string          `json:"event_id"`
	Type           string          `json:"type"`
	OrderID        int64           `json:"order_id"`
	CustomerID     int64           `json:"customer_id"`
	Items          []ConfirmedItem `json:"items"`
	PaymentType    string          `json:"payment_type"`
	ShippingMethod string          `json:"shipping_method"`
	Total          string          `json:"total"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

type ConfirmedItem struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

type Publisher interface {
	PublishOrderConfirmed(ctx context.Context, evt OrderConfirmed) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderConfirmed(context.Context, OrderConfirmed) error { return nil }
