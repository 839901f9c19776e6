package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Stock only changes through stock adjustments.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	CreatedAt   time.Time
}

// Customer is read-only from the order workflow's point of view.
type Customer struct {
	ID        int64
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
}
