package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrUnsupportedStrategy = errors.New("unsupported strategy")
	ErrStockConflict       = errors.New("stock changed concurrently")
	ErrPersistence         = errors.New("persistence failure")
	ErrInvalidID           = errors.New("invalid id")
)

// ValidationError reports the first malformed field of a request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError names the missing entity and its identifier.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	switch e.Entity {
	case EntityCustomer:
		return target == ErrCustomerNotFound
	case EntityProduct:
		return target == ErrProductNotFound
	case EntityOrder:
		return target == ErrOrderNotFound
	}
	return false
}

const (
	EntityCustomer = "customer"
	EntityProduct  = "product"
	EntityOrder    = "order"
)

func CustomerNotFound(id int64) error { return &NotFoundError{Entity: EntityCustomer, ID: id} }
func ProductNotFound(id int64) error  { return &NotFoundError{Entity: EntityProduct, ID: id} }
func OrderNotFound(id int64) error    { return &NotFoundError{Entity: EntityOrder, ID: id} }

// InsufficientStockError carries the shortfall for one product.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s. Available: %d, Requested: %d",
		e.ProductName, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// UnsupportedStrategyError is returned when a registry has no factory for a key.
type UnsupportedStrategyError struct {
	Kind string
	Key  string
}

func (e *UnsupportedStrategyError) Error() string {
	return fmt.Sprintf("unsupported %s type: %s", e.Kind, e.Key)
}

func (e *UnsupportedStrategyError) Is(target error) bool {
	return target == ErrUnsupportedStrategy
}

// PersistenceError wraps a repository failure that is not a business rejection.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}
