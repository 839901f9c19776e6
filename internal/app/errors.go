package app

import (
	"errors"

	"github.com/cimillas/order-service/internal/domain"
)

var businessErrors = []error{
	domain.ErrValidation,
	domain.ErrCustomerNotFound,
	domain.ErrProductNotFound,
	domain.ErrOrderNotFound,
	domain.ErrInsufficientStock,
	domain.ErrUnsupportedStrategy,
	domain.ErrStockConflict,
	domain.ErrInvalidID,
	domain.ErrPersistence,
}

// storageErr passes domain errors through untouched and marks anything
// else coming out of a repository as a persistence failure.
func storageErr(op string, err error) error {
	for _, known := range businessErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	return &domain.PersistenceError{Op: op, Err: err}
}
