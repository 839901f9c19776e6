package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cimillas/order-service/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CustomerRepository struct {
	db
}

func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{db{pool: pool}}
}

func (r *CustomerRepository) FindCustomerByID(ctx context.Context, id int64) (*domain.Customer, error) {
	const query = `
SELECT id, email, first_name, last_name, created_at
FROM customers
WHERE id = $1`

	var c domain.Customer
	err := r.queryRow(ctx, query, id).Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}
