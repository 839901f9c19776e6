package postgres

import (
	"context"
	"fmt"

	"github.com/cimillas/order-service/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminRepository maintains the catalog and customer tables. Explicit ids
// are upserted and the id sequences are moved past them so later inserts
// without an id do not collide. An existing product keeps its stock; only
// UpdateStock changes it.
type AdminRepository struct {
	db
}

func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{db{pool: pool}}
}

func (r *AdminRepository) SaveProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	var saved domain.Product
	err := withTx(ctx, r.pool, func(txCtx context.Context) error {
		var err error
		if p.ID == 0 {
			saved, err = scanProduct(r.queryRow(txCtx, `
INSERT INTO products (name, description, price, stock)
VALUES ($1, $2, $3::numeric, $4)
RETURNING `+productColumns,
				p.Name, p.Description, p.Price.StringFixed(2), p.Stock))
			return err
		}
		saved, err = scanProduct(r.queryRow(txCtx, `
INSERT INTO products (id, name, description, price, stock)
VALUES ($1, $2, $3, $4::numeric, $5)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
	description = EXCLUDED.description,
	price = EXCLUDED.price
RETURNING `+productColumns,
			p.ID, p.Name, p.Description, p.Price.StringFixed(2), p.Stock))
		if err != nil {
			return err
		}
		return r.syncSequence(txCtx, "products")
	})
	if err != nil {
		if isCheckViolation(err) {
			return domain.Product{}, &domain.ValidationError{Field: "stock", Message: "stock and price must not be negative"}
		}
		return domain.Product{}, fmt.Errorf("save product: %w", err)
	}
	return saved, nil
}

func (r *AdminRepository) SaveCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	var saved domain.Customer
	err := withTx(ctx, r.pool, func(txCtx context.Context) error {
		if c.ID == 0 {
			return r.queryRow(txCtx, `
INSERT INTO customers (email, first_name, last_name)
VALUES ($1, $2, $3)
RETURNING id, email, first_name, last_name, created_at`,
				c.Email, c.FirstName, c.LastName,
			).Scan(&saved.ID, &saved.Email, &saved.FirstName, &saved.LastName, &saved.CreatedAt)
		}
		err := r.queryRow(txCtx, `
INSERT INTO customers (id, email, first_name, last_name)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
SET email = EXCLUDED.email,
	first_name = EXCLUDED.first_name,
	last_name = EXCLUDED.last_name
RETURNING id, email, first_name, last_name, created_at`,
			c.ID, c.Email, c.FirstName, c.LastName,
		).Scan(&saved.ID, &saved.Email, &saved.FirstName, &saved.LastName, &saved.CreatedAt)
		if err != nil {
			return err
		}
		return r.syncSequence(txCtx, "customers")
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Customer{}, &domain.ValidationError{Field: "email", Message: "email is already registered"}
		}
		return domain.Customer{}, fmt.Errorf("save customer: %w", err)
	}
	return saved, nil
}

func (r *AdminRepository) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.query(ctx, `
SELECT id, email, first_name, last_name, created_at
FROM customers
ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := []domain.Customer{}
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate customers: %w", rows.Err())
	}
	return customers, nil
}

// syncSequence only accepts the fixed table names used in this file.
func (r *AdminRepository) syncSequence(ctx context.Context, table string) error {
	stmt := fmt.Sprintf(
		`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), GREATEST((SELECT MAX(id) FROM %[1]s), 1))`,
		table)
	if _, err := r.exec(ctx, stmt); err != nil {
		return fmt.Errorf("sync %s sequence: %w", table, err)
	}
	return nil
}
