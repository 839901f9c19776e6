package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cimillas/order-service/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type ProductRepository struct {
	db
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{db{pool: pool}}
}

const productColumns = `id, name, description, price::text, stock, created_at`

func (r *ProductRepository) FindProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	row := r.queryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// UpdateStock applies delta only if the result stays non-negative. When the
// guard rejects the change the current stock is read back so the caller gets
// the shortfall together with domain.ErrStockConflict.
func (r *ProductRepository) UpdateStock(ctx context.Context, id int64, delta int) error {
	const stmt = `
UPDATE products
SET stock = stock + $2
WHERE id = $1 AND stock + $2 >= 0`

	tag, err := r.exec(ctx, stmt, id, delta)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: product %d", domain.ErrStockConflict, id)
		}
		return fmt.Errorf("update stock: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var (
		name  string
		stock int
	)
	err = r.queryRow(ctx, `SELECT name, stock FROM products WHERE id = $1`, id).Scan(&name, &stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ProductNotFound(id)
		}
		return fmt.Errorf("read stock: %w", err)
	}
	return fmt.Errorf("%w: %w", domain.ErrStockConflict, &domain.InsufficientStockError{
		ProductID:   id,
		ProductName: name,
		Available:   stock,
		Requested:   -delta,
	})
}

func (r *ProductRepository) HasStock(ctx context.Context, id int64, qty int) (bool, error) {
	var ok bool
	err := r.queryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND stock >= $2)`, id, qty).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check stock: %w", err)
	}
	return ok, nil
}

func (r *ProductRepository) ListProductsInStock(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.query(ctx, `
SELECT `+productColumns+`
FROM products
WHERE stock > 0
ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate products: %w", rows.Err())
	}
	return products, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p     domain.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Stock, &p.CreatedAt); err != nil {
		return domain.Product{}, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("parse price %q: %w", price, err)
	}
	p.Price = d
	return p, nil
}
