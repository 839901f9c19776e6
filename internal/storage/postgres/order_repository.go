package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cimillas/order-service/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type OrderRepository struct {
	db
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{db{pool: pool}}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// CreateOrder inserts the order header and returns the id assigned by the
// orders sequence. A zero CreatedAt falls back to the database clock.
func (r *OrderRepository) CreateOrder(ctx context.Context, order domain.Order) (int64, error) {
	const stmt = `
INSERT INTO orders (
	customer_id, status, payment_type, payment_fee, shipping_method,
	shipping_cost, shipping_days, subtotal, total, created_at
)
VALUES ($1, $2, $3, $4::numeric, $5, $6::numeric, $7, $8::numeric, $9::numeric, COALESCE($10, NOW()))
RETURNING id`

	var createdAt *time.Time
	if !order.CreatedAt.IsZero() {
		createdAt = &order.CreatedAt
	}

	var id int64
	err := r.queryRow(ctx, stmt,
		order.CustomerID,
		string(order.Status),
		order.PaymentType,
		order.PaymentFee.StringFixed(2),
		order.ShippingMethod,
		order.ShippingCost.StringFixed(2),
		order.ShippingDays,
		order.Subtotal.StringFixed(2),
		order.Total.StringFixed(2),
		createdAt,
	).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, domain.CustomerNotFound(order.CustomerID)
		}
		return 0, fmt.Errorf("create order: %w", err)
	}
	return id, nil
}

// AddItems inserts the order lines in one round trip.
func (r *OrderRepository) AddItems(ctx context.Context, orderID int64, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	const stmt = `
INSERT INTO order_items (order_id, product_id, quantity, price_at_order)
VALUES ($1, $2, $3, $4::numeric)`

	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(stmt, orderID, it.ProductID, it.Quantity, it.PriceAtOrder.StringFixed(2))
	}

	results := r.sendBatch(ctx, batch)
	defer results.Close()
	for _, it := range items {
		if _, err := results.Exec(); err != nil {
			if isForeignKeyViolation(err) {
				return domain.ProductNotFound(it.ProductID)
			}
			return fmt.Errorf("add order item: %w", err)
		}
	}
	return nil
}

func (r *OrderRepository) FindOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	const query = `
SELECT id, customer_id, status, payment_type, payment_fee::text, shipping_method,
	shipping_cost::text, shipping_days, subtotal::text, total::text, created_at
FROM orders
WHERE id = $1`

	var (
		o                          domain.Order
		status                     string
		fee, cost, subtotal, total string
	)
	err := r.queryRow(ctx, query, id).Scan(
		&o.ID, &o.CustomerID, &status, &o.PaymentType, &fee, &o.ShippingMethod,
		&cost, &o.ShippingDays, &subtotal, &total, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	o.Status = domain.OrderStatus(status)

	amounts := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&o.PaymentFee, fee},
		{&o.ShippingCost, cost},
		{&o.Subtotal, subtotal},
		{&o.Total, total},
	}
	for _, a := range amounts {
		d, err := decimal.NewFromString(a.src)
		if err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", a.src, err)
		}
		*a.dst = d
	}
	return &o, nil
}

func (r *OrderRepository) FindItemsByOrder(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	const query = `
SELECT id, order_id, product_id, quantity, price_at_order::text
FROM order_items
WHERE order_id = $1
ORDER BY id ASC`

	rows, err := r.query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		var (
			it    domain.OrderItem
			price string
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if it.PriceAtOrder, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse price %q: %w", price, err)
		}
		items = append(items, it)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate order items: %w", rows.Err())
	}
	return items, nil
}
