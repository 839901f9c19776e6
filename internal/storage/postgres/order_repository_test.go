package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cimillas/order-service/internal/app"
	"github.com/cimillas/order-service/internal/clock"
	"github.com/cimillas/order-service/internal/domain"
	"github.com/cimillas/order-service/internal/strategy"
	"github.com/cimillas/order-service/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewOrderRepository(pool)
	products := NewProductRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	newOrder := func(customerID int64) domain.Order {
		return domain.Order{
			CustomerID:     customerID,
			Status:         domain.OrderStatusConfirmed,
			PaymentType:    strategy.PaymentCreditCard,
			PaymentFee:     decimal.RequireFromString("0.90"),
			ShippingMethod: strategy.ShippingStandard,
			ShippingCost:   decimal.RequireFromString("5.99"),
			ShippingDays:   7,
			Subtotal:       decimal.RequireFromString("29.99"),
			Total:          decimal.RequireFromString("36.88"),
			CreatedAt:      time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC),
		}
	}

	t.Run("CreateOrder and AddItems round trip", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		customerID := testutil.InsertCustomer(t, ctx, pool, "john@example.com")
		productID := testutil.InsertProduct(t, ctx, pool, "Wireless Mouse", "29.99", 50)

		var orderID int64
		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			id, err := repo.CreateOrder(txCtx, newOrder(customerID))
			if err != nil {
				return err
			}
			orderID = id
			return repo.AddItems(txCtx, id, []domain.OrderItem{
				{ProductID: productID, Quantity: 1, PriceAtOrder: decimal.RequireFromString("29.99")},
			})
		})
		if err != nil {
			t.Fatalf("tx failed: %v", err)
		}

		got, err := repo.FindOrderByID(ctx, orderID)
		if err != nil {
			t.Fatalf("find order: %v", err)
		}
		if got == nil {
			t.Fatalf("expected order %d", orderID)
		}
		if got.Total.StringFixed(2) != "36.88" || got.PaymentFee.StringFixed(2) != "0.90" {
			t.Fatalf("unexpected amounts: %+v", got)
		}
		if got.Status != domain.OrderStatusConfirmed || got.ShippingDays != 7 {
			t.Fatalf("unexpected order: %+v", got)
		}

		items, err := repo.FindItemsByOrder(ctx, orderID)
		if err != nil {
			t.Fatalf("find items: %v", err)
		}
		if len(items) != 1 || items[0].PriceAtOrder.StringFixed(2) != "29.99" {
			t.Fatalf("unexpected items: %+v", items)
		}

		missing, err := repo.FindOrderByID(ctx, orderID+1)
		if err != nil || missing != nil {
			t.Fatalf("expected nil order, got %+v, %v", missing, err)
		}
	})

	t.Run("CreateOrder maps unknown customer", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		_, err := repo.CreateOrder(ctx, newOrder(404))
		if !errors.Is(err, domain.ErrCustomerNotFound) {
			t.Fatalf("expected ErrCustomerNotFound, got %v", err)
		}
	})

	t.Run("failed stock decrement rolls back the order", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		customerID := testutil.InsertCustomer(t, ctx, pool, "john@example.com")
		productID := testutil.InsertProduct(t, ctx, pool, "Laptop", "1299.99", 1)

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			id, err := repo.CreateOrder(txCtx, newOrder(customerID))
			if err != nil {
				return err
			}
			if err := repo.AddItems(txCtx, id, []domain.OrderItem{
				{ProductID: productID, Quantity: 2, PriceAtOrder: decimal.RequireFromString("1299.99")},
			}); err != nil {
				return err
			}
			return products.UpdateStock(txCtx, productID, -2)
		})
		if !errors.Is(err, domain.ErrStockConflict) {
			t.Fatalf("expected ErrStockConflict, got %v", err)
		}
		if n := testutil.CountRows(t, ctx, pool, "orders"); n != 0 {
			t.Fatalf("expected no orders, got %d", n)
		}
		if n := testutil.CountRows(t, ctx, pool, "order_items"); n != 0 {
			t.Fatalf("expected no items, got %d", n)
		}
		if s := testutil.ProductStock(t, ctx, pool, productID); s != 1 {
			t.Fatalf("expected stock 1, got %d", s)
		}
	})
}

func TestOrderService_Postgres(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)

	orders := NewOrderRepository(pool)
	products := NewProductRepository(pool)
	customers := NewCustomerRepository(pool)
	svc := app.NewOrderService(orders, products, customers,
		strategy.NewPaymentRegistry(), strategy.NewShippingRegistry(),
		clock.NewFixed(time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC)))

	t.Run("creates an order and decrements stock atomically", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		customerID := testutil.InsertCustomer(t, ctx, pool, "john@example.com")
		mouse := testutil.InsertProduct(t, ctx, pool, "Wireless Mouse", "29.99", 50)

		r, err := svc.CreateOrder(ctx, app.CreateOrderInput{
			CustomerID:     customerID,
			Items:          []domain.LineItem{{ProductID: mouse, Quantity: 1}},
			PaymentType:    strategy.PaymentCreditCard,
			ShippingMethod: strategy.ShippingStandard,
		})
		require.NoError(t, err)
		assert.Equal(t, "36.88", r.Total.StringFixed(2))
		assert.Equal(t, 49, testutil.ProductStock(t, ctx, pool, mouse))

		details, err := svc.GetOrder(ctx, r.OrderID)
		require.NoError(t, err)
		require.Len(t, details.Items, 1)
		assert.Equal(t, "29.99", details.Items[0].PriceAtOrder.StringFixed(2))
	})

	t.Run("insufficient stock writes nothing", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		customerID := testutil.InsertCustomer(t, ctx, pool, "john@example.com")
		hub := testutil.InsertProduct(t, ctx, pool, "USB-C Hub", "49.99", 25)

		_, err := svc.CreateOrder(ctx, app.CreateOrderInput{
			CustomerID:     customerID,
			Items:          []domain.LineItem{{ProductID: hub, Quantity: 1000}},
			PaymentType:    strategy.PaymentCreditCard,
			ShippingMethod: strategy.ShippingStandard,
		})
		require.ErrorIs(t, err, domain.ErrInsufficientStock)
		assert.Equal(t, 0, testutil.CountRows(t, ctx, pool, "orders"))
		assert.Equal(t, 25, testutil.ProductStock(t, ctx, pool, hub))
	})

	t.Run("parallel orders never oversell", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		customerID := testutil.InsertCustomer(t, ctx, pool, "john@example.com")
		laptop := testutil.InsertProduct(t, ctx, pool, "Laptop", "1299.99", 7)

		var (
			wg sync.WaitGroup
			mu sync.Mutex
			ok int
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.CreateOrder(ctx, app.CreateOrderInput{
					CustomerID:     customerID,
					Items:          []domain.LineItem{{ProductID: laptop, Quantity: 2}},
					PaymentType:    strategy.PaymentPayPal,
					ShippingMethod: strategy.ShippingExpress,
				})
				if err == nil {
					mu.Lock()
					ok++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 3, ok)
		assert.Equal(t, 1, testutil.ProductStock(t, ctx, pool, laptop))
		assert.Equal(t, 3, testutil.CountRows(t, ctx, pool, "orders"))
	})
}
