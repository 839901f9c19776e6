package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cimillas/order-service/internal/domain"
	"github.com/cimillas/order-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewProductRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	t.Run("FindProductByID returns nil when absent", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		id := testutil.InsertProduct(t, ctx, pool, "USB-C Hub", "49.99", 25)

		p, err := repo.FindProductByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "USB-C Hub", p.Name)
		assert.Equal(t, "49.99", p.Price.StringFixed(2))
		assert.Equal(t, 25, p.Stock)

		missing, err := repo.FindProductByID(ctx, id+100)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("UpdateStock refuses to go negative", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		id := testutil.InsertProduct(t, ctx, pool, "Laptop", "1299.99", 2)

		require.NoError(t, repo.UpdateStock(ctx, id, -2))
		assert.Equal(t, 0, testutil.ProductStock(t, ctx, pool, id))

		err := repo.UpdateStock(ctx, id, -1)
		require.ErrorIs(t, err, domain.ErrStockConflict)
		var short *domain.InsufficientStockError
		require.True(t, errors.As(err, &short))
		assert.Equal(t, 0, short.Available)
		assert.Equal(t, 1, short.Requested)

		require.NoError(t, repo.UpdateStock(ctx, id, 4))
		assert.Equal(t, 4, testutil.ProductStock(t, ctx, pool, id))

		assert.ErrorIs(t, repo.UpdateStock(ctx, id+100, -1), domain.ErrProductNotFound)
	})

	t.Run("concurrent decrements stop at zero", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		id := testutil.InsertProduct(t, ctx, pool, "Laptop", "1299.99", 5)

		var (
			wg sync.WaitGroup
			mu sync.Mutex
			ok int
		)
		for i := 0; i < 12; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := repo.UpdateStock(ctx, id, -1); err == nil {
					mu.Lock()
					ok++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 5, ok)
		assert.Equal(t, 0, testutil.ProductStock(t, ctx, pool, id))
	})

	t.Run("ListProductsInStock skips empty products and sorts by name", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertProduct(t, ctx, pool, "Wireless Mouse", "29.99", 50)
		testutil.InsertProduct(t, ctx, pool, "Cable", "9.99", 0)
		hub := testutil.InsertProduct(t, ctx, pool, "USB-C Hub", "49.99", 25)
		testutil.InsertProduct(t, ctx, pool, "Keyboard", "79.99", 3)

		list, err := repo.ListProductsInStock(ctx)
		require.NoError(t, err)
		names := make([]string, 0, len(list))
		for _, p := range list {
			names = append(names, p.Name)
		}
		assert.Equal(t, []string{"Keyboard", "USB-C Hub", "Wireless Mouse"}, names)

		has, err := repo.HasStock(ctx, hub, 25)
		require.NoError(t, err)
		assert.True(t, has)
		has, err = repo.HasStock(ctx, hub, 26)
		require.NoError(t, err)
		assert.False(t, has)
	})
}
