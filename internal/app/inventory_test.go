package app

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/cimillas/order-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryService_CheckAvailability(t *testing.T) {
	t.Parallel()
	inv := NewInventoryService(seedStore(t))
	ctx := context.Background()

	require.NoError(t, inv.CheckAvailability(ctx, []domain.LineItem{
		{ProductID: laptopID, Quantity: 10},
		{ProductID: hubID, Quantity: 25},
	}))

	err := inv.CheckAvailability(ctx, []domain.LineItem{
		{ProductID: mouseID, Quantity: 1},
		{ProductID: laptopID, Quantity: 6},
		{ProductID: laptopID, Quantity: 5},
	})
	var short *domain.InsufficientStockError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, laptopID, short.ProductID)
	assert.Equal(t, 10, short.Available)
	assert.Equal(t, 11, short.Requested)
	assert.Equal(t, "insufficient stock for product Laptop. Available: 10, Requested: 11", err.Error())

	err = inv.CheckAvailability(ctx, []domain.LineItem{{ProductID: 99, Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestInventoryService_DecrementStock(t *testing.T) {
	t.Parallel()
	store := seedStore(t)
	inv := NewInventoryService(store)
	ctx := context.Background()

	require.NoError(t, inv.DecrementStock(ctx, []domain.LineItem{
		{ProductID: mouseID, Quantity: 2},
		{ProductID: mouseID, Quantity: 3},
	}))
	assert.Equal(t, 45, stockOf(t, store, mouseID))

	err := inv.DecrementStock(ctx, []domain.LineItem{{ProductID: laptopID, Quantity: 11}})
	assert.ErrorIs(t, err, domain.ErrStockConflict)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 10, stockOf(t, store, laptopID))
}

func TestInventoryService_IsAvailable(t *testing.T) {
	t.Parallel()
	inv := NewInventoryService(seedStore(t))
	ctx := context.Background()

	ok, err := inv.IsAvailable(ctx, hubID, 25)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = inv.IsAvailable(ctx, hubID, 26)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = inv.IsAvailable(ctx, 404, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = inv.IsAvailable(ctx, 0, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = inv.IsAvailable(ctx, hubID, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMergeLines(t *testing.T) {
	t.Parallel()
	got := mergeLines([]domain.LineItem{
		{ProductID: 3, Quantity: 1},
		{ProductID: 1, Quantity: 2},
		{ProductID: 3, Quantity: 4},
	})
	assert.Equal(t, []domain.LineItem{{ProductID: 3, Quantity: 5}, {ProductID: 1, Quantity: 2}}, got)
}

func TestMergeLines_Saturates(t *testing.T) {
	t.Parallel()
	got := mergeLines([]domain.LineItem{
		{ProductID: 3, Quantity: math.MaxInt},
		{ProductID: 3, Quantity: math.MaxInt},
		{ProductID: 3, Quantity: 2},
	})
	assert.Equal(t, []domain.LineItem{{ProductID: 3, Quantity: math.MaxInt}}, got)
}

func TestInventory_CheckAvailability_HugeRepeatedLines(t *testing.T) {
	t.Parallel()
	store := seedStore(t)
	inv := NewInventoryService(store)
	ctx := context.Background()

	err := inv.CheckAvailability(ctx, []domain.LineItem{
		{ProductID: hubID, Quantity: 1 << 62},
		{ProductID: hubID, Quantity: 1 << 62},
		{ProductID: hubID, Quantity: 1 << 62},
		{ProductID: hubID, Quantity: 1 << 62},
	})
	var short *domain.InsufficientStockError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, 25, short.Available)
	assert.Equal(t, math.MaxInt, short.Requested)

	ok, err := inv.IsAvailable(ctx, hubID, domain.MaxLineQuantity+1)
	require.NoError(t, err)
	assert.False(t, ok)
}
