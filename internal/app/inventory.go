package app

import (
	"context"
	"math"

	"github.com/cimillas/order-service/internal/domain"
)

type ProductRepository interface {
	FindProductByID(ctx context.Context, id int64) (*domain.Product, error)
	// UpdateStock applies delta atomically and fails with
	// domain.ErrStockConflict instead of driving stock negative.
	UpdateStock(ctx context.Context, id int64, delta int) error
	HasStock(ctx context.Context, id int64, qty int) (bool, error)
	ListProductsInStock(ctx context.Context) ([]domain.Product, error)
}

// InventoryService checks and consumes product stock.
type InventoryService struct {
	products ProductRepository
}

func NewInventoryService(products ProductRepository) *InventoryService {
	return &InventoryService{products: products}
}

// CheckAvailability fails on the first product that is missing or short.
// Lines for the same product are summed before comparing.
func (s *InventoryService) CheckAvailability(ctx context.Context, items []domain.LineItem) error {
	for _, line := range mergeLines(items) {
		product, err := s.products.FindProductByID(ctx, line.ProductID)
		if err != nil {
			return storageErr("find product", err)
		}
		if product == nil {
			return domain.ProductNotFound(line.ProductID)
		}
		if product.Stock < line.Quantity {
			return &domain.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Available:   product.Stock,
				Requested:   line.Quantity,
			}
		}
	}
	return nil
}

// DecrementStock removes each line's quantity. A product whose stock moved
// since the availability check yields domain.ErrStockConflict.
func (s *InventoryService) DecrementStock(ctx context.Context, items []domain.LineItem) error {
	for _, line := range mergeLines(items) {
		if err := s.products.UpdateStock(ctx, line.ProductID, -line.Quantity); err != nil {
			return storageErr("update stock", err)
		}
	}
	return nil
}

func (s *InventoryService) IsAvailable(ctx context.Context, productID int64, qty int) (bool, error) {
	if productID <= 0 {
		return false, domain.ErrInvalidID
	}
	if qty <= 0 {
		return false, invalid("quantity", "quantity must be greater than 0")
	}
	if qty > domain.MaxLineQuantity {
		return false, nil
	}
	ok, err := s.products.HasStock(ctx, productID, qty)
	if err != nil {
		return false, storageErr("check stock", err)
	}
	return ok, nil
}

// mergeLines sums quantities per product, keeping first-seen order. Sums
// saturate at math.MaxInt so an oversized request reads as a shortfall
// instead of wrapping negative.
func mergeLines(items []domain.LineItem) []domain.LineItem {
	idx := make(map[int64]int, len(items))
	out := make([]domain.LineItem, 0, len(items))
	for _, it := range items {
		if i, ok := idx[it.ProductID]; ok {
			if out[i].Quantity > math.MaxInt-it.Quantity {
				out[i].Quantity = math.MaxInt
			} else {
				out[i].Quantity += it.Quantity
			}
			continue
		}
		idx[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out
}
