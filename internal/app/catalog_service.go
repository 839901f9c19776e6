package app

import (
	"context"

	"github.com/cimillas/order-service/internal/domain"
)

// CatalogService answers read-only product queries.
type CatalogService struct {
	products  ProductRepository
	inventory *InventoryService
}

func NewCatalogService(products ProductRepository) *CatalogService {
	return &CatalogService{
		products:  products,
		inventory: NewInventoryService(products),
	}
}

// ListAvailable returns products with stock left, ordered by name.
func (s *CatalogService) ListAvailable(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.ListProductsInStock(ctx)
	if err != nil {
		return nil, storageErr("list products", err)
	}
	return products, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	if id <= 0 {
		return domain.Product{}, domain.ErrInvalidID
	}
	p, err := s.products.FindProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, storageErr("find product", err)
	}
	if p == nil {
		return domain.Product{}, domain.ProductNotFound(id)
	}
	return *p, nil
}

func (s *CatalogService) IsAvailable(ctx context.Context, id int64, qty int) (bool, error) {
	return s.inventory.IsAvailable(ctx, id, qty)
}
