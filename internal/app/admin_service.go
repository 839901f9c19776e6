package app

import (
	"context"
	"strings"

	"github.com/cimillas/order-service/internal/domain"
	"github.com/cimillas/order-service/internal/lock"
	"github.com/shopspring/decimal"
)

// AdminRepository stores catalog and customer records outside the order
// workflow. Save methods assign an id when the given one is zero.
// SaveProduct never changes the stock of an existing product.
type AdminRepository interface {
	SaveProduct(ctx context.Context, p domain.Product) (domain.Product, error)
	SaveCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error)
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
}

type AdminService struct {
	repo     AdminRepository
	products ProductRepository
	locker   lock.Locker
}

func NewAdminService(repo AdminRepository, products ProductRepository, opts ...AdminServiceOption) *AdminService {
	svc := &AdminService{
		repo:     repo,
		products: products,
		locker:   lock.NewKeyedMutex(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type AdminServiceOption func(*AdminService)

// WithAdminLocker shares the product lock used by order creation so a
// restock never interleaves with an order's check-and-decrement.
func WithAdminLocker(l lock.Locker) AdminServiceOption {
	return func(s *AdminService) {
		if l != nil {
			s.locker = l
		}
	}
}

type ProductInput struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
}

func (s *AdminService) UpsertProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	if in.ID < 0 {
		return domain.Product{}, domain.ErrInvalidID
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Product{}, invalid("name", "name is required")
	}
	if in.Price.IsNegative() {
		return domain.Product{}, invalid("price", "price must not be negative")
	}
	if in.Stock < 0 {
		return domain.Product{}, invalid("stock", "stock must not be negative")
	}

	p := domain.Product{
		ID:          in.ID,
		Name:        name,
		Description: in.Description,
		Price:       domain.Round2(in.Price),
		Stock:       in.Stock,
	}
	if in.ID == 0 {
		saved, err := s.repo.SaveProduct(ctx, p)
		if err != nil {
			return domain.Product{}, storageErr("save product", err)
		}
		return saved, nil
	}

	// An existing product's stock moves only through UpdateStock, under the
	// same lock as order creation.
	unlock, err := s.locker.Lock(ctx, lock.ProductKeys([]int64{in.ID}))
	if err != nil {
		return domain.Product{}, &domain.PersistenceError{Op: "lock products", Err: err}
	}
	defer unlock()

	current, err := s.products.FindProductByID(ctx, in.ID)
	if err != nil {
		return domain.Product{}, storageErr("find product", err)
	}
	saved, err := s.repo.SaveProduct(ctx, p)
	if err != nil {
		return domain.Product{}, storageErr("save product", err)
	}
	if current == nil {
		return saved, nil
	}
	if delta := in.Stock - current.Stock; delta != 0 {
		if err := s.products.UpdateStock(ctx, in.ID, delta); err != nil {
			return domain.Product{}, storageErr("set stock", err)
		}
		saved.Stock = in.Stock
	}
	return saved, nil
}

type CustomerInput struct {
	ID        int64
	Email     string
	FirstName string
	LastName  string
}

func (s *AdminService) UpsertCustomer(ctx context.Context, in CustomerInput) (domain.Customer, error) {
	if in.ID < 0 {
		return domain.Customer{}, domain.ErrInvalidID
	}
	email := strings.TrimSpace(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.Customer{}, invalid("email", "email is required")
	}

	c, err := s.repo.SaveCustomer(ctx, domain.Customer{
		ID:        in.ID,
		Email:     email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	})
	if err != nil {
		return domain.Customer{}, storageErr("save customer", err)
	}
	return c, nil
}

func (s *AdminService) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return nil, storageErr("list customers", err)
	}
	return customers, nil
}

// Restock adds quantity to a product's stock and returns the updated product.
func (s *AdminService) Restock(ctx context.Context, productID int64, quantity int) (domain.Product, error) {
	if productID <= 0 {
		return domain.Product{}, domain.ErrInvalidID
	}
	if quantity <= 0 {
		return domain.Product{}, invalid("quantity", "quantity must be greater than 0")
	}

	unlock, err := s.locker.Lock(ctx, lock.ProductKeys([]int64{productID}))
	if err != nil {
		return domain.Product{}, &domain.PersistenceError{Op: "lock products", Err: err}
	}
	defer unlock()

	if err := s.products.UpdateStock(ctx, productID, quantity); err != nil {
		return domain.Product{}, storageErr("restock", err)
	}
	p, err := s.products.FindProductByID(ctx, productID)
	if err != nil {
		return domain.Product{}, storageErr("find product", err)
	}
	if p == nil {
		return domain.Product{}, domain.ProductNotFound(productID)
	}
	return *p, nil
}
