// Package memory is an in-process implementation of the order, product and
// customer repositories. It backs local development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cimillas/order-service/internal/domain"
)

// Store keeps all records in maps. Transactions are serialised and undone
// from a journal on failure; writes are visible to readers before commit.
type Store struct {
	txMu sync.Mutex

	mu          sync.RWMutex
	products    map[int64]domain.Product
	customers   map[int64]domain.Customer
	orders      map[int64]domain.Order
	items       map[int64][]domain.OrderItem
	nextOrderID int64
	nextItemID  int64
	now         func() time.Time
}

func NewStore() *Store {
	return &Store{
		products:  make(map[int64]domain.Product),
		customers: make(map[int64]domain.Customer),
		orders:    make(map[int64]domain.Order),
		items:     make(map[int64][]domain.OrderItem),
		now:       time.Now,
	}
}

type txKey struct{}

type journal struct {
	undo []func()
}

func journalFrom(ctx context.Context) *journal {
	j, _ := ctx.Value(txKey{}).(*journal)
	return j
}

// record registers an undo step. Callers hold s.mu.
func record(ctx context.Context, fn func()) {
	if j := journalFrom(ctx); j != nil {
		j.undo = append(j.undo, fn)
	}
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if journalFrom(ctx) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	j := &journal{}
	if err := fn(context.WithValue(ctx, txKey{}, j)); err != nil {
		s.mu.Lock()
		for i := len(j.undo) - 1; i >= 0; i-- {
			j.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) FindProductByID(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *Store) UpdateStock(ctx context.Context, id int64, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return domain.ProductNotFound(id)
	}
	if p.Stock+delta < 0 {
		return fmt.Errorf("%w: %w", domain.ErrStockConflict, &domain.InsufficientStockError{
			ProductID:   p.ID,
			ProductName: p.Name,
			Available:   p.Stock,
			Requested:   -delta,
		})
	}
	p.Stock += delta
	s.products[id] = p
	record(ctx, func() {
		cur := s.products[id]
		cur.Stock -= delta
		s.products[id] = cur
	})
	return nil
}

func (s *Store) HasStock(_ context.Context, id int64, qty int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return false, nil
	}
	return p.Stock >= qty, nil
}

func (s *Store) ListProductsInStock(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.Stock > 0 {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) FindCustomerByID(_ context.Context, id int64) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *Store) CreateOrder(ctx context.Context, order domain.Order) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[order.CustomerID]; !ok {
		return 0, domain.CustomerNotFound(order.CustomerID)
	}
	s.nextOrderID++
	order.ID = s.nextOrderID
	s.orders[order.ID] = order
	record(ctx, func() { delete(s.orders, order.ID) })
	return order.ID, nil
}

func (s *Store) AddItems(ctx context.Context, orderID int64, items []domain.OrderItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[orderID]; !ok {
		return domain.OrderNotFound(orderID)
	}
	before := len(s.items[orderID])
	for _, it := range items {
		if _, ok := s.products[it.ProductID]; !ok {
			s.items[orderID] = s.items[orderID][:before]
			return domain.ProductNotFound(it.ProductID)
		}
		s.nextItemID++
		it.ID = s.nextItemID
		it.OrderID = orderID
		s.items[orderID] = append(s.items[orderID], it)
	}
	record(ctx, func() {
		if before == 0 {
			delete(s.items, orderID)
			return
		}
		s.items[orderID] = s.items[orderID][:before]
	})
	return nil
}

func (s *Store) FindOrderByID(_ context.Context, id int64) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (s *Store) FindItemsByOrder(_ context.Context, orderID int64) ([]domain.OrderItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.OrderItem(nil), s.items[orderID]...), nil
}

// UpsertProduct creates or replaces a product. Used for seeding and by
// catalog maintenance; it is not part of the order workflow.
func (s *Store) UpsertProduct(_ context.Context, p domain.Product) error {
	if p.Stock < 0 {
		return fmt.Errorf("product %d: negative stock", p.ID)
	}
	s.mu.Lock()
	s.products[p.ID] = p
	s.mu.Unlock()
	return nil
}

func (s *Store) UpsertCustomer(_ context.Context, c domain.Customer) error {
	s.mu.Lock()
	s.customers[c.ID] = c
	s.mu.Unlock()
	return nil
}

// SaveProduct upserts p, assigning the next free id when p.ID is zero. An
// existing product keeps its stock; only UpdateStock changes it.
func (s *Store) SaveProduct(_ context.Context, p domain.Product) (domain.Product, error) {
	if p.Stock < 0 {
		return domain.Product{}, fmt.Errorf("product %d: negative stock", p.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = nextKey(s.products)
	}
	if prev, ok := s.products[p.ID]; ok {
		p.CreatedAt = prev.CreatedAt
		p.Stock = prev.Stock
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	s.products[p.ID] = p
	return p, nil
}

// SaveCustomer upserts c, assigning the next free id when c.ID is zero.
// Emails are unique across customers.
func (s *Store) SaveCustomer(_ context.Context, c domain.Customer) (domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, other := range s.customers {
		if id != c.ID && other.Email == c.Email {
			return domain.Customer{}, &domain.ValidationError{Field: "email", Message: "email is already registered"}
		}
	}
	if c.ID == 0 {
		c.ID = nextKey(s.customers)
	}
	if prev, ok := s.customers[c.ID]; ok {
		c.CreatedAt = prev.CreatedAt
	} else if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now().UTC()
	}
	s.customers[c.ID] = c
	return c, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	out := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, c)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func nextKey[V any](m map[int64]V) int64 {
	var top int64
	for id := range m {
		if id > top {
			top = id
		}
	}
	return top + 1
}
