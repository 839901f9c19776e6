package app

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cimillas/order-service/internal/clock"
	"github.com/cimillas/order-service/internal/domain"
	"github.com/cimillas/order-service/internal/events"
	"github.com/cimillas/order-service/internal/lock"
	"github.com/cimillas/order-service/internal/strategy"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/cimillas/order-service/internal/app"

type OrderRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateOrder(ctx context.Context, order domain.Order) (int64, error)
	AddItems(ctx context.Context, orderID int64, items []domain.OrderItem) error
	FindOrderByID(ctx context.Context, id int64) (*domain.Order, error)
	FindItemsByOrder(ctx context.Context, orderID int64) ([]domain.OrderItem, error)
}

type CustomerRepository interface {
	FindCustomerByID(ctx context.Context, id int64) (*domain.Customer, error)
}

type PaymentStrategies interface {
	KeySet
	Resolve(key string) (strategy.Payment, error)
}

type ShippingStrategies interface {
	KeySet
	Resolve(key string) (strategy.Shipping, error)
}

// OrderService runs the create-order workflow.
type OrderService struct {
	orders    OrderRepository
	products  ProductRepository
	customers CustomerRepository
	payments  PaymentStrategies
	shipping  ShippingStrategies
	validator *Validator
	inventory *InventoryService
	clock     clock.Clock

	locker         lock.Locker
	publisher      events.Publisher
	logger         *zap.Logger
	tracer         trace.Tracer
	stockAttempts  int
	retryDelay     time.Duration
	publishTimeout time.Duration
}

const (
	defaultStockAttempts  = 3
	defaultRetryDelay     = 5 * time.Millisecond
	defaultPublishTimeout = 5 * time.Second
)

func NewOrderService(
	orders OrderRepository,
	products ProductRepository,
	customers CustomerRepository,
	payments PaymentStrategies,
	shipping ShippingStrategies,
	clk clock.Clock,
	opts ...OrderServiceOption,
) *OrderService {
	svc := &OrderService{
		orders:         orders,
		products:       products,
		customers:      customers,
		payments:       payments,
		shipping:       shipping,
		validator:      NewValidator(payments, shipping),
		inventory:      NewInventoryService(products),
		clock:          clk,
		locker:         lock.NewKeyedMutex(),
		publisher:      events.NopPublisher{},
		logger:         zap.NewNop(),
		tracer:         otel.Tracer(tracerName),
		stockAttempts:  defaultStockAttempts,
		retryDelay:     defaultRetryDelay,
		publishTimeout: defaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type OrderServiceOption func(*OrderService)

// WithLocker replaces the in-process product lock, e.g. with a Redis lock
// shared by several replicas.
func WithLocker(l lock.Locker) OrderServiceOption {
	return func(s *OrderService) {
		if l != nil {
			s.locker = l
		}
	}
}

func WithPublisher(p events.Publisher) OrderServiceOption {
	return func(s *OrderService) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithLogger(l *zap.Logger) OrderServiceOption {
	return func(s *OrderService) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithTracer(t trace.Tracer) OrderServiceOption {
	return func(s *OrderService) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithStockAttempts bounds how many times a stock conflict restarts the
// check-and-decrement sequence.
func WithStockAttempts(n int) OrderServiceOption {
	return func(s *OrderService) {
		if n > 0 {
			s.stockAttempts = n
		}
	}
}

func WithRetryDelay(d time.Duration) OrderServiceOption {
	return func(s *OrderService) {
		if d >= 0 {
			s.retryDelay = d
		}
	}
}

// WithPublishTimeout bounds how long a committed order waits on event
// delivery.
func WithPublishTimeout(d time.Duration) OrderServiceOption {
	return func(s *OrderService) {
		if d > 0 {
			s.publishTimeout = d
		}
	}
}

type CreateOrderInput struct {
	CustomerID     int64
	Items          []domain.LineItem
	PaymentType    string
	ShippingMethod string
}

type ReceiptItem struct {
	ProductID int64
	Quantity  int
	Price     decimal.Decimal
}

// OrderReceipt is what a successful CreateOrder returns to the caller.
type OrderReceipt struct {
	OrderID      int64
	CustomerID   int64
	Items        []ReceiptItem
	Subtotal     decimal.Decimal
	PaymentFee   decimal.Decimal
	ShippingCost decimal.Decimal
	ShippingDays int
	Total        decimal.Decimal
	Status       domain.OrderStatus
	CreatedAt    time.Time
}

// CreateOrder validates the request, prices it and persists it together
// with the stock decrement. Nothing is written unless every check passes;
// the order rows and the stock changes commit in one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (OrderReceipt, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder",
		trace.WithAttributes(
			attribute.Int64("customer.id", in.CustomerID),
			attribute.Int("order.lines", len(in.Items)),
			attribute.String("order.payment_type", in.PaymentType),
			attribute.String("order.shipping_method", in.ShippingMethod),
		))
	defer span.End()

	receipt, err := s.createOrder(ctx, in, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return OrderReceipt{}, err
	}
	span.SetAttributes(attribute.Int64("order.id", receipt.OrderID))
	span.SetStatus(codes.Ok, "")
	return receipt, nil
}

func (s *OrderService) createOrder(ctx context.Context, in CreateOrderInput, span trace.Span) (OrderReceipt, error) {
	if err := s.validator.Validate(in); err != nil {
		return OrderReceipt{}, err
	}

	customer, err := s.customers.FindCustomerByID(ctx, in.CustomerID)
	if err != nil {
		return OrderReceipt{}, storageErr("find customer", err)
	}
	if customer == nil {
		return OrderReceipt{}, domain.CustomerNotFound(in.CustomerID)
	}

	receipt, attempts, err := s.placeLocked(ctx, in)
	span.SetAttributes(attribute.Int("order.attempts", attempts))
	if err != nil {
		return OrderReceipt{}, err
	}

	s.logger.Info("order.confirmed",
		zap.Int64("order_id", receipt.OrderID),
		zap.Int64("customer_id", receipt.CustomerID),
		zap.String("total", receipt.Total.StringFixed(2)),
		zap.Int("attempts", attempts),
	)
	s.publish(ctx, in, receipt)
	return receipt, nil
}

// placeLocked holds the product locks only for the check-and-decrement
// attempts; event delivery happens after they are released.
func (s *OrderService) placeLocked(ctx context.Context, in CreateOrderInput) (OrderReceipt, int, error) {
	unlock, err := s.locker.Lock(ctx, lock.ProductKeys(productIDs(in.Items)))
	if err != nil {
		return OrderReceipt{}, 0, &domain.PersistenceError{Op: "lock products", Err: err}
	}
	defer unlock()

	var receipt OrderReceipt
	attempts := 0
	op := func() error {
		attempts++
		r, err := s.placeOrder(ctx, in)
		if err == nil {
			receipt = r
			return nil
		}
		if errors.Is(err, domain.ErrStockConflict) {
			s.logger.Debug("stock conflict, retrying",
				zap.Int64("customer_id", in.CustomerID),
				zap.Int("attempt", attempts),
				zap.Error(err),
			)
			return err
		}
		return backoff.Permanent(err)
	}
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(s.retryDelay), uint64(s.stockAttempts-1))
	if err := backoff.Retry(op, policy); err != nil {
		return OrderReceipt{}, attempts, s.settleConflict(ctx, in.Items, err)
	}
	return receipt, attempts, nil
}

// placeOrder runs steps from the availability check to the stock decrement.
// It is the unit that is retried on a stock conflict.
func (s *OrderService) placeOrder(ctx context.Context, in CreateOrderInput) (OrderReceipt, error) {
	if err := s.inventory.CheckAvailability(ctx, in.Items); err != nil {
		return OrderReceipt{}, err
	}

	items := make([]ReceiptItem, 0, len(in.Items))
	subtotal := decimal.Zero
	for _, line := range in.Items {
		product, err := s.products.FindProductByID(ctx, line.ProductID)
		if err != nil {
			return OrderReceipt{}, storageErr("find product", err)
		}
		if product == nil {
			return OrderReceipt{}, domain.ProductNotFound(line.ProductID)
		}
		items = append(items, ReceiptItem{
			ProductID: product.ID,
			Quantity:  line.Quantity,
			Price:     product.Price,
		})
		subtotal = subtotal.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	subtotal = domain.Round2(subtotal)

	payment, err := s.payments.Resolve(in.PaymentType)
	if err != nil {
		return OrderReceipt{}, err
	}
	fee := domain.Round2(payment.Fee(subtotal))

	shipping, err := s.shipping.Resolve(in.ShippingMethod)
	if err != nil {
		return OrderReceipt{}, err
	}
	cost := domain.Round2(shipping.Cost())
	days := shipping.DeliveryDays()

	total := domain.Round2(subtotal.Add(fee).Add(cost))

	order := domain.Order{
		CustomerID:     in.CustomerID,
		Status:         domain.OrderStatusConfirmed,
		PaymentType:    in.PaymentType,
		PaymentFee:     fee,
		ShippingMethod: in.ShippingMethod,
		ShippingCost:   cost,
		ShippingDays:   days,
		Subtotal:       subtotal,
		Total:          total,
		CreatedAt:      s.clock.Now(),
	}

	// Once persistence starts it must finish or roll back as a whole,
	// regardless of whether the caller is still waiting.
	persistCtx := context.WithoutCancel(ctx)
	err = s.orders.WithTx(persistCtx, func(txCtx context.Context) error {
		id, err := s.orders.CreateOrder(txCtx, order)
		if err != nil {
			return storageErr("create order", err)
		}
		order.ID = id

		lines := make([]domain.OrderItem, 0, len(items))
		for _, it := range items {
			lines = append(lines, domain.OrderItem{
				OrderID:      id,
				ProductID:    it.ProductID,
				Quantity:     it.Quantity,
				PriceAtOrder: it.Price,
			})
		}
		if err := s.orders.AddItems(txCtx, id, lines); err != nil {
			return storageErr("add order items", err)
		}
		return s.inventory.DecrementStock(txCtx, in.Items)
	})
	if err != nil {
		return OrderReceipt{}, storageErr("commit order", err)
	}

	return OrderReceipt{
		OrderID:      order.ID,
		CustomerID:   order.CustomerID,
		Items:        items,
		Subtotal:     subtotal,
		PaymentFee:   fee,
		ShippingCost: cost,
		ShippingDays: days,
		Total:        total,
		Status:       order.Status,
		CreatedAt:    order.CreatedAt,
	}, nil
}

func (s *OrderService) publish(ctx context.Context, in CreateOrderInput, r OrderReceipt) {
	items := make([]events.ConfirmedItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, events.ConfirmedItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price.StringFixed(2),
		})
	}
	evt := events.OrderConfirmed{
		OrderID:        r.OrderID,
		CustomerID:     r.CustomerID,
		Items:          items,
		PaymentType:    in.PaymentType,
		ShippingMethod: in.ShippingMethod,
		Total:          r.Total.StringFixed(2),
		OccurredAt:     r.CreatedAt,
	}
	// The order is committed at this point; a lost event is reported, not
	// turned into a failed order.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	if err := s.publisher.PublishOrderConfirmed(pubCtx, evt); err != nil {
		s.logger.Warn("publish order confirmed", zap.Int64("order_id", r.OrderID), zap.Error(err))
	}
}

// OrderDetails is a persisted order with its lines.
type OrderDetails struct {
	Order domain.Order
	Items []domain.OrderItem
}

func (s *OrderService) GetOrder(ctx context.Context, id int64) (OrderDetails, error) {
	if id <= 0 {
		return OrderDetails{}, domain.ErrInvalidID
	}
	order, err := s.orders.FindOrderByID(ctx, id)
	if err != nil {
		return OrderDetails{}, storageErr("find order", err)
	}
	if order == nil {
		return OrderDetails{}, domain.OrderNotFound(id)
	}
	items, err := s.orders.FindItemsByOrder(ctx, id)
	if err != nil {
		return OrderDetails{}, storageErr("find order items", err)
	}
	return OrderDetails{Order: *order, Items: items}, nil
}

// settleConflict turns an exhausted stock conflict into the shortfall the
// caller can act on. A conflict that carries no shortfall is resolved by
// reading the current stock; the line that is short, or else the first
// one, is reported.
func (s *OrderService) settleConflict(ctx context.Context, items []domain.LineItem, err error) error {
	if !errors.Is(err, domain.ErrStockConflict) {
		return err
	}
	var short *domain.InsufficientStockError
	if errors.As(err, &short) {
		return short
	}
	for _, line := range mergeLines(items) {
		product, ferr := s.products.FindProductByID(ctx, line.ProductID)
		if ferr != nil || product == nil {
			continue
		}
		candidate := &domain.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Available:   product.Stock,
			Requested:   line.Quantity,
		}
		if product.Stock < line.Quantity {
			return candidate
		}
		if short == nil {
			short = candidate
		}
	}
	if short != nil {
		return short
	}
	return err
}

func productIDs(items []domain.LineItem) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	return ids
}
