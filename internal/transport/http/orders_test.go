package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cimillas/order-service/internal/app"
	"github.com/cimillas/order-service/internal/domain"
	"github.com/shopspring/decimal"
)

type stubOrderService struct {
	receipt app.OrderReceipt
	details app.OrderDetails
	err     error
	got     app.CreateOrderInput
}

func (s *stubOrderService) CreateOrder(_ context.Context, in app.CreateOrderInput) (app.OrderReceipt, error) {
	s.got = in
	return s.receipt, s.err
}

func (s *stubOrderService) GetOrder(_ context.Context, id int64) (app.OrderDetails, error) {
	return s.details, s.err
}

func TestHandleCreateOrder(t *testing.T) {
	t.Parallel()

	receipt := app.OrderReceipt{
		OrderID:      7,
		CustomerID:   1,
		Items:        []app.ReceiptItem{{ProductID: 2, Quantity: 1, Price: decimal.RequireFromString("29.99")}},
		Subtotal:     decimal.RequireFromString("29.99"),
		PaymentFee:   decimal.RequireFromString("0.9"),
		ShippingCost: decimal.RequireFromString("5.99"),
		ShippingDays: 7,
		Total:        decimal.RequireFromString("36.88"),
		Status:       domain.OrderStatusConfirmed,
		CreatedAt:    time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC),
	}
	validBody := `{"customer_id":1,"items":[{"product_id":2,"quantity":1}],"payment_type":"credit_card","shipping_method":"standard"}`

	tests := []struct {
		name           string
		body           string
		serviceErr     error
		expectedStatus int
		expectedCode   string
		expectedSubstr string
	}{
		{
			name:           "success",
			body:           validBody,
			expectedStatus: http.StatusCreated,
			expectedSubstr: `"payment_fee":0.90`,
		},
		{
			name:           "invalid json",
			body:           `{"customer_id":`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   codeInvalidRequestBody,
		},
		{
			name:           "unknown field",
			body:           `{"customer_id":1,"coupon":"X"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   codeInvalidRequestBody,
		},
		{
			name:           "validation",
			body:           `{"customer_id":1,"items":[]}`,
			serviceErr:     &domain.ValidationError{Field: "items", Message: "items array is required and must not be empty"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   codeValidationFailed,
			expectedSubstr: "items array is required",
		},
		{
			name: "insufficient stock",
			body: validBody,
			serviceErr: &domain.InsufficientStockError{
				ProductID: 3, ProductName: "USB-C Hub", Available: 25, Requested: 1000,
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   codeInsufficientStock,
			expectedSubstr: `"available":25`,
		},
		{
			name:           "stock conflict",
			body:           validBody,
			serviceErr:     domain.ErrStockConflict,
			expectedStatus: http.StatusConflict,
			expectedCode:   codeStockConflict,
		},
		{
			name:           "unsupported strategy",
			body:           validBody,
			serviceErr:     &domain.UnsupportedStrategyError{Kind: "payment", Key: "cash"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   codeUnsupportedStrategy,
			expectedSubstr: "unsupported payment type: cash",
		},
		{
			name:           "customer not found",
			body:           validBody,
			serviceErr:     domain.CustomerNotFound(1),
			expectedStatus: http.StatusNotFound,
			expectedCode:   codeCustomerNotFound,
		},
		{
			name:           "product not found",
			body:           validBody,
			serviceErr:     domain.ProductNotFound(2),
			expectedStatus: http.StatusNotFound,
			expectedCode:   codeProductNotFound,
		},
		{
			name:           "persistence failure",
			body:           validBody,
			serviceErr:     &domain.PersistenceError{Op: "commit order", Err: errors.New("connection reset")},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   codeInternalError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &stubOrderService{receipt: receipt, err: tt.serviceErr}
			req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			HandleCreateOrder(svc, nil).ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.expectedStatus, rec.Code, rec.Body.String())
			}
			body := rec.Body.String()
			if tt.expectedSubstr != "" && !strings.Contains(body, tt.expectedSubstr) {
				t.Fatalf("expected body to contain %q, got %s", tt.expectedSubstr, body)
			}
			if tt.expectedCode != "" {
				var resp errorResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("decode error response: %v", err)
				}
				if resp.Code != tt.expectedCode {
					t.Fatalf("expected code %s, got %s", tt.expectedCode, resp.Code)
				}
			}
		})
	}
}

func TestHandleCreateOrder_PassesInput(t *testing.T) {
	t.Parallel()

	svc := &stubOrderService{receipt: app.OrderReceipt{OrderID: 1}}
	body := `{"customer_id":4,"items":[{"product_id":2,"quantity":3},{"product_id":5,"quantity":1}],"payment_type":"bitcoin","shipping_method":"overnight"}`
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	HandleCreateOrder(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
	if svc.got.CustomerID != 4 || svc.got.PaymentType != "bitcoin" || svc.got.ShippingMethod != "overnight" {
		t.Fatalf("unexpected input: %+v", svc.got)
	}
	if len(svc.got.Items) != 2 || svc.got.Items[0] != (domain.LineItem{ProductID: 2, Quantity: 3}) {
		t.Fatalf("unexpected items: %+v", svc.got.Items)
	}
}

func TestHandleGetOrder(t *testing.T) {
	t.Parallel()

	details := app.OrderDetails{
		Order: domain.Order{
			ID: 9, CustomerID: 1, Status: domain.OrderStatusConfirmed,
			PaymentType: "paypal", PaymentFee: decimal.RequireFromString("3.5"),
			ShippingMethod: "express", ShippingCost: decimal.RequireFromString("12.99"), ShippingDays: 3,
			Subtotal: decimal.RequireFromString("99.98"), Total: decimal.RequireFromString("116.47"),
		},
		Items: []domain.OrderItem{{ID: 1, OrderID: 9, ProductID: 3, Quantity: 2, PriceAtOrder: decimal.RequireFromString("49.99")}},
	}

	tests := []struct {
		name           string
		id             string
		serviceErr     error
		expectedStatus int
		expectedSubstr string
	}{
		{name: "found", id: "9", expectedStatus: http.StatusOK, expectedSubstr: `"price_at_order":49.99`},
		{name: "not a number", id: "abc", expectedStatus: http.StatusBadRequest, expectedSubstr: "Invalid order ID"},
		{name: "zero", id: "0", expectedStatus: http.StatusBadRequest},
		{name: "missing", id: "10", serviceErr: domain.OrderNotFound(10), expectedStatus: http.StatusNotFound, expectedSubstr: "Order not found"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := NewRouter(RouterDeps{Orders: &stubOrderService{details: details, err: tt.serviceErr}})
			req := httptest.NewRequest(http.MethodGet, "/orders/"+tt.id, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.expectedStatus, rec.Code, rec.Body.String())
			}
			if tt.expectedSubstr != "" && !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
				t.Fatalf("expected body to contain %q, got %s", tt.expectedSubstr, rec.Body.String())
			}
		})
	}
}
