package http

import (
	"context"
	"net/http"
	"time"

	"github.com/cimillas/order-service/internal/app"
	"github.com/cimillas/order-service/internal/domain"
	"go.uber.org/zap"
)

// OrderService is the minimal interface needed for the order endpoints.
type OrderService interface {
	CreateOrder(ctx context.Context, in app.CreateOrderInput) (app.OrderReceipt, error)
	GetOrder(ctx context.Context, id int64) (app.OrderDetails, error)
}

type createOrderRequest struct {
	CustomerID     int64              `json:"customer_id"`
	Items          []orderItemRequest `json:"items"`
	PaymentType    string             `json:"payment_type"`
	ShippingMethod string             `json:"shipping_method"`
}

type orderItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type receiptItemResponse struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     amount `json:"price"`
}

type createOrderResponse struct {
	OrderID      int64                 `json:"order_id"`
	CustomerID   int64                 `json:"customer_id"`
	Items        []receiptItemResponse `json:"items"`
	Subtotal     amount                `json:"subtotal"`
	PaymentFee   amount                `json:"payment_fee"`
	ShippingCost amount                `json:"shipping_cost"`
	ShippingDays int                   `json:"shipping_days"`
	Total        amount                `json:"total"`
	Status       string                `json:"status"`
	CreatedAt    time.Time             `json:"created_at"`
}

type orderItemResponse struct {
	ID           int64  `json:"id"`
	ProductID    int64  `json:"product_id"`
	Quantity     int    `json:"quantity"`
	PriceAtOrder amount `json:"price_at_order"`
}

type orderResponse struct {
	ID             int64               `json:"id"`
	CustomerID     int64               `json:"customer_id"`
	Status         string              `json:"status"`
	PaymentType    string              `json:"payment_type"`
	PaymentFee     amount              `json:"payment_fee"`
	ShippingMethod string              `json:"shipping_method"`
	ShippingCost   amount              `json:"shipping_cost"`
	ShippingDays   int                 `json:"shipping_days"`
	Subtotal       amount              `json:"subtotal"`
	Total          amount              `json:"total"`
	CreatedAt      time.Time           `json:"created_at"`
	Items          []orderItemResponse `json:"items"`
}

// HandleCreateOrder returns an HTTP handler for POST /orders.
func HandleCreateOrder(svc OrderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		items := make([]domain.LineItem, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, domain.LineItem{ProductID: it.ProductID, Quantity: it.Quantity})
		}

		receipt, err := svc.CreateOrder(r.Context(), app.CreateOrderInput{
			CustomerID:     req.CustomerID,
			Items:          items,
			PaymentType:    req.PaymentType,
			ShippingMethod: req.ShippingMethod,
		})
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		resp := createOrderResponse{
			OrderID:      receipt.OrderID,
			CustomerID:   receipt.CustomerID,
			Items:        make([]receiptItemResponse, 0, len(receipt.Items)),
			Subtotal:     amount(receipt.Subtotal),
			PaymentFee:   amount(receipt.PaymentFee),
			ShippingCost: amount(receipt.ShippingCost),
			ShippingDays: receipt.ShippingDays,
			Total:        amount(receipt.Total),
			Status:       string(receipt.Status),
			CreatedAt:    receipt.CreatedAt,
		}
		for _, it := range receipt.Items {
			resp.Items = append(resp.Items, receiptItemResponse{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				Price:     amount(it.Price),
			})
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

// HandleGetOrder returns an HTTP handler for GET /orders/{id}.
func HandleGetOrder(svc OrderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, codeInvalidID, "Invalid order ID")
			return
		}

		details, err := svc.GetOrder(r.Context(), id)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		o := details.Order
		resp := orderResponse{
			ID:             o.ID,
			CustomerID:     o.CustomerID,
			Status:         string(o.Status),
			PaymentType:    o.PaymentType,
			PaymentFee:     amount(o.PaymentFee),
			ShippingMethod: o.ShippingMethod,
			ShippingCost:   amount(o.ShippingCost),
			ShippingDays:   o.ShippingDays,
			Subtotal:       amount(o.Subtotal),
			Total:          amount(o.Total),
			CreatedAt:      o.CreatedAt,
			Items:          make([]orderItemResponse, 0, len(details.Items)),
		}
		for _, it := range details.Items {
			resp.Items = append(resp.Items, orderItemResponse{
				ID:           it.ID,
				ProductID:    it.ProductID,
				Quantity:     it.Quantity,
				PriceAtOrder: amount(it.PriceAtOrder),
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
