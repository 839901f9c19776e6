package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cimillas/order-service/internal/app"
	"github.com/cimillas/order-service/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AdminService is the minimal interface needed for the admin endpoints.
type AdminService interface {
	UpsertProduct(ctx context.Context, in app.ProductInput) (domain.Product, error)
	UpsertCustomer(ctx context.Context, in app.CustomerInput) (domain.Customer, error)
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	Restock(ctx context.Context, productID int64, quantity int) (domain.Product, error)
}

type upsertProductRequest struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	Stock       int         `json:"stock_quantity"`
}

type restockRequest struct {
	Quantity int `json:"quantity"`
}

type customerRequest struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type customerResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}

func toCustomerResponse(c domain.Customer) customerResponse {
	return customerResponse{
		ID:        c.ID,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		CreatedAt: c.CreatedAt,
	}
}

// HandleAdminUpsertProduct returns an HTTP handler for POST /admin/products.
func HandleAdminUpsertProduct(svc AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req upsertProductRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		price, err := decimal.NewFromString(req.Price.String())
		if err != nil {
			writeErrorDetails(w, http.StatusBadRequest, codeValidationFailed, "price must be a number",
				map[string]string{"field": "price"})
			return
		}

		p, err := svc.UpsertProduct(r.Context(), app.ProductInput{
			ID:          req.ID,
			Name:        req.Name,
			Description: req.Description,
			Price:       price,
			Stock:       req.Stock,
		})
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toProductResponse(p))
	}
}

// HandleAdminRestock returns an HTTP handler for
// POST /admin/products/{id}/restock.
func HandleAdminRestock(svc AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, codeInvalidID, "Invalid product ID")
			return
		}
		var req restockRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, codeInvalidQuantity, "quantity must be greater than 0")
			return
		}

		p, err := svc.Restock(r.Context(), id, req.Quantity)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toProductResponse(p))
	}
}

// HandleAdminCustomers returns an HTTP handler for GET and POST
// /admin/customers.
func HandleAdminCustomers(svc AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			customers, err := svc.ListCustomers(r.Context())
			if err != nil {
				writeServiceError(w, logger, err)
				return
			}
			resp := make([]customerResponse, 0, len(customers))
			for _, c := range customers {
				resp = append(resp, toCustomerResponse(c))
			}
			writeJSON(w, http.StatusOK, resp)
		case http.MethodPost:
			var req customerRequest
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			c, err := svc.UpsertCustomer(r.Context(), app.CustomerInput{
				ID:        req.ID,
				Email:     req.Email,
				FirstName: req.FirstName,
				LastName:  req.LastName,
			})
			if err != nil {
				writeServiceError(w, logger, err)
				return
			}
			writeJSON(w, http.StatusOK, toCustomerResponse(c))
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}
