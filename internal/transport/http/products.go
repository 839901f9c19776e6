package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/cimillas/order-service/internal/domain"
	"go.uber.org/zap"
)

// CatalogService is the minimal interface needed for the product endpoints.
type CatalogService interface {
	ListAvailable(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
	IsAvailable(ctx context.Context, id int64, qty int) (bool, error)
}

type productResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       amount    `json:"price"`
	Stock       int       `json:"stock_quantity"`
	CreatedAt   time.Time `json:"created_at"`
}

type productListResponse struct {
	Products []productResponse `json:"products"`
}

type availabilityResponse struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	HasStock  bool  `json:"has_stock"`
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       amount(p.Price),
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
	}
}

// HandleListProducts returns an HTTP handler for GET /products.
func HandleListProducts(svc CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.ListAvailable(r.Context())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		resp := productListResponse{Products: make([]productResponse, 0, len(products))}
		for _, p := range products {
			resp.Products = append(resp.Products, toProductResponse(p))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleGetProduct returns an HTTP handler for GET /products/{id}.
func HandleGetProduct(svc CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, codeInvalidID, "Invalid product ID")
			return
		}
		p, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toProductResponse(p))
	}
}

// HandleProductAvailability returns an HTTP handler for
// GET /products/{id}/availability?quantity=N.
func HandleProductAvailability(svc CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, codeInvalidID, "Invalid product ID")
			return
		}
		qty := 1
		if raw := r.URL.Query().Get("quantity"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, codeInvalidQuantity, "quantity must be a positive integer")
				return
			}
			qty = n
		}

		has, err := svc.IsAvailable(r.Context(), id, qty)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, availabilityResponse{ProductID: id, Quantity: qty, HasStock: has})
	}
}
