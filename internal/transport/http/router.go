package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RouterDeps are the services and settings the HTTP surface needs. Admin
// is optional; without it the /admin routes are not mounted.
type RouterDeps struct {
	Orders      OrderService
	Catalog     CatalogService
	Admin       AdminService
	Logger      *zap.Logger
	CORSOrigins []string
	HealthCheck func(ctx context.Context) error
}

func NewRouter(deps RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(CORS(deps.CORSOrigins))

	r.Get("/health", HealthHandler(deps.HealthCheck))

	r.Post("/orders", HandleCreateOrder(deps.Orders, logger))
	r.Get("/orders/{id}", HandleGetOrder(deps.Orders, logger))

	r.Get("/products", HandleListProducts(deps.Catalog, logger))
	r.Get("/products/{id}", HandleGetProduct(deps.Catalog, logger))
	r.Get("/products/{id}/availability", HandleProductAvailability(deps.Catalog, logger))

	if deps.Admin != nil {
		r.Route("/admin", func(r chi.Router) {
			r.Post("/products", HandleAdminUpsertProduct(deps.Admin, logger))
			r.Post("/products/{id}/restock", HandleAdminRestock(deps.Admin, logger))
			r.Method(http.MethodGet, "/customers", HandleAdminCustomers(deps.Admin, logger))
			r.Method(http.MethodPost, "/customers", HandleAdminCustomers(deps.Admin, logger))
		})
	}

	r.NotFound(NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})
	return r
}
