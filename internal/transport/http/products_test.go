package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cimillas/order-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct {
	products []domain.Product
	err      error
	gotQty   int
}

func (s *stubCatalog) ListAvailable(context.Context) ([]domain.Product, error) {
	return s.products, s.err
}

func (s *stubCatalog) GetProduct(_ context.Context, id int64) (domain.Product, error) {
	if s.err != nil {
		return domain.Product{}, s.err
	}
	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, domain.ProductNotFound(id)
}

func (s *stubCatalog) IsAvailable(_ context.Context, id int64, qty int) (bool, error) {
	s.gotQty = qty
	p, err := s.GetProduct(context.Background(), id)
	if err != nil {
		return false, nil
	}
	return p.Stock >= qty, nil
}

func newCatalogRouter(c *stubCatalog) http.Handler {
	return NewRouter(RouterDeps{Catalog: c})
}

func TestHandleListProducts(t *testing.T) {
	t.Parallel()

	catalog := &stubCatalog{products: []domain.Product{
		{ID: 3, Name: "USB-C Hub", Price: decimal.RequireFromString("49.99"), Stock: 25},
		{ID: 2, Name: "Wireless Mouse", Price: decimal.RequireFromString("29.9"), Stock: 150},
	}}
	rec := httptest.NewRecorder()
	newCatalogRouter(catalog).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"price":29.90`)

	var resp struct {
		Products []struct {
			ID    int64   `json:"id"`
			Name  string  `json:"name"`
			Price float64 `json:"price"`
			Stock int     `json:"stock_quantity"`
		} `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Products, 2)
	assert.Equal(t, "USB-C Hub", resp.Products[0].Name)
	assert.Equal(t, 25, resp.Products[0].Stock)
}

func TestHandleListProducts_EmptyIsArray(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newCatalogRouter(&stubCatalog{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"products":[]}`, rec.Body.String())
}

func TestHandleGetProduct(t *testing.T) {
	t.Parallel()

	catalog := &stubCatalog{products: []domain.Product{{ID: 1, Name: "Laptop", Price: decimal.RequireFromString("1299.99"), Stock: 25}}}
	router := newCatalogRouter(catalog)

	tests := []struct {
		path   string
		status int
		code   string
	}{
		{path: "/products/1", status: http.StatusOK},
		{path: "/products/2", status: http.StatusNotFound, code: codeProductNotFound},
		{path: "/products/x", status: http.StatusBadRequest, code: codeInvalidID},
		{path: "/products/-4", status: http.StatusBadRequest, code: codeInvalidID},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		require.Equal(t, tt.status, rec.Code, tt.path)
		if tt.code != "" {
			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code, tt.path)
		}
	}
}

func TestHandleProductAvailability(t *testing.T) {
	t.Parallel()

	catalog := &stubCatalog{products: []domain.Product{{ID: 3, Name: "USB-C Hub", Stock: 25}}}
	router := newCatalogRouter(catalog)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/3/availability?quantity=25", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"product_id":3,"quantity":25,"has_stock":true}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/3/availability?quantity=1000", nil))
	assert.JSONEq(t, `{"product_id":3,"quantity":1000,"has_stock":false}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/3/availability", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, catalog.gotQty)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/3/availability?quantity=-1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
