package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func teapot() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestCORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		origins     []string
		method      string
		origin      string
		preflight   bool
		wantStatus  int
		wantAllow   string
		wantExposed bool
	}{
		{
			name: "preflight allowed", origins: []string{"http://localhost:5173"},
			method: http.MethodOptions, origin: "http://localhost:5173", preflight: true,
			wantStatus: http.StatusNoContent, wantAllow: "http://localhost:5173", wantExposed: true,
		},
		{
			name: "preflight forbidden", origins: []string{"http://localhost:5173"},
			method: http.MethodOptions, origin: "http://evil.local", preflight: true,
			wantStatus: http.StatusForbidden,
		},
		{
			name: "simple request from unknown origin passes without headers", origins: []string{"http://localhost:5173"},
			method: http.MethodGet, origin: "http://evil.local",
			wantStatus: http.StatusTeapot,
		},
		{
			name: "wildcard", origins: []string{" * "},
			method: http.MethodPost, origin: "http://anything.local",
			wantStatus: http.StatusTeapot, wantAllow: "*", wantExposed: true,
		},
		{
			name: "no origin header", origins: []string{"http://localhost:5173"},
			method: http.MethodGet,
			wantStatus: http.StatusTeapot,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(tt.method, "/orders", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()

			CORS(tt.origins)(teapot()).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantAllow, rec.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantExposed {
				assert.Equal(t, "X-Request-Id", rec.Header().Get("Access-Control-Expose-Headers"))
			}
			if tt.wantStatus == http.StatusNoContent {
				assert.Equal(t, "Content-Type, X-Request-Id", rec.Header().Get("Access-Control-Allow-Headers"))
				assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
			}
		})
	}
}
