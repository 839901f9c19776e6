package http

import (
	"context"
	stdhttp "net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler reports liveness. When check is set it must pass too, so a
// replica that lost its database reports 503.
func HealthHandler(check func(ctx context.Context) error) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			defer cancel()
			if err := check(ctx); err != nil {
				writeError(w, stdhttp.StatusServiceUnavailable, codeUnavailable, "unavailable")
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(stdhttp.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
