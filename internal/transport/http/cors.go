package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsMaxAge       = "600"
)

type corsPolicy struct {
	any     bool
	origins map[string]struct{}
}

func newCORSPolicy(origins []string) corsPolicy {
	p := corsPolicy{origins: make(map[string]struct{}, len(origins))}
	for _, origin := range origins {
		switch origin = strings.TrimSpace(origin); origin {
		case "":
		case "*":
			p.any = true
		default:
			p.origins[origin] = struct{}{}
		}
	}
	return p
}

func (p corsPolicy) allows(origin string) bool {
	if p.any {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

// CORS is router middleware for a configured origin allow-list. Browsers
// may read the request id header of every response; preflights from
// unknown origins get a JSON 403.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	policy := newCORSPolicy(allowedOrigins)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !policy.allows(origin) {
				if preflight {
					writeError(w, http.StatusForbidden, codeForbidden, "origin not allowed")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			if policy.any {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Expose-Headers", middleware.RequestIDHeader)

			if preflight {
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Allow-Headers", "Content-Type, "+middleware.RequestIDHeader)
				h.Set("Access-Control-Max-Age", corsMaxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
