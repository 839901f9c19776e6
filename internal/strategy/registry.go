// Package strategy maps payment and shipping method keys to the behaviour
// that prices them. New methods are added by registering a factory; the
// order workflow never changes.
package strategy

import (
	"sort"
	"sync"

	"github.com/cimillas/order-service/internal/domain"
)

// Factory builds a fresh strategy instance.
type Factory[T any] func() T

// Registry is a concurrency-safe key -> factory map. Registering a key that
// already exists replaces its factory.
type Registry[T any] struct {
	kind      string
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

// NewRegistry returns an empty registry. kind names the registry in errors
// ("payment", "shipping").
func NewRegistry[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:      kind,
		factories: make(map[string]Factory[T]),
	}
}

func (r *Registry[T]) Register(key string, factory Factory[T]) {
	if factory == nil {
		return
	}
	r.mu.Lock()
	r.factories[key] = factory
	r.mu.Unlock()
}

// Resolve builds the strategy for key. Unknown keys fail with
// *domain.UnsupportedStrategyError; there is no default.
func (r *Registry[T]) Resolve(key string) (T, error) {
	r.mu.RLock()
	factory, ok := r.factories[key]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, &domain.UnsupportedStrategyError{Kind: r.kind, Key: key}
	}
	return factory(), nil
}

func (r *Registry[T]) IsSupported(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[key]
	return ok
}

// SupportedKeys returns the registered keys in sorted order.
func (r *Registry[T]) SupportedKeys() []string {
	r.mu.RLock()
	keys := make([]string, 0, len(r.factories))
	for k := range r.factories {
		keys = append(keys, k)
	}
	r.mu.RUnlock()
	sort.Strings(keys)
	return keys
}
