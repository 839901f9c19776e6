package lock

import (
	"context"
	"sync"
)

// KeyedMutex is an in-process Locker. Entries are reference counted and
// dropped once nobody holds or waits on them.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
}

type keyedEntry struct {
	ch   chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*keyedEntry)}
}

func (m *KeyedMutex) Lock(ctx context.Context, keys []string) (func(), error) {
	keys = normalize(keys)
	held := make([]string, 0, len(keys))
	for _, k := range keys {
		if err := m.acquire(ctx, k); err != nil {
			m.releaseAll(held)
			return nil, err
		}
		held = append(held, k)
	}

	var once sync.Once
	return func() {
		once.Do(func() { m.releaseAll(held) })
	}, nil
}

func (m *KeyedMutex) acquire(ctx context.Context, key string) error {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &keyedEntry{ch: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		m.drop(key, e)
		return ctx.Err()
	}
}

func (m *KeyedMutex) releaseAll(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		m.mu.Lock()
		e := m.entries[keys[i]]
		m.mu.Unlock()
		<-e.ch
		m.drop(keys[i], e)
	}
}

func (m *KeyedMutex) drop(key string, e *keyedEntry) {
	m.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
	m.mu.Unlock()
}

// size reports the number of live entries.
func (m *KeyedMutex) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
