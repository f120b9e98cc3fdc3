package cache

import (
	"context"
	"sync"
)

// Memo memoizes successful results of fn per key until Clear is called.
// Errors are not memoized, and a result computed across a Clear is dropped.
type Memo[K comparable, V any] struct {
	mu         sync.Mutex
	fn         func(context.Context, K) (V, error)
	values     map[K]V
	generation uint64
}

func NewMemo[K comparable, V any](fn func(context.Context, K) (V, error)) *Memo[K, V] {
	return &Memo[K, V]{fn: fn, values: make(map[K]V)}
}

func (m *Memo[K, V]) Get(ctx context.Context, key K) (V, error) {
	m.mu.Lock()
	v, ok := m.values[key]
	gen := m.generation
	m.mu.Unlock()
	if ok {
		return v, nil
	}

	v, err := m.fn(ctx, key)
	if err != nil {
		return v, err
	}

	m.mu.Lock()
	if m.generation == gen {
		m.values[key] = v
	}
	m.mu.Unlock()
	return v, nil
}

// Clear drops every memoized value.
func (m *Memo[K, V]) Clear() {
	m.mu.Lock()
	m.values = make(map[K]V)
	m.generation++
	m.mu.Unlock()
}
