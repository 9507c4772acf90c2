// Package store holds local read-optimized copies of server-owned state.
//
// A Mirror is written only by the component that owns it (the cart
// synchronizer or the review paginator) and read by everyone else through
// Snapshot and Subscribe. Every write bumps a version so readers can tell
// whether what they rendered is stale.
package store

import (
	"sync"
)

// Snapshot is an immutable view of a mirror at one version
type Snapshot[T any] struct {
	Value   T
	Version uint64
}

// Mirror is a versioned value with change notification
type Mirror[T any] struct {
	mu          sync.RWMutex
	value       T
	version     uint64
	clone       func(T) T
	subscribers map[uint64]chan Snapshot[T]
	nextSubID   uint64
}

// NewMirror creates a mirror holding initial. clone, when non-nil, is used to
// copy values on the way in and out so callers never share backing arrays.
func NewMirror[T any](initial T, clone func(T) T) *Mirror[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Mirror[T]{
		value:       clone(initial),
		clone:       clone,
		subscribers: make(map[uint64]chan Snapshot[T]),
	}
}

// Snapshot returns the current value and version
func (m *Mirror[T]) Snapshot() Snapshot[T] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot[T]{Value: m.clone(m.value), Version: m.version}
}

// Version returns the current version
func (m *Mirror[T]) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// Set replaces the value and notifies subscribers
func (m *Mirror[T]) Set(value T) Snapshot[T] {
	return m.Update(func(T) T { return value })
}

// Update applies fn to the current value under the write lock
func (m *Mirror[T]) Update(fn func(current T) T) Snapshot[T] {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.value = m.clone(fn(m.clone(m.value)))
	m.version++
	for _, ch := range m.subscribers {
		notify(ch, Snapshot[T]{Value: m.clone(m.value), Version: m.version})
	}
	return Snapshot[T]{Value: m.clone(m.value), Version: m.version}
}

// Subscribe returns a channel that receives the latest snapshot after every
// change, starting with the current one. Slow readers only ever see the most
// recent snapshot. cancel must be called to release the subscription.
func (m *Mirror[T]) Subscribe() (<-chan Snapshot[T], func()) {
	ch := make(chan Snapshot[T], 1)

	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = ch
	ch <- Snapshot[T]{Value: m.clone(m.value), Version: m.version}
	m.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subscribers, id)
			close(ch)
			m.mu.Unlock()
		})
	}
	return ch, cancel
}

// Subscribers returns the number of live subscriptions
func (m *Mirror[T]) Subscribers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscribers)
}

// notify delivers snap, replacing any snapshot the reader has not consumed
// yet. Callers hold the write lock, so this is the only sender.
func notify[T any](ch chan Snapshot[T], snap Snapshot[T]) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
