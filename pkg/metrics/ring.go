package metrics

import "sync"

// Ring is a fixed-capacity buffer that overwrites its oldest element when full.
type Ring[T any] struct {
	mu    sync.RWMutex
	items []T
	next  int
	full  bool
}

func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{items: make([]T, capacity)}
}

func (r *Ring[T]) Push(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[r.next] = v
	r.next = (r.next + 1) % len(r.items)
	if r.next == 0 {
		r.full = true
	}
}

// Snapshot returns the buffered elements oldest first.
func (r *Ring[T]) Snapshot() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.full {
		out := make([]T, r.next)
		copy(out, r.items[:r.next])
		return out
	}
	out := make([]T, 0, len(r.items))
	out = append(out, r.items[r.next:]...)
	out = append(out, r.items[:r.next]...)
	return out
}

func (r *Ring[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.full {
		return len(r.items)
	}
	return r.next
}

func (r *Ring[T]) Cap() int {
	return len(r.items)
}

// Last returns the most recently pushed element.
func (r *Ring[T]) Last() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var zero T
	if !r.full && r.next == 0 {
		return zero, false
	}
	idx := (r.next - 1 + len(r.items)) % len(r.items)
	return r.items[idx], true
}
