// Package queue provides a fixed-capacity FIFO that drops the oldest entry
// when full.
package queue

// Ring is a fixed-capacity FIFO. When full, Push overwrites the oldest item.
// Not safe for concurrent use; callers synchronize.
type Ring[T any] struct {
	buf      []T
	capacity int
	head     int // next write position
	count    int
	overflow bool // true if any item was dropped since last drain
}

// NewRing creates a Ring holding at most capacity items.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{
		buf:      make([]T, capacity),
		capacity: capacity,
	}
}

// Push appends item. It returns true if this push started an overflow
// episode, so callers can report the first drop only.
func (r *Ring[T]) Push(item T) bool {
	if r.count == r.capacity {
		first := !r.overflow
		r.overflow = true
		// Overwrite oldest: head is already pointing at it
		r.buf[r.head] = item
		r.head = (r.head + 1) % r.capacity
		return first
	}
	r.buf[r.head] = item
	r.head = (r.head + 1) % r.capacity
	r.count++
	return false
}

// DrainAll removes and returns every item, oldest first. Returns nil when empty.
func (r *Ring[T]) DrainAll() []T {
	if r.count == 0 {
		return nil
	}

	result := make([]T, r.count)
	// Oldest item is at (head - count) mod capacity
	start := (r.head - r.count + r.capacity) % r.capacity
	for i := 0; i < r.count; i++ {
		result[i] = r.buf[(start+i)%r.capacity]
	}

	var zero T
	for i := range r.buf {
		r.buf[i] = zero
	}
	r.count = 0
	r.head = 0
	r.overflow = false
	return result
}

// Len returns the number of queued items.
func (r *Ring[T]) Len() int {
	return r.count
}

// Overflowed reports whether items were dropped since the last drain.
func (r *Ring[T]) Overflowed() bool {
	return r.overflow
}
