// Package ingest provides the hand-off buffer between capture goroutines and
// the render loop.
package ingest

import "sync"

// Queue is a bounded FIFO that never blocks its producers.
// When full, Enqueue overwrites the oldest pending entry and counts the drop.
// All access is guarded by a mutex; critical sections are O(1) for Enqueue
// and O(n) in the number of pending entries for DrainAll.
type Queue[T any] struct {
	mu sync.Mutex

	entries  []T
	head     int // index of the oldest pending entry
	size     int
	capacity int

	dropped uint64
	closed  bool
}

// NewQueue creates a queue holding at most capacity pending entries.
// A capacity below 1 is raised to 1.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[T]{
		entries:  make([]T, capacity),
		capacity: capacity,
	}
}

// Enqueue appends an entry. It returns false only once the queue is closed.
func (q *Queue[T]) Enqueue(entry T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	tail := (q.head + q.size) % q.capacity
	q.entries[tail] = entry
	if q.size < q.capacity {
		q.size++
		return true
	}

	// Full: the slot we just wrote was the oldest entry.
	q.head = (q.head + 1) % q.capacity
	q.dropped++
	return true
}

// DrainAll removes and returns every pending entry, oldest first.
// It returns nil when nothing is pending.
func (q *Queue[T]) DrainAll() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		return nil
	}

	out := make([]T, q.size)
	var zero T
	for i := 0; i < q.size; i++ {
		idx := (q.head + i) % q.capacity
		out[i] = q.entries[idx]
		q.entries[idx] = zero
	}
	q.head = 0
	q.size = 0
	return out
}

// Len returns the number of pending entries.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Dropped returns how many entries were overwritten before being drained.
func (q *Queue[T]) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Close rejects further entries. Pending entries can still be drained.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}
