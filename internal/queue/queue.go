// Package queue holds pending work in discovery order and releases it
// under an explicit ordering policy.
package queue

import (
	"fmt"
	"strings"
)

// Order decides which end of the queue is released first.
type Order string

const (
	// FIFO releases the oldest discovered item first.
	FIFO Order = "fifo"
	// LIFO releases the most recently discovered item first.
	LIFO Order = "lifo"
)

// ParseOrder accepts "fifo" or "lifo" (any case).
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case FIFO:
		return FIFO, nil
	case LIFO:
		return LIFO, nil
	}
	return "", fmt.Errorf("unknown release order %q (want fifo or lifo)", s)
}

// Queue is not safe for concurrent use. It is filled during the scan and
// then handed over to a single dispatcher goroutine.
type Queue[T any] struct {
	order Order
	items []T
	head  int
}

// New returns an empty queue releasing items in the given order.
func New[T any](order Order) *Queue[T] {
	if order == "" {
		order = FIFO
	}
	return &Queue[T]{order: order}
}

// Order reports the release policy.
func (q *Queue[T]) Order() Order {
	return q.order
}

// Push appends an item in discovery order.
func (q *Queue[T]) Push(item T) {
	q.items = append(q.items, item)
}

// Len returns the number of items not yet released.
func (q *Queue[T]) Len() int {
	return len(q.items) - q.head
}

// PopN releases up to n items according to the queue's order.
func (q *Queue[T]) PopN(n int) []T {
	if n <= 0 || q.Len() == 0 {
		return nil
	}
	if n > q.Len() {
		n = q.Len()
	}

	out := make([]T, 0, n)
	var zero T
	switch q.order {
	case LIFO:
		for i := 0; i < n; i++ {
			last := len(q.items) - 1
			out = append(out, q.items[last])
			q.items[last] = zero
			q.items = q.items[:last]
		}
	default:
		for i := 0; i < n; i++ {
			out = append(out, q.items[q.head])
			q.items[q.head] = zero
			q.head++
		}
	}

	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return out
}
