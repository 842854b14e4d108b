// Package queue buffers alerts between a scan and their delivery.
//
// A scan enqueues alerts without waiting on the webhook; a single consumer
// drains them in enqueue order.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/commitwatch/internal/adapters/notify"
	"github.com/okian/commitwatch/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Alert is the payload type flowing through the queue.
type Alert = notify.Alert

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an alert to the queue. It fails with ErrFull or ErrClosed
	// instead of blocking.
	Enqueue(ctx context.Context, a Alert) error

	// Dequeue returns the channel alerts are delivered on. The channel is
	// closed once the queue is closed and drained.
	Dequeue() <-chan Alert

	// Len returns the current number of queued alerts.
	Len() int

	// Close stops accepting alerts. Pending alerts remain readable.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	alerts   chan Alert
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.alerts = make(chan Alert, q.capacity)
	return q
}

// Enqueue implements Queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, a Alert) error { //nolint:gocritic // hugeParam: Alert is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordNotification("dropped")
		return ErrClosed
	}

	select {
	case q.alerts <- a:
		return nil
	case <-ctx.Done():
		metrics.RecordNotification("dropped")
		return ctx.Err()
	default:
		metrics.RecordNotification("dropped")
		return fmt.Errorf("%w: uid %d", ErrFull, a.UID)
	}
}

// Dequeue implements Queue.
func (q *InMemoryQueue) Dequeue() <-chan Alert {
	return q.alerts
}

// Len implements Queue.
func (q *InMemoryQueue) Len() int {
	return len(q.alerts)
}

// Close implements Queue. Closing twice is a no-op.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.alerts)
	q.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
