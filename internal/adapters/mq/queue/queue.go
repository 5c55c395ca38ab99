// Package queue buffers raw snapshots between submission and the workers
// that normalize and store them.
package queue

import (
	"context"
	"sync"

	"github.com/okian/syncops/internal/domain/model"
	"github.com/okian/syncops/pkg/metrics"
)

const defaultCapacity = 1024

// Snapshot is the payload type flowing through the queue.
type Snapshot = model.Snapshot

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a snapshot. Returns false when the queue is full, closed,
	// or ctx is done; the snapshot is then dropped.
	Enqueue(ctx context.Context, s Snapshot) bool

	// Dequeue returns the channel consumers read from. It is closed once the
	// queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Snapshot

	Len(ctx context.Context) int
	Cap() int

	// Close stops accepting snapshots. Already queued ones stay readable.
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan Snapshot
	capacity int

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a bounded queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Snapshot, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

func (q *InMemoryQueue) Enqueue(ctx context.Context, s Snapshot) bool { //nolint:gocritic // hugeParam: copied onto the channel anyway
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed || ctx.Err() != nil {
		return false
	}
	select {
	case q.items <- s:
		metrics.UpdateQueueSize(len(q.items))
		return true
	default:
		return false
	}
}

// Dequeue hands out the underlying channel. Every consumer shares it, so
// each snapshot is delivered to exactly one of them.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Snapshot {
	return q.items
}

func (q *InMemoryQueue) Len(_ context.Context) int {
	n := len(q.items)
	metrics.UpdateQueueSize(n)
	return n
}

func (q *InMemoryQueue) Cap() int { return q.capacity }

func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
