// Package worker drains the snapshot queue, normalizing each snapshot and
// writing the resulting service to the catalogue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sourcegraph/conc"

	"github.com/okian/syncops/internal/domain/model"
	"github.com/okian/syncops/pkg/logger"
	"github.com/okian/syncops/pkg/metrics"
)

const (
	defaultRetries        = 3
	defaultRetryInterval  = 50 * time.Millisecond
	defaultShutdownLimit  = 30 * time.Second
	defaultPoolMultiplier = 2
)

// Normalizer turns a raw snapshot into a service.
type Normalizer interface {
	Snapshot(s model.Snapshot) (model.Service, error)
}

// Store receives normalized services.
type Store interface {
	UpsertService(ctx context.Context, svc model.Service) (bool, error)
}

// Queue is where workers read snapshots from.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Snapshot
}

// FailureHandler is told about every snapshot that could not be applied.
type FailureHandler func(ctx context.Context, s model.Snapshot, err error)

// Pool runs a fixed number of workers over one queue.
type Pool struct {
	queue      Queue
	normalizer Normalizer
	store      Store

	size          int
	retries       uint
	retryInterval time.Duration
	onFailure     FailureHandler
	logger        logger.Logger

	wg        *conc.WaitGroup
	started   atomic.Bool
	processed atomic.Int64
}

// NewPool creates a pool. A size below one defaults to twice the CPU count.
func NewPool(q Queue, n Normalizer, s Store, opts ...Option) *Pool {
	p := &Pool{
		queue:         q,
		normalizer:    n,
		store:         s,
		size:          runtime.NumCPU() * defaultPoolMultiplier,
		retries:       defaultRetries,
		retryInterval: defaultRetryInterval,
		logger:        logger.Get().Named("worker-pool"),
		wg:            conc.NewWaitGroup(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Processed returns how many snapshots were taken off the queue.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Start launches the workers. They keep ctx values but not its
// cancellation: workers stop once the queue channel is closed and drained,
// so accepted snapshots survive a cancelled parent. Calling Start twice has
// no effect.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	ctx = context.WithoutCancel(ctx)
	ch := p.queue.Dequeue(ctx)
	for i := 0; i < p.size; i++ {
		log := p.logger.Named("worker-" + strconv.Itoa(i))
		p.wg.Go(func() { p.run(ctx, ch, log) })
	}
	metrics.UpdateWorkerCount(p.size)
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", p.size))
}

func (p *Pool) run(ctx context.Context, ch <-chan model.Snapshot, log logger.Logger) {
	for s := range ch {
		p.processed.Add(1)
		if err := p.Process(ctx, s); err != nil {
			log.Error(ctx, "snapshot not applied",
				logger.String("service_id", s.ServiceID),
				logger.String("snapshot_id", s.ID),
				logger.Error(err),
			)
			if p.onFailure != nil {
				p.onFailure(ctx, s, err)
			}
		}
	}
}

// Process normalizes and stores one snapshot. Store failures are retried
// with exponential backoff. A stale snapshot is not an error.
func (p *Pool) Process(ctx context.Context, s model.Snapshot) error { //nolint:gocritic // hugeParam: snapshots are values
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	svc, err := p.normalizer.Snapshot(s)
	if err != nil {
		metrics.RecordSnapshotRejected("invalid")
		metrics.RecordWorkerError()
		return fmt.Errorf("failed to normalize snapshot: %w", err)
	}
	if len(svc.Issues) > 0 {
		p.logger.Debug(ctx, "snapshot normalized with issues",
			logger.String("service_id", svc.ID),
			logger.Int("issues", len(svc.Issues)),
		)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.retryInterval
	written, err := backoff.Retry(ctx, func() (bool, error) {
		ok, err := p.store.UpsertService(ctx, svc)
		if err != nil && errors.Is(err, context.Canceled) {
			return false, backoff.Permanent(err)
		}
		return ok, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(p.retries))
	if err != nil {
		metrics.RecordSnapshotRejected("store")
		metrics.RecordWorkerError()
		return fmt.Errorf("failed to store service %s: %w", svc.ID, err)
	}
	if !written {
		metrics.RecordSnapshotRejected("stale")
		return nil
	}
	metrics.RecordSnapshotApplied()
	return nil
}

// Shutdown closes the queue when it can be closed and waits for workers to
// drain it. It gives up when ctx is done.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(ctx, defaultShutdownLimit)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if r := p.wg.WaitAndRecover(); r != nil {
			p.logger.Error(ctx, "worker panicked", logger.String("panic", r.String()))
		}
	}()

	select {
	case <-done:
		metrics.UpdateWorkerCount(0)
		return nil
	case <-ctx.Done():
		p.logger.Warn(ctx, "worker pool shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
