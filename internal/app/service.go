// Package service wires the scoring engine, catalogue store and ingestion
// pipeline together and implements the dependencies of the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/syncops/internal/adapters/mq/queue"
	"github.com/okian/syncops/internal/adapters/mq/worker"
	"github.com/okian/syncops/internal/adapters/repository"
	"github.com/okian/syncops/internal/domain/dedupe"
	"github.com/okian/syncops/internal/domain/model"
	"github.com/okian/syncops/internal/domain/normalize"
	"github.com/okian/syncops/internal/domain/scoring"
	"github.com/okian/syncops/pkg/logger"
	"github.com/okian/syncops/pkg/metrics"
)

// Service implements the API dependencies for the scorecard system.
type Service struct {
	mu sync.RWMutex

	engine     *scoring.Engine
	normalizer *normalize.Normalizer
	store      repository.Catalogue
	deduper    dedupe.Deduper
	queue      queue.Queue
	pool       *worker.Pool

	workerCount int
	queueSize   int
	dedupeSize  int
	seed        bool
	fixtures    *repository.Fixtures

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithEngine replaces the default scoring engine.
func WithEngine(e *scoring.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithStore replaces the default in-memory catalogue.
func WithStore(c repository.Catalogue) Option {
	return func(s *Service) {
		if c != nil {
			s.store = c
		}
	}
}

// WithWorkerCount sets the number of ingestion workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending snapshots.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the snapshot id cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithSeed controls whether fixtures are loaded into the store on Start.
func WithSeed(seed bool) Option {
	return func(s *Service) { s.seed = seed }
}

// WithFixtures replaces the embedded fixtures used for seeding.
func WithFixtures(fx repository.Fixtures) Option {
	return func(s *Service) { s.fixtures = &fx }
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Nothing runs until Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   1024,
		dedupeSize:  50_000,
		seed:        true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.engine == nil {
		s.engine = scoring.NewEngine()
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	s.normalizer = normalize.New(s.engine.Table())
	return s
}

// Engine exposes the scoring engine.
func (s *Service) Engine() *scoring.Engine { return s.engine }

// Start seeds the store when configured and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	if s.seed {
		fx := s.fixtures
		if fx == nil {
			def, err := repository.DefaultFixtures()
			if err != nil {
				return fmt.Errorf("failed to load fixtures: %w", err)
			}
			fx = &def
		}
		if err := repository.Seed(ctx, s.store, *fx, s.normalizer); err != nil {
			return fmt.Errorf("failed to seed catalogue: %w", err)
		}
		s.logger.Info(ctx, "catalogue seeded", logger.Int("services", s.store.Count(ctx)))
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.queue, s.normalizer, s.store,
		worker.WithSize(s.workerCount),
		worker.WithFailureHandler(s.forget),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "scorecard service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop closes the queue and waits for the workers to drain it.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false
	if err := s.pool.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop workers: %w", err)
	}
	s.logger.Info(ctx, "scorecard service stopped")
	return nil
}

// forget lets a failed snapshot be submitted again.
func (s *Service) forget(ctx context.Context, snap model.Snapshot, _ error) {
	s.deduper.Unrecord(ctx, snap.ID)
}

// SubmitResult reports what happened to a submitted snapshot.
type SubmitResult struct {
	ID        string `json:"id"`
	ServiceID string `json:"serviceId"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Submit queues a snapshot for asynchronous ingestion. Snapshots without an
// id get a random one. A repeated id is acknowledged as a duplicate and not
// queued again. A full queue yields ErrBackpressure and the id is released.
func (s *Service) Submit(ctx context.Context, snap model.Snapshot) (SubmitResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return SubmitResult{}, ErrNotStarted
	}
	if strings.TrimSpace(snap.ServiceID) == "" {
		metrics.RecordSnapshotRejected("invalid")
		return SubmitResult{}, fmt.Errorf("%w: missing serviceId", ErrInvalidSnapshot)
	}
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	res := SubmitResult{ID: snap.ID, ServiceID: snap.ServiceID}

	if s.deduper.SeenAndRecord(ctx, snap.ID) {
		metrics.RecordSnapshotDuplicate()
		res.Status, res.Duplicate = "duplicate", true
		return res, nil
	}
	if !s.queue.Enqueue(ctx, snap) {
		s.deduper.Unrecord(ctx, snap.ID)
		metrics.RecordSnapshotRejected("backpressure")
		return SubmitResult{}, ErrBackpressure
	}
	metrics.RecordSnapshotAccepted()
	res.Status = "accepted"
	s.logger.Debug(ctx, "snapshot queued",
		logger.String("snapshot_id", snap.ID),
		logger.String("service_id", snap.ServiceID),
	)
	return res, nil
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"services":    s.store.Count(ctx),
	}
	teams, err := s.store.Teams(ctx)
	if err == nil {
		stats["teams"] = len(teams)
		metrics.UpdateCatalogueSize(s.store.Count(ctx), len(teams))
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["dedupeEntries"] = s.deduper.Size()
		stats["processed"] = s.pool.Processed()
	}
	return stats
}

// IsNotFound reports whether err means an unknown entity.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) ||
		errors.Is(err, scoring.ErrUnknownCategory)
}
