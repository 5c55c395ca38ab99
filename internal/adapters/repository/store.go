// Package repository stores the service catalogue.
package repository

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/okian/syncops/internal/domain/model"
	"github.com/okian/syncops/pkg/metrics"
)

// Catalogue provides read/write access to catalogue entities. Services are
// always replaced whole; scores are derived by callers and never stored.
type Catalogue interface {
	// Services returns every service ordered by id.
	Services(ctx context.Context) ([]model.Service, error)
	// Service returns one service or ErrNotFound.
	Service(ctx context.Context, id string) (model.Service, error)
	// UpsertService replaces a service. Returns false without writing when
	// the stored copy has a newer UpdatedAt.
	UpsertService(ctx context.Context, svc model.Service) (bool, error)
	// DeleteService removes a service or returns ErrNotFound.
	DeleteService(ctx context.Context, id string) error

	Teams(ctx context.Context) ([]model.Team, error)
	UpsertTeam(ctx context.Context, team model.Team) error
	Domains(ctx context.Context) ([]model.Domain, error)
	UpsertDomain(ctx context.Context, domain model.Domain) error
	Repositories(ctx context.Context) ([]model.Repository, error)
	UpsertRepository(ctx context.Context, repo model.Repository) error

	// Count returns the number of services.
	Count(ctx context.Context) int
}

// lessID orders ids numerically when both are integers.
func lessID(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}

func sortByID[T any](xs []T, id func(T) string) {
	sort.Slice(xs, func(i, j int) bool { return lessID(id(xs[i]), id(xs[j])) })
}

// observe records the latency of a store operation.
func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}
