package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/okian/syncops/internal/domain/model"
)

// MemoryStore is an in-process Catalogue guarded by a RWMutex.
type MemoryStore struct {
	mu           sync.RWMutex
	services     map[string]model.Service
	teams        map[string]model.Team
	domains      map[string]model.Domain
	repositories map[string]model.Repository
}

var _ Catalogue = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		services:     make(map[string]model.Service),
		teams:        make(map[string]model.Team),
		domains:      make(map[string]model.Domain),
		repositories: make(map[string]model.Repository),
	}
}

func (s *MemoryStore) Services(_ context.Context) ([]model.Service, error) {
	defer observe("services", time.Now())
	s.mu.RLock()
	out := make([]model.Service, 0, len(s.services))
	for _, svc := range s.services {
		out = append(out, svc.Clone())
	}
	s.mu.RUnlock()
	sortByID(out, func(v model.Service) string { return v.ID })
	return out, nil
}

func (s *MemoryStore) Service(_ context.Context, id string) (model.Service, error) {
	defer observe("service", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.services[id]
	if !ok {
		return model.Service{}, ErrNotFound
	}
	return svc.Clone(), nil
}

func (s *MemoryStore) UpsertService(_ context.Context, svc model.Service) (bool, error) {
	defer observe("upsert_service", time.Now())
	if strings.TrimSpace(svc.ID) == "" {
		return false, ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.services[svc.ID]; ok && cur.UpdatedAt.After(svc.UpdatedAt) {
		return false, nil
	}
	s.services[svc.ID] = svc.Clone()
	return true, nil
}

func (s *MemoryStore) DeleteService(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.services[id]; !ok {
		return ErrNotFound
	}
	delete(s.services, id)
	return nil
}

func (s *MemoryStore) Teams(_ context.Context) ([]model.Team, error) {
	s.mu.RLock()
	out := values(s.teams)
	s.mu.RUnlock()
	sortByID(out, func(v model.Team) string { return v.ID })
	return out, nil
}

func (s *MemoryStore) UpsertTeam(_ context.Context, team model.Team) error {
	return put(&s.mu, s.teams, team.ID, team)
}

func (s *MemoryStore) Domains(_ context.Context) ([]model.Domain, error) {
	s.mu.RLock()
	out := values(s.domains)
	s.mu.RUnlock()
	sortByID(out, func(v model.Domain) string { return v.ID })
	return out, nil
}

func (s *MemoryStore) UpsertDomain(_ context.Context, d model.Domain) error {
	return put(&s.mu, s.domains, d.ID, d)
}

func (s *MemoryStore) Repositories(_ context.Context) ([]model.Repository, error) {
	s.mu.RLock()
	out := values(s.repositories)
	s.mu.RUnlock()
	sortByID(out, func(v model.Repository) string { return v.ID })
	return out, nil
}

func (s *MemoryStore) UpsertRepository(_ context.Context, r model.Repository) error {
	return put(&s.mu, s.repositories, r.ID, r)
}

func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.services)
}

func values[T any](m map[string]T) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

func put[T any](mu *sync.RWMutex, m map[string]T, id string, v T) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	mu.Lock()
	m[id] = v
	mu.Unlock()
	return nil
}
