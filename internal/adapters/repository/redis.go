package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/syncops/internal/domain/model"
)

const (
	serviceKind    = "service"
	teamKind       = "team"
	domainKind     = "domain"
	repositoryKind = "repository"
	maxTxRetries   = 5
)

// RedisStore is a Catalogue backed by Redis. Each entity is a JSON string
// under {prefix}:{kind}:{id} and each kind keeps an id set {prefix}:{kind}s.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

var _ Catalogue = (*RedisStore)(nil)

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient, opts ...Option) *RedisStore {
	s := &RedisStore{client: client, prefix: "syncops"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(kind, id string) string {
	return s.prefix + ":" + kind + ":" + id
}

func (s *RedisStore) index(kind string) string {
	return s.prefix + ":" + kind + "s"
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Services(ctx context.Context) ([]model.Service, error) {
	defer observe("services", time.Now())
	out, err := list[model.Service](ctx, s, serviceKind)
	if err != nil {
		return nil, err
	}
	sortByID(out, func(v model.Service) string { return v.ID })
	return out, nil
}

func (s *RedisStore) Service(ctx context.Context, id string) (model.Service, error) {
	defer observe("service", time.Now())
	var svc model.Service
	data, err := s.client.Get(ctx, s.key(serviceKind, id)).Bytes()
	if err == redis.Nil {
		return svc, ErrNotFound
	}
	if err != nil {
		return svc, fmt.Errorf("failed to get service: %w", err)
	}
	if err := json.Unmarshal(data, &svc); err != nil {
		return svc, fmt.Errorf("failed to unmarshal service: %w", err)
	}
	return svc, nil
}

// UpsertService writes under WATCH so a concurrent newer snapshot is never
// overwritten by an older one.
func (s *RedisStore) UpsertService(ctx context.Context, svc model.Service) (bool, error) {
	defer observe("upsert_service", time.Now())
	if strings.TrimSpace(svc.ID) == "" {
		return false, ErrInvalidID
	}
	data, err := json.Marshal(svc)
	if err != nil {
		return false, fmt.Errorf("failed to marshal service: %w", err)
	}
	key := s.key(serviceKind, svc.ID)

	written := false
	txf := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == redis.Nil:
		case err != nil:
			return err
		default:
			var existing model.Service
			if err := json.Unmarshal(cur, &existing); err == nil && existing.UpdatedAt.After(svc.UpdatedAt) {
				written = false
				return nil
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.SAdd(ctx, s.index(serviceKind), svc.ID)
			return nil
		})
		written = err == nil
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err = s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return false, fmt.Errorf("failed to upsert service: %w", err)
	}
	return written, nil
}

func (s *RedisStore) DeleteService(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, s.key(serviceKind, id))
	pipe.SRem(ctx, s.index(serviceKind), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Teams(ctx context.Context) ([]model.Team, error) {
	out, err := list[model.Team](ctx, s, teamKind)
	if err != nil {
		return nil, err
	}
	sortByID(out, func(v model.Team) string { return v.ID })
	return out, nil
}

func (s *RedisStore) UpsertTeam(ctx context.Context, team model.Team) error {
	return s.set(ctx, teamKind, team.ID, team)
}

func (s *RedisStore) Domains(ctx context.Context) ([]model.Domain, error) {
	out, err := list[model.Domain](ctx, s, domainKind)
	if err != nil {
		return nil, err
	}
	sortByID(out, func(v model.Domain) string { return v.ID })
	return out, nil
}

func (s *RedisStore) UpsertDomain(ctx context.Context, d model.Domain) error {
	return s.set(ctx, domainKind, d.ID, d)
}

func (s *RedisStore) Repositories(ctx context.Context) ([]model.Repository, error) {
	out, err := list[model.Repository](ctx, s, repositoryKind)
	if err != nil {
		return nil, err
	}
	sortByID(out, func(v model.Repository) string { return v.ID })
	return out, nil
}

func (s *RedisStore) UpsertRepository(ctx context.Context, r model.Repository) error {
	return s.set(ctx, repositoryKind, r.ID, r)
}

// Count returns 0 when Redis is unreachable.
func (s *RedisStore) Count(ctx context.Context) int {
	n, err := s.client.SCard(ctx, s.index(serviceKind)).Result()
	if err != nil {
		return 0
	}
	return int(n)
}

func (s *RedisStore) set(ctx context.Context, kind, id string, v any) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", kind, err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(kind, id), data, 0)
	pipe.SAdd(ctx, s.index(kind), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store %s: %w", kind, err)
	}
	return nil
}

// list loads every member of a kind's index. Ids whose value has vanished
// are skipped.
func list[T any](ctx context.Context, s *RedisStore, kind string) ([]T, error) {
	ids, err := s.client.SMembers(ctx, s.index(kind)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", kind, err)
	}
	if len(ids) == 0 {
		return []T{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(kind, id)
	}
	raw, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load %ss: %w", kind, err)
	}
	out := make([]T, 0, len(raw))
	for _, r := range raw {
		str, ok := r.(string)
		if !ok {
			continue
		}
		var v T
		if err := json.Unmarshal([]byte(str), &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", kind, err)
		}
		out = append(out, v)
	}
	return out, nil
}
