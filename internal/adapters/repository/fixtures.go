package repository

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"maps"

	"gopkg.in/yaml.v3"

	"github.com/okian/syncops/internal/domain/model"
	"github.com/okian/syncops/internal/domain/normalize"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// Fixtures is a seed catalogue. Baseline metrics are merged under each
// service's own metrics before normalization.
type Fixtures struct {
	Baseline     map[string]any     `yaml:"baseline"`
	Repositories []model.Repository `yaml:"repositories"`
	Domains      []model.Domain     `yaml:"domains"`
	Teams        []model.Team       `yaml:"teams"`
	Services     []model.Snapshot   `yaml:"services"`
}

// DefaultFixtures returns the embedded demo catalogue.
func DefaultFixtures() (Fixtures, error) {
	return LoadFixtures(bytes.NewReader(defaultFixtures))
}

// LoadFixtures decodes and checks a YAML fixture document.
func LoadFixtures(r io.Reader) (Fixtures, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && err != io.EOF {
		return Fixtures{}, fmt.Errorf("%w: %v", ErrInvalidFixture, err)
	}
	seen := make(map[string]bool, len(fx.Services))
	for i, s := range fx.Services {
		if s.ServiceID == "" {
			return Fixtures{}, fmt.Errorf("%w: service #%d has no serviceId", ErrInvalidFixture, i)
		}
		if seen[s.ServiceID] {
			return Fixtures{}, fmt.Errorf("%w: duplicate service %q", ErrInvalidFixture, s.ServiceID)
		}
		seen[s.ServiceID] = true
	}
	return fx, nil
}

// Snapshots returns the services with baseline metrics merged in.
func (fx Fixtures) Snapshots() []model.Snapshot {
	out := make([]model.Snapshot, len(fx.Services))
	for i, s := range fx.Services {
		merged := make(map[string]any, len(fx.Baseline)+len(s.Metrics))
		maps.Copy(merged, fx.Baseline)
		maps.Copy(merged, s.Metrics)
		s.Metrics = merged
		out[i] = s
	}
	return out
}

// Seed writes fixtures into a catalogue. Services are normalized with n and
// their issues are kept for display.
func Seed(ctx context.Context, c Catalogue, fx Fixtures, n *normalize.Normalizer) error {
	for _, r := range fx.Repositories {
		if err := c.UpsertRepository(ctx, r); err != nil {
			return fmt.Errorf("failed to seed repository %q: %w", r.ID, err)
		}
	}
	for _, d := range fx.Domains {
		if err := c.UpsertDomain(ctx, d); err != nil {
			return fmt.Errorf("failed to seed domain %q: %w", d.ID, err)
		}
	}
	for _, t := range fx.Teams {
		if err := c.UpsertTeam(ctx, t); err != nil {
			return fmt.Errorf("failed to seed team %q: %w", t.ID, err)
		}
	}
	for _, s := range fx.Snapshots() {
		svc, err := n.Snapshot(s)
		if err != nil {
			return fmt.Errorf("failed to normalize service %q: %w", s.ServiceID, err)
		}
		if _, err := c.UpsertService(ctx, svc); err != nil {
			return fmt.Errorf("failed to seed service %q: %w", s.ServiceID, err)
		}
	}
	return nil
}
