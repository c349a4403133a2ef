package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Snapshot is a full copy of the catalog at a point in time.
type Snapshot struct {
	Maintainers []Maintainer `yaml:"maintainers"`
	Locations   []Location   `yaml:"locations"`
	Assignees   []Assignee   `yaml:"assignees"`
	Products    []Product    `yaml:"products"`
}

// Memory is an in-process catalog. Reads return copies of the active
// records; the snapshot can be swapped wholesale with Replace.
type Memory struct {
	mu   sync.RWMutex
	snap Snapshot
}

var _ Store = (*Memory)(nil)

func NewMemory(snap Snapshot) *Memory {
	return &Memory{snap: snap}
}

// Replace swaps the whole snapshot.
func (m *Memory) Replace(snap Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
}

func (m *Memory) ListMaintainers(ctx context.Context) ([]Maintainer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return activeOnly(m.snap.Maintainers, func(v Maintainer) bool { return v.Active }), nil
}

func (m *Memory) ListLocations(ctx context.Context) ([]Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return activeOnly(m.snap.Locations, func(v Location) bool { return v.Active }), nil
}

func (m *Memory) ListAssignees(ctx context.Context) ([]Assignee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return activeOnly(m.snap.Assignees, func(v Assignee) bool { return v.Active }), nil
}

func (m *Memory) ListProducts(ctx context.Context) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return activeOnly(m.snap.Products, func(v Product) bool { return v.Active }), nil
}

func (m *Memory) CreateMaintainer(ctx context.Context, v Maintainer) (string, error) {
	if v.Name == "" {
		return "", fmt.Errorf("maintainer name is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	v.Active = true
	m.snap.Maintainers = append(m.snap.Maintainers, v)
	return v.ID, nil
}

func (m *Memory) CreateLocation(ctx context.Context, v Location) (string, error) {
	if v.Name == "" {
		return "", fmt.Errorf("location name is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	v.Active = true
	m.snap.Locations = append(m.snap.Locations, v)
	return v.ID, nil
}

func activeOnly[T any](in []T, active func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if active(v) {
			out = append(out, v)
		}
	}
	return out
}
