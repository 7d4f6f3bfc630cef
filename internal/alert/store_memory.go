package alert

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"herdwatch/internal/store"
)

// InMemoryStore keeps alerts in memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	alerts map[uuid.UUID]*Alert
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{alerts: make(map[uuid.UUID]*Alert)}
}

func (s *InMemoryStore) Create(_ context.Context, a *Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alerts[a.ID]; ok {
		return store.ErrConflict
	}
	cp := *a
	s.alerts[a.ID] = &cp
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, a *Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alerts[a.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *a
	s.alerts[a.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.alerts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *InMemoryStore) List(_ context.Context, f ListFilter) ([]*Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var allowed map[uuid.UUID]struct{}
	if f.FarmIDs != nil {
		allowed = make(map[uuid.UUID]struct{}, len(f.FarmIDs))
		for _, id := range f.FarmIDs {
			allowed[id] = struct{}{}
		}
	}

	var out []*Alert
	for _, a := range s.alerts {
		if f.FarmID != uuid.Nil && a.FarmID != f.FarmID {
			continue
		}
		if allowed != nil {
			if _, ok := allowed[a.FarmID]; !ok {
				continue
			}
		}
		if f.Resolved != nil && a.Resolved != *f.Resolved {
			continue
		}
		if f.Severity != "" && a.Severity != f.Severity {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if f.Skip > 0 {
		if f.Skip >= len(out) {
			return nil, nil
		}
		out = out[f.Skip:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}
