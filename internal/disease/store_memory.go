package disease

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"herdwatch/internal/store"
)

// InMemoryStore keeps disease records in memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[uuid.UUID]*Record)}
}

func (s *InMemoryStore) Create(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; ok {
		return store.ErrConflict
	}
	cp := *rec
	s.records[rec.ID] = &cp
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *rec
	s.records[rec.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *InMemoryStore) List(_ context.Context, f ListFilter) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var allowed map[uuid.UUID]struct{}
	if f.AnimalIDs != nil {
		allowed = make(map[uuid.UUID]struct{}, len(f.AnimalIDs))
		for _, id := range f.AnimalIDs {
			allowed[id] = struct{}{}
		}
	}

	var out []*Record
	for _, rec := range s.records {
		if f.AnimalID != uuid.Nil && rec.AnimalID != f.AnimalID {
			continue
		}
		if allowed != nil {
			if _, ok := allowed[rec.AnimalID]; !ok {
				continue
			}
		}
		if f.Disease != "" && !strings.Contains(strings.ToLower(rec.DiseaseName), strings.ToLower(f.Disease)) {
			continue
		}
		if f.Active != nil && rec.Recovered == *f.Active {
			continue
		}
		if !f.From.IsZero() && rec.DiagnosisDate.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && rec.DiagnosisDate.After(f.To) {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DiagnosisDate.Equal(out[j].DiagnosisDate) {
			return out[j].DiagnosisDate.Before(out[i].DiagnosisDate)
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

func (s *InMemoryStore) CountActive(_ context.Context, animalID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, rec := range s.records {
		if rec.AnimalID == animalID && !rec.Recovered {
			n++
		}
	}
	return n, nil
}
