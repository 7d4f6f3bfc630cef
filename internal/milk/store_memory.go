package milk

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"herdwatch/internal/store"
	"herdwatch/pkg/date"
)

// InMemoryStore keeps milk records in memory.
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
	for _, existing := range s.records {
		if existing.AnimalID == rec.AnimalID && existing.Date.Equal(rec.Date) {
			return store.ErrConflict
		}
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
		if !f.From.IsZero() && rec.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && rec.Date.After(f.To) {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[j].Date.Before(out[i].Date)
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

func (s *InMemoryStore) History(_ context.Context, animalID uuid.UUID, from, to date.Date) ([]*HistoryPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*HistoryPoint
	for _, rec := range s.records {
		if rec.AnimalID != animalID {
			continue
		}
		if rec.Date.Before(from) || rec.Date.After(to) {
			continue
		}
		out = append(out, &HistoryPoint{Date: rec.Date, TotalYield: rec.TotalYield})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
