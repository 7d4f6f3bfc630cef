package animal

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"herdwatch/internal/store"
)

// InMemoryStore keeps animals in memory. Used in tests and when no
// database is configured.
type InMemoryStore struct {
	mu       sync.RWMutex
	animals  map[uuid.UUID]*Animal
	feeds    map[uuid.UUID][]*FeedProfile
	readings map[uuid.UUID][]*SensorReading
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		animals:  make(map[uuid.UUID]*Animal),
		feeds:    make(map[uuid.UUID][]*FeedProfile),
		readings: make(map[uuid.UUID][]*SensorReading),
	}
}

func (s *InMemoryStore) Create(_ context.Context, a *Animal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.animals[a.ID]; ok {
		return store.ErrConflict
	}
	for _, existing := range s.animals {
		if existing.FarmID == a.FarmID && strings.EqualFold(existing.TagNumber, a.TagNumber) {
			return store.ErrConflict
		}
	}
	cp := *a
	s.animals[a.ID] = &cp
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, a *Animal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.animals[a.ID]; !ok {
		return store.ErrNotFound
	}
	for _, existing := range s.animals {
		if existing.ID != a.ID && existing.FarmID == a.FarmID && strings.EqualFold(existing.TagNumber, a.TagNumber) {
			return store.ErrConflict
		}
	}
	cp := *a
	s.animals[a.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Animal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.animals[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *InMemoryStore) FindByTag(_ context.Context, farmID uuid.UUID, tag string) (*Animal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.animals {
		if a.FarmID == farmID && strings.EqualFold(a.TagNumber, tag) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context, f ListFilter) ([]*Animal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var allowed map[uuid.UUID]struct{}
	if f.FarmIDs != nil {
		allowed = make(map[uuid.UUID]struct{}, len(f.FarmIDs))
		for _, id := range f.FarmIDs {
			allowed[id] = struct{}{}
		}
	}

	var out []*Animal
	for _, a := range s.animals {
		if f.FarmID != uuid.Nil && a.FarmID != f.FarmID {
			continue
		}
		if allowed != nil {
			if _, ok := allowed[a.FarmID]; !ok {
				continue
			}
		}
		if f.Breed != "" && !strings.Contains(strings.ToLower(a.Breed), strings.ToLower(f.Breed)) {
			continue
		}
		if f.Active != nil && a.Active != *f.Active {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return paginate(out, f.Skip, f.Limit), nil
}

func paginate(animals []*Animal, skip, limit int) []*Animal {
	if skip >= len(animals) {
		return nil
	}
	animals = animals[skip:]
	if limit > 0 && limit < len(animals) {
		animals = animals[:limit]
	}
	return animals
}

func (s *InMemoryStore) CreateFeedProfile(_ context.Context, fp *FeedProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *fp
	s.feeds[fp.AnimalID] = append(s.feeds[fp.AnimalID], &cp)
	return nil
}

func (s *InMemoryStore) LatestFeedProfile(_ context.Context, animalID uuid.UUID) (*FeedProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	feeds := s.feeds[animalID]
	if len(feeds) == 0 {
		return nil, store.ErrNotFound
	}
	latest := feeds[0]
	for _, fp := range feeds[1:] {
		if fp.Date.After(latest.Date) {
			latest = fp
		}
	}
	cp := *latest
	return &cp, nil
}

func (s *InMemoryStore) CreateSensorReading(_ context.Context, sr *SensorReading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sr
	s.readings[sr.AnimalID] = append(s.readings[sr.AnimalID], &cp)
	return nil
}

func (s *InMemoryStore) ListSensorReadings(_ context.Context, animalID uuid.UUID, limit int) ([]*SensorReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	readings := s.readings[animalID]
	out := make([]*SensorReading, 0, len(readings))
	for _, sr := range readings {
		cp := *sr
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
