package farm

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"herdwatch/internal/store"
)

// InMemoryStore keeps farms in a map. Used by unit tests and dev mode.
type InMemoryStore struct {
	mu    sync.RWMutex
	farms map[uuid.UUID]Farm
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{farms: make(map[uuid.UUID]Farm)}
}

func (s *InMemoryStore) Create(_ context.Context, farm *Farm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.farms[farm.ID] = *farm
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, farm *Farm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.farms[farm.ID]; !ok {
		return store.ErrNotFound
	}
	s.farms[farm.ID] = *farm
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Farm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if farm, ok := s.farms[id]; ok {
		f := farm
		return &f, nil
	}
	return nil, store.ErrNotFound
}

func (s *InMemoryStore) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*Farm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Farm
	for _, farm := range s.farms {
		if farm.OwnerID == ownerID {
			f := farm
			out = append(out, &f)
		}
	}
	sortFarms(out)
	return out, nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]*Farm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Farm, 0, len(s.farms))
	for _, farm := range s.farms {
		f := farm
		out = append(out, &f)
	}
	sortFarms(out)
	return out, nil
}

func (s *InMemoryStore) IDsByOwner(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	farms, err := s.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(farms))
	for _, f := range farms {
		ids = append(ids, f.ID)
	}
	return ids, nil
}

// sortFarms keeps listings deterministic across map iterations.
func sortFarms(farms []*Farm) {
	sort.Slice(farms, func(i, j int) bool {
		if farms[i].CreatedAt.Equal(farms[j].CreatedAt) {
			return farms[i].ID.String() < farms[j].ID.String()
		}
		return farms[i].CreatedAt.Before(farms[j].CreatedAt)
	})
}
