package milk

import (
	"context"

	"github.com/google/uuid"

	"herdwatch/internal/animal"
	"herdwatch/internal/auth"
	"herdwatch/pkg/date"
)

// Store persists milk production records.
type Store interface {
	Create(ctx context.Context, rec *Record) error
	FindByID(ctx context.Context, id uuid.UUID) (*Record, error)
	List(ctx context.Context, f ListFilter) ([]*Record, error)
	History(ctx context.Context, animalID uuid.UUID, from, to date.Date) ([]*HistoryPoint, error)
}

// AnimalService is the slice of the herd registry the milk module needs.
// Ownership scoping rides along with Get and List.
type AnimalService interface {
	Get(ctx context.Context, actor auth.Principal, id uuid.UUID) (*animal.Animal, error)
	List(ctx context.Context, actor auth.Principal, f animal.ListFilter) ([]*animal.Animal, error)
}
