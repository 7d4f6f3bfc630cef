package animal

import (
	"context"

	"github.com/google/uuid"

	"herdwatch/internal/farm"
)

// Store persists animals and their feed and sensor records.
type Store interface {
	Create(ctx context.Context, a *Animal) error
	Update(ctx context.Context, a *Animal) error
	FindByID(ctx context.Context, id uuid.UUID) (*Animal, error)
	FindByTag(ctx context.Context, farmID uuid.UUID, tag string) (*Animal, error)
	List(ctx context.Context, f ListFilter) ([]*Animal, error)

	CreateFeedProfile(ctx context.Context, fp *FeedProfile) error
	LatestFeedProfile(ctx context.Context, animalID uuid.UUID) (*FeedProfile, error)

	CreateSensorReading(ctx context.Context, sr *SensorReading) error
	ListSensorReadings(ctx context.Context, animalID uuid.UUID, limit int) ([]*SensorReading, error)
}

// FarmStore is the slice of the farm store the animal service needs for
// ownership checks.
type FarmStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*farm.Farm, error)
	IDsByOwner(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error)
}
