package alert

import (
	"context"

	"github.com/google/uuid"

	"herdwatch/internal/farm"
)

// Store persists alerts.
type Store interface {
	Create(ctx context.Context, a *Alert) error
	Update(ctx context.Context, a *Alert) error
	FindByID(ctx context.Context, id uuid.UUID) (*Alert, error)
	List(ctx context.Context, f ListFilter) ([]*Alert, error)
}

// FarmStore is the slice of the farm store the alert service needs for
// ownership checks.
type FarmStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*farm.Farm, error)
	IDsByOwner(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error)
}
