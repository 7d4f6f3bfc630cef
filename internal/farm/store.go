package farm

import (
	"context"

	"github.com/google/uuid"
)

// Store persists farms. IDsByOwner exists because every other module scopes
// farmer queries by the caller's farm set.
type Store interface {
	Create(ctx context.Context, farm *Farm) error
	Update(ctx context.Context, farm *Farm) error
	FindByID(ctx context.Context, id uuid.UUID) (*Farm, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Farm, error)
	ListAll(ctx context.Context) ([]*Farm, error)
	IDsByOwner(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error)
}
