package disease

import (
	"context"

	"github.com/google/uuid"

	"herdwatch/internal/alert"
	"herdwatch/internal/animal"
	"herdwatch/internal/auth"
)

// Store persists disease records.
type Store interface {
	Create(ctx context.Context, rec *Record) error
	Update(ctx context.Context, rec *Record) error
	FindByID(ctx context.Context, id uuid.UUID) (*Record, error)
	List(ctx context.Context, f ListFilter) ([]*Record, error)
	CountActive(ctx context.Context, animalID uuid.UUID) (int, error)
}

// AnimalService is the slice of the herd registry the disease module needs.
type AnimalService interface {
	Get(ctx context.Context, actor auth.Principal, id uuid.UUID) (*animal.Animal, error)
	List(ctx context.Context, actor auth.Principal, f animal.ListFilter) ([]*animal.Animal, error)
}

// AlertRaiser raises farm alerts for new diagnoses.
type AlertRaiser interface {
	Raise(ctx context.Context, farmID uuid.UUID, animalID *uuid.UUID, typ alert.Type, severity alert.Severity, message string) (*alert.Alert, error)
}
