package auth

import (
	"context"

	"github.com/google/uuid"
)

// UserStore is interface-driven so the service stays testable and persistence
// can be swapped without rewiring business code.
type UserStore interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}
