package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"herdwatch/internal/platform/middleware"
	dErrors "herdwatch/pkg/domain-errors"
)

// Role is the coarse permission level attached to a user.
type Role string

const (
	RoleFarmer Role = "farmer"
	RoleVet    Role = "vet"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleFarmer, RoleVet, RoleAdmin:
		return true
	}
	return false
}

// User is an account that can authenticate against the API.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Active       bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Principal is the authenticated caller as seen by domain services. Built
// from token claims; services use it for ownership and role checks.
type Principal struct {
	UserID   uuid.UUID
	Username string
	Role     Role
}

// IsAdmin reports whether the principal has the admin override.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// PrincipalFromContext reconstructs the caller from the auth middleware
// context. Returns an unauthorized error when the request was not
// authenticated.
func PrincipalFromContext(ctx context.Context) (Principal, error) {
	rawID := middleware.GetUserID(ctx)
	if rawID == "" {
		return Principal{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return Principal{}, dErrors.New(dErrors.CodeUnauthorized, "invalid authentication context")
	}
	return Principal{
		UserID:   userID,
		Username: middleware.GetUsername(ctx),
		Role:     Role(middleware.GetRole(ctx)),
	}, nil
}

// RegisterRequest is the payload for user registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
}

func (r *RegisterRequest) Validate() error {
	if r.Username == "" {
		return dErrors.New(dErrors.CodeValidation, "username is required")
	}
	if len(r.Username) > 64 {
		return dErrors.New(dErrors.CodeValidation, "username must be 64 characters or less")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}
	if len(r.Password) < 8 {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	if r.Role != "" && !r.Role.Valid() {
		return dErrors.New(dErrors.CodeValidation, "role must be farmer, vet, or admin")
	}
	return nil
}

// LoginRequest is the payload for token issuance.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned on successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}
