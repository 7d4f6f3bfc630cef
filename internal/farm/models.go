package farm

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "herdwatch/pkg/domain-errors"
)

// Farm groups animals under an owning user.
type Farm struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location,omitempty"`
	Timezone  string    `json:"timezone"`
	OwnerID   uuid.UUID `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateRequest is the payload for farm creation.
type CreateRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Timezone string `json:"timezone"`
}

func (r *CreateRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Location = strings.TrimSpace(r.Location)
	if r.Timezone == "" {
		r.Timezone = "UTC"
	}
}

func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "farm name is required")
	}
	if len(r.Name) > 128 {
		return dErrors.New(dErrors.CodeValidation, "farm name must be 128 characters or less")
	}
	if _, err := time.LoadLocation(r.Timezone); err != nil {
		return dErrors.New(dErrors.CodeValidation, "invalid timezone")
	}
	return nil
}

// UpdateRequest carries optional field updates; nil means unchanged.
type UpdateRequest struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
	Timezone *string `json:"timezone"`
}

func (r *UpdateRequest) Validate() error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return dErrors.New(dErrors.CodeValidation, "farm name cannot be empty")
		}
		if len(name) > 128 {
			return dErrors.New(dErrors.CodeValidation, "farm name must be 128 characters or less")
		}
	}
	if r.Timezone != nil {
		if _, err := time.LoadLocation(*r.Timezone); err != nil {
			return dErrors.New(dErrors.CodeValidation, "invalid timezone")
		}
	}
	return nil
}
