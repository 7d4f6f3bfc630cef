package alert

import (
	"time"

	"github.com/google/uuid"
)

// Type classifies what triggered an alert.
type Type string

const (
	TypeHealth   Type = "health"
	TypeMilkDrop Type = "milk_drop"
	TypeFeed     Type = "feed"
)

// Severity orders alerts by urgency.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Alert is a notification attached to a farm, usually about one animal.
type Alert struct {
	ID         uuid.UUID  `json:"id"`
	FarmID     uuid.UUID  `json:"farm_id"`
	AnimalID   *uuid.UUID `json:"animal_id,omitempty"`
	Type       Type       `json:"alert_type"`
	Severity   Severity   `json:"severity"`
	Message    string     `json:"message"`
	Resolved   bool       `json:"is_resolved"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy *uuid.UUID `json:"resolved_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ListFilter narrows alert listings.
type ListFilter struct {
	FarmID   uuid.UUID
	FarmIDs  []uuid.UUID
	Resolved *bool
	Severity Severity
	Skip     int
	Limit    int
}
