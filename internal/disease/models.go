package disease

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"herdwatch/pkg/date"
	dErrors "herdwatch/pkg/domain-errors"
)

// Record is one diagnosis for one animal. Severe cases raise a high-severity
// health alert on the animal's farm.
type Record struct {
	ID            uuid.UUID `json:"id"`
	AnimalID      uuid.UUID `json:"animal_id"`
	DiseaseName   string    `json:"disease_name"`
	DiagnosisDate date.Date `json:"diagnosis_date"`
	Severity      string    `json:"severity"`
	Treatment     string    `json:"treatment,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	Recovered     bool      `json:"is_recovered"`
	RecoveryDate  date.Date `json:"recovery_date,omitempty"`
	VetID         uuid.UUID `json:"vet_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// Severity levels on a diagnosis.
const (
	SeverityMild     = "mild"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
)

// CreateRequest is the payload for recording a diagnosis.
type CreateRequest struct {
	AnimalID      uuid.UUID `json:"animal_id"`
	DiseaseName   string    `json:"disease_name"`
	DiagnosisDate date.Date `json:"diagnosis_date"`
	Severity      string    `json:"severity"`
	Treatment     string    `json:"treatment"`
	Notes         string    `json:"notes"`
}

func (r *CreateRequest) Normalize() {
	r.DiseaseName = strings.TrimSpace(r.DiseaseName)
	r.Severity = strings.ToLower(strings.TrimSpace(r.Severity))
	r.Treatment = strings.TrimSpace(r.Treatment)
	if r.DiagnosisDate.IsZero() {
		r.DiagnosisDate = date.Today()
	}
}

func (r *CreateRequest) Validate() error {
	if r.AnimalID == uuid.Nil {
		return dErrors.New(dErrors.CodeValidation, "animal_id is required")
	}
	if r.DiseaseName == "" {
		return dErrors.New(dErrors.CodeValidation, "disease_name is required")
	}
	switch r.Severity {
	case SeverityMild, SeverityModerate, SeveritySevere:
	default:
		return dErrors.New(dErrors.CodeValidation, "severity must be mild, moderate or severe")
	}
	if r.DiagnosisDate.After(date.Today()) {
		return dErrors.New(dErrors.CodeValidation, "diagnosis_date cannot be in the future")
	}
	return nil
}

// RecoveryRequest marks a case recovered.
type RecoveryRequest struct {
	RecoveryDate date.Date `json:"recovery_date"`
}

// ListFilter narrows record listings.
type ListFilter struct {
	AnimalID  uuid.UUID
	AnimalIDs []uuid.UUID
	Disease   string // substring match, case-insensitive
	Active    *bool  // true selects unrecovered cases
	From      date.Date
	To        date.Date
	Skip      int
	Limit     int
}
