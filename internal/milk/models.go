package milk

import (
	"time"

	"github.com/google/uuid"

	"herdwatch/pkg/date"
	dErrors "herdwatch/pkg/domain-errors"
)

// Record is one animal's milk production for one calendar day. Total yield
// is derived from the two milking sessions.
type Record struct {
	ID           uuid.UUID `json:"id"`
	AnimalID     uuid.UUID `json:"animal_id"`
	Date         date.Date `json:"date"`
	MorningYield float64   `json:"morning_yield"`
	EveningYield float64   `json:"evening_yield"`
	TotalYield   float64   `json:"total_yield"`
	FatContent   *float64  `json:"fat_content,omitempty"`
	ProteinPct   *float64  `json:"protein_content,omitempty"`
	SomaticCount *int      `json:"somatic_cell_count,omitempty"`
	RecordedBy   uuid.UUID `json:"recorded_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateRequest is the payload for recording a day's production.
type CreateRequest struct {
	AnimalID     uuid.UUID `json:"animal_id"`
	Date         date.Date `json:"date"`
	MorningYield float64   `json:"morning_yield"`
	EveningYield float64   `json:"evening_yield"`
	FatContent   *float64  `json:"fat_content"`
	ProteinPct   *float64  `json:"protein_content"`
	SomaticCount *int      `json:"somatic_cell_count"`
}

func (r *CreateRequest) Normalize() {
	if r.Date.IsZero() {
		r.Date = date.Today()
	}
}

func (r *CreateRequest) Validate() error {
	if r.AnimalID == uuid.Nil {
		return dErrors.New(dErrors.CodeValidation, "animal_id is required")
	}
	if r.MorningYield < 0 || r.EveningYield < 0 {
		return dErrors.New(dErrors.CodeValidation, "yields cannot be negative")
	}
	if r.Date.After(date.Today()) {
		return dErrors.New(dErrors.CodeValidation, "date cannot be in the future")
	}
	if r.FatContent != nil && (*r.FatContent < 0 || *r.FatContent > 100) {
		return dErrors.New(dErrors.CodeValidation, "fat_content must be between 0 and 100")
	}
	if r.ProteinPct != nil && (*r.ProteinPct < 0 || *r.ProteinPct > 100) {
		return dErrors.New(dErrors.CodeValidation, "protein_content must be between 0 and 100")
	}
	if r.SomaticCount != nil && *r.SomaticCount < 0 {
		return dErrors.New(dErrors.CodeValidation, "somatic_cell_count cannot be negative")
	}
	return nil
}

// ListFilter narrows record listings.
type ListFilter struct {
	AnimalID  uuid.UUID // uuid.Nil means all animals
	AnimalIDs []uuid.UUID
	From      date.Date
	To        date.Date
	Skip      int
	Limit     int
}

// Summary aggregates production over a period.
type Summary struct {
	AnimalCount   int       `json:"animal_count"`
	RecordCount   int       `json:"record_count"`
	TotalYield    float64   `json:"total_yield"`
	AverageYield  float64   `json:"average_daily_yield"`
	PeakYield     float64   `json:"peak_daily_yield"`
	PeakDate      date.Date `json:"peak_date,omitempty"`
	From          date.Date `json:"from"`
	To            date.Date `json:"to"`
}

// HistoryPoint is one day of an animal's production history.
type HistoryPoint struct {
	Date       date.Date `json:"date"`
	TotalYield float64   `json:"total_yield"`
}
