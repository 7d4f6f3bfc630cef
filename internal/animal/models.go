package animal

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"herdwatch/pkg/date"
	dErrors "herdwatch/pkg/domain-errors"
)

// Animal is a single head of cattle registered to a farm.
type Animal struct {
	ID             uuid.UUID `json:"id"`
	FarmID         uuid.UUID `json:"farm_id"`
	TagNumber      string    `json:"tag_number"`
	Breed          string    `json:"breed,omitempty"`
	DOB            date.Date `json:"dob,omitempty"`
	Sex            string    `json:"sex,omitempty"`
	Parity         int       `json:"parity"`
	CurrentWeight  *float64  `json:"current_weight,omitempty"`
	LactationStart date.Date `json:"lactation_start_date,omitempty"`
	Active         bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// AgeMonths is the animal's age in whole months as of the given date, or 0
// when the date of birth is unknown.
func (a *Animal) AgeMonths(asOf date.Date) int {
	if a.DOB.IsZero() {
		return 0
	}
	months := (asOf.Time().Year()-a.DOB.Time().Year())*12 +
		int(asOf.Time().Month()) - int(a.DOB.Time().Month())
	if asOf.Time().Day() < a.DOB.Time().Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// FeedProfile records what an animal was fed on a given day.
type FeedProfile struct {
	ID             uuid.UUID `json:"id"`
	AnimalID       uuid.UUID `json:"animal_id"`
	Date           date.Date `json:"date"`
	FeedType       string    `json:"feed_type,omitempty"`
	QuantityKg     float64   `json:"quantity_kg"`
	ProteinContent float64   `json:"protein_content"`
	EnergyContent  float64   `json:"energy_content"`
	CreatedAt      time.Time `json:"created_at"`
}

// SensorReading is a single measurement from a wearable or barn sensor.
type SensorReading struct {
	ID        uuid.UUID `json:"id"`
	AnimalID  uuid.UUID `json:"animal_id"`
	Type      string    `json:"sensor_type"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Sensor types recorded by the ingest path.
const (
	SensorTemperature = "temperature"
	SensorActivity    = "activity"
	SensorRumination  = "rumination"
)

// CreateRequest is the payload for animal registration.
type CreateRequest struct {
	FarmID         uuid.UUID `json:"farm_id"`
	TagNumber      string    `json:"tag_number"`
	Breed          string    `json:"breed"`
	DOB            date.Date `json:"dob"`
	Sex            string    `json:"sex"`
	Parity         int       `json:"parity"`
	CurrentWeight  *float64  `json:"current_weight"`
	LactationStart date.Date `json:"lactation_start_date"`
}

func (r *CreateRequest) Normalize() {
	r.TagNumber = strings.TrimSpace(r.TagNumber)
	r.Breed = strings.TrimSpace(r.Breed)
	r.Sex = strings.ToUpper(strings.TrimSpace(r.Sex))
}

func (r *CreateRequest) Validate() error {
	if r.FarmID == uuid.Nil {
		return dErrors.New(dErrors.CodeValidation, "farm_id is required")
	}
	if r.TagNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "tag_number is required")
	}
	if r.Sex != "" && r.Sex != "M" && r.Sex != "F" {
		return dErrors.New(dErrors.CodeValidation, "sex must be M or F")
	}
	if r.Parity < 0 {
		return dErrors.New(dErrors.CodeValidation, "parity cannot be negative")
	}
	if r.CurrentWeight != nil && *r.CurrentWeight <= 0 {
		return dErrors.New(dErrors.CodeValidation, "current_weight must be positive")
	}
	return nil
}

// UpdateRequest carries optional field updates; nil means unchanged.
type UpdateRequest struct {
	TagNumber      *string    `json:"tag_number"`
	Breed          *string    `json:"breed"`
	DOB            *date.Date `json:"dob"`
	Sex            *string    `json:"sex"`
	Parity         *int       `json:"parity"`
	CurrentWeight  *float64   `json:"current_weight"`
	LactationStart *date.Date `json:"lactation_start_date"`
	Active         *bool      `json:"is_active"`
}

func (r *UpdateRequest) Validate() error {
	if r.TagNumber != nil && strings.TrimSpace(*r.TagNumber) == "" {
		return dErrors.New(dErrors.CodeValidation, "tag_number cannot be empty")
	}
	if r.Sex != nil {
		sex := strings.ToUpper(strings.TrimSpace(*r.Sex))
		if sex != "M" && sex != "F" {
			return dErrors.New(dErrors.CodeValidation, "sex must be M or F")
		}
	}
	if r.Parity != nil && *r.Parity < 0 {
		return dErrors.New(dErrors.CodeValidation, "parity cannot be negative")
	}
	if r.CurrentWeight != nil && *r.CurrentWeight <= 0 {
		return dErrors.New(dErrors.CodeValidation, "current_weight must be positive")
	}
	return nil
}

// FeedProfileRequest is the payload for a daily feed record.
type FeedProfileRequest struct {
	Date           date.Date `json:"date"`
	FeedType       string    `json:"feed_type"`
	QuantityKg     float64   `json:"quantity_kg"`
	ProteinContent float64   `json:"protein_content"`
	EnergyContent  float64   `json:"energy_content"`
}

func (r *FeedProfileRequest) Normalize() {
	r.FeedType = strings.ToLower(strings.TrimSpace(r.FeedType))
	if r.Date.IsZero() {
		r.Date = date.Today()
	}
}

func (r *FeedProfileRequest) Validate() error {
	if r.QuantityKg < 0 {
		return dErrors.New(dErrors.CodeValidation, "quantity_kg cannot be negative")
	}
	if r.ProteinContent < 0 || r.ProteinContent > 100 {
		return dErrors.New(dErrors.CodeValidation, "protein_content must be between 0 and 100")
	}
	if r.EnergyContent < 0 {
		return dErrors.New(dErrors.CodeValidation, "energy_content cannot be negative")
	}
	return nil
}

// SensorReadingRequest is the payload for sensor ingest.
type SensorReadingRequest struct {
	Type      string    `json:"sensor_type"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	Timestamp time.Time `json:"timestamp"`
}

func (r *SensorReadingRequest) Normalize() {
	r.Type = strings.ToLower(strings.TrimSpace(r.Type))
	r.Unit = strings.TrimSpace(r.Unit)
}

func (r *SensorReadingRequest) Validate() error {
	switch r.Type {
	case SensorTemperature, SensorActivity, SensorRumination:
		return nil
	case "":
		return dErrors.New(dErrors.CodeValidation, "sensor_type is required")
	default:
		return dErrors.New(dErrors.CodeValidation, "unknown sensor_type")
	}
}

// ListFilter narrows animal listings.
type ListFilter struct {
	FarmID  uuid.UUID // uuid.Nil means all farms
	FarmIDs []uuid.UUID // non-nil restricts to this set (farmer scoping)
	Breed   string      // substring match, case-insensitive
	Active  *bool
	Skip    int
	Limit   int
}
