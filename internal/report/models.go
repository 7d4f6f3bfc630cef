package report

import (
	"time"

	"github.com/google/uuid"

	"herdwatch/internal/alert"
	"herdwatch/internal/disease"
	"herdwatch/internal/milk"
	"herdwatch/pkg/date"
	dErrors "herdwatch/pkg/domain-errors"
)

// Type selects which report to build.
type Type string

const (
	TypeSummary Type = "summary"
	TypeMilk    Type = "milk"
	TypeHealth  Type = "health"
	TypeAlerts  Type = "alerts"
)

// Format selects the output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

// Params describes one report request.
type Params struct {
	Type   Type
	Format Format
	FarmID uuid.UUID // uuid.Nil means all farms visible to the caller
	From   date.Date
	To     date.Date
}

func (p *Params) Validate() error {
	switch p.Type {
	case TypeSummary, TypeMilk, TypeHealth, TypeAlerts:
	default:
		return dErrors.New(dErrors.CodeValidation, "report_type must be summary, milk, health or alerts")
	}
	switch p.Format {
	case FormatJSON, FormatCSV, FormatPDF:
	default:
		return dErrors.New(dErrors.CodeValidation, "format must be json, csv or pdf")
	}
	if !p.From.IsZero() && !p.To.IsZero() && p.To.Before(p.From) {
		return dErrors.New(dErrors.CodeValidation, "to must not precede from")
	}
	return nil
}

// Summary is the overview report: herd size, production and open issues for
// the period.
type Summary struct {
	GeneratedAt      time.Time     `json:"generated_at"`
	From             date.Date     `json:"from"`
	To               date.Date     `json:"to"`
	FarmID           *uuid.UUID    `json:"farm_id,omitempty"`
	ActiveAnimals    int           `json:"active_animals"`
	Milk             *milk.Summary `json:"milk"`
	ActiveDiseases   int           `json:"active_disease_cases"`
	UnresolvedAlerts int           `json:"unresolved_alerts"`
}

// Milk is the production detail report.
type Milk struct {
	GeneratedAt time.Time      `json:"generated_at"`
	From        date.Date      `json:"from"`
	To          date.Date      `json:"to"`
	Records     []*milk.Record `json:"records"`
}

// Health is the disease detail report.
type Health struct {
	GeneratedAt time.Time         `json:"generated_at"`
	From        date.Date         `json:"from"`
	To          date.Date         `json:"to"`
	Records     []*disease.Record `json:"records"`
}

// Alerts is the alert detail report.
type Alerts struct {
	GeneratedAt time.Time      `json:"generated_at"`
	From        date.Date      `json:"from"`
	To          date.Date      `json:"to"`
	Alerts      []*alert.Alert `json:"alerts"`
}
