package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Flat row encodings for CSV export. Column order matches the JSON field
// order of each report.

func writeSummaryCSV(w io.Writer, r *Summary) error {
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"metric", "value"},
		{"from", r.From.String()},
		{"to", r.To.String()},
		{"active_animals", strconv.Itoa(r.ActiveAnimals)},
		{"milk_total_yield", formatFloat(r.Milk.TotalYield)},
		{"milk_average_daily_yield", formatFloat(r.Milk.AverageYield)},
		{"milk_record_count", strconv.Itoa(r.Milk.RecordCount)},
		{"milk_animal_count", strconv.Itoa(r.Milk.AnimalCount)},
		{"active_disease_cases", strconv.Itoa(r.ActiveDiseases)},
		{"unresolved_alerts", strconv.Itoa(r.UnresolvedAlerts)},
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write summary csv: %w", err)
	}
	return nil
}

func writeMilkCSV(w io.Writer, r *Milk) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "animal_id", "morning_yield", "evening_yield", "total_yield", "fat_content", "protein_content"}); err != nil {
		return fmt.Errorf("write milk csv: %w", err)
	}
	for _, rec := range r.Records {
		row := []string{
			rec.Date.String(),
			rec.AnimalID.String(),
			formatFloat(rec.MorningYield),
			formatFloat(rec.EveningYield),
			formatFloat(rec.TotalYield),
			formatOptFloat(rec.FatContent),
			formatOptFloat(rec.ProteinPct),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write milk csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeHealthCSV(w io.Writer, r *Health) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"diagnosis_date", "animal_id", "disease_name", "severity", "treatment", "is_recovered", "recovery_date"}); err != nil {
		return fmt.Errorf("write health csv: %w", err)
	}
	for _, rec := range r.Records {
		recovery := ""
		if !rec.RecoveryDate.IsZero() {
			recovery = rec.RecoveryDate.String()
		}
		row := []string{
			rec.DiagnosisDate.String(),
			rec.AnimalID.String(),
			rec.DiseaseName,
			rec.Severity,
			rec.Treatment,
			strconv.FormatBool(rec.Recovered),
			recovery,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write health csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeAlertsCSV(w io.Writer, r *Alerts) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"created_at", "farm_id", "animal_id", "alert_type", "severity", "message", "is_resolved"}); err != nil {
		return fmt.Errorf("write alerts csv: %w", err)
	}
	for _, a := range r.Alerts {
		animalID := ""
		if a.AnimalID != nil {
			animalID = a.AnimalID.String()
		}
		row := []string{
			a.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			a.FarmID.String(),
			animalID,
			string(a.Type),
			string(a.Severity),
			a.Message,
			strconv.FormatBool(a.Resolved),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write alerts csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
