package milk

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"herdwatch/internal/store"
	"herdwatch/pkg/date"
)

// PostgresStore persists milk records in PostgreSQL. A unique index on
// (animal_id, date) backs the one-record-per-day rule.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `id, animal_id, date, morning_yield, evening_yield,
	total_yield, fat_content, protein_content, somatic_cell_count, recorded_by, created_at`

func (s *PostgresStore) Create(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO milk_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.AnimalID, rec.Date, rec.MorningYield, rec.EveningYield,
		rec.TotalYield, rec.FatContent, rec.ProteinPct, rec.SomaticCount, rec.RecordedBy, rec.CreatedAt,
	)
	if store.IsUniqueViolation(err) {
		return store.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert milk record: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM milk_records WHERE id = $1`, id)
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.AnimalID, &rec.Date, &rec.MorningYield, &rec.EveningYield,
		&rec.TotalYield, &rec.FatContent, &rec.ProteinPct, &rec.SomaticCount, &rec.RecordedBy, &rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query milk record: %w", err)
	}
	return &rec, nil
}

func (s *PostgresStore) List(ctx context.Context, f ListFilter) ([]*Record, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.AnimalID != uuid.Nil {
		conds = append(conds, "animal_id = "+arg(f.AnimalID))
	}
	if f.AnimalIDs != nil {
		conds = append(conds, "animal_id = ANY("+arg(uuidArray(f.AnimalIDs))+")")
	}
	if !f.From.IsZero() {
		conds = append(conds, "date >= "+arg(f.From))
	}
	if !f.To.IsZero() {
		conds = append(conds, "date <= "+arg(f.To))
	}

	query := `SELECT ` + recordColumns + ` FROM milk_records`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date DESC, id"
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}
	if f.Skip > 0 {
		query += " OFFSET " + arg(f.Skip)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list milk records: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.AnimalID, &rec.Date, &rec.MorningYield, &rec.EveningYield,
			&rec.TotalYield, &rec.FatContent, &rec.ProteinPct, &rec.SomaticCount, &rec.RecordedBy, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan milk record: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) History(ctx context.Context, animalID uuid.UUID, from, to date.Date) ([]*HistoryPoint, error) {
	query := `
		SELECT date, total_yield FROM milk_records
		WHERE animal_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date
	`
	rows, err := s.db.QueryContext(ctx, query, animalID, from, to)
	if err != nil {
		return nil, fmt.Errorf("milk history: %w", err)
	}
	defer rows.Close()

	var out []*HistoryPoint
	for rows.Next() {
		var p HistoryPoint
		if err := rows.Scan(&p.Date, &p.TotalYield); err != nil {
			return nil, fmt.Errorf("scan history point: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func uuidArray(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}
