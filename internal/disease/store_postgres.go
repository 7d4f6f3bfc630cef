package disease

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"herdwatch/internal/store"
)

// PostgresStore persists disease records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `id, animal_id, disease_name, diagnosis_date, severity,
	treatment, notes, is_recovered, recovery_date, vet_id, created_at`

func (s *PostgresStore) Create(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO disease_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.AnimalID, rec.DiseaseName, rec.DiagnosisDate, rec.Severity,
		nullString(rec.Treatment), nullString(rec.Notes), rec.Recovered,
		rec.RecoveryDate, rec.VetID, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert disease record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, rec *Record) error {
	query := `
		UPDATE disease_records SET treatment = $2, notes = $3, is_recovered = $4, recovery_date = $5
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		rec.ID, nullString(rec.Treatment), nullString(rec.Notes), rec.Recovered, rec.RecoveryDate,
	)
	if err != nil {
		return fmt.Errorf("update disease record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM disease_records WHERE id = $1`, id)
	return scanRecord(row)
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
		conds = append(conds, "animal_id = ANY("+arg(idArray(f.AnimalIDs))+")")
	}
	if f.Disease != "" {
		conds = append(conds, "disease_name ILIKE "+arg("%"+f.Disease+"%"))
	}
	if f.Active != nil {
		conds = append(conds, "is_recovered = "+arg(!*f.Active))
	}
	if !f.From.IsZero() {
		conds = append(conds, "diagnosis_date >= "+arg(f.From))
	}
	if !f.To.IsZero() {
		conds = append(conds, "diagnosis_date <= "+arg(f.To))
	}

	query := `SELECT ` + recordColumns + ` FROM disease_records`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY diagnosis_date DESC, id"
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}
	if f.Skip > 0 {
		query += " OFFSET " + arg(f.Skip)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list disease records: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountActive(ctx context.Context, animalID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM disease_records WHERE animal_id = $1 AND NOT is_recovered`, animalID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active diseases: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec       Record
		treatment sql.NullString
		notes     sql.NullString
	)
	err := row.Scan(
		&rec.ID, &rec.AnimalID, &rec.DiseaseName, &rec.DiagnosisDate, &rec.Severity,
		&treatment, &notes, &rec.Recovered, &rec.RecoveryDate, &rec.VetID, &rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan disease record: %w", err)
	}
	rec.Treatment = treatment.String
	rec.Notes = notes.String
	return &rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func idArray(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}
