package animal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"herdwatch/internal/store"
)

// PostgresStore persists animals and their feed and sensor records in
// PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const animalColumns = `id, farm_id, tag_number, breed, dob, sex, parity,
	current_weight, lactation_start_date, is_active, created_at`

func (s *PostgresStore) Create(ctx context.Context, a *Animal) error {
	query := `
		INSERT INTO animals (` + animalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.FarmID, a.TagNumber, nullString(a.Breed), a.DOB, nullString(a.Sex),
		a.Parity, a.CurrentWeight, a.LactationStart, a.Active, a.CreatedAt,
	)
	if store.IsUniqueViolation(err) {
		return store.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert animal: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, a *Animal) error {
	query := `
		UPDATE animals SET tag_number = $2, breed = $3, dob = $4, sex = $5,
			parity = $6, current_weight = $7, lactation_start_date = $8, is_active = $9
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		a.ID, a.TagNumber, nullString(a.Breed), a.DOB, nullString(a.Sex),
		a.Parity, a.CurrentWeight, a.LactationStart, a.Active,
	)
	if store.IsUniqueViolation(err) {
		return store.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update animal: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*Animal, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+animalColumns+` FROM animals WHERE id = $1`, id)
	return scanAnimal(row)
}

func (s *PostgresStore) FindByTag(ctx context.Context, farmID uuid.UUID, tag string) (*Animal, error) {
	query := `SELECT ` + animalColumns + ` FROM animals WHERE farm_id = $1 AND lower(tag_number) = lower($2)`
	return scanAnimal(s.db.QueryRowContext(ctx, query, farmID, tag))
}

func (s *PostgresStore) List(ctx context.Context, f ListFilter) ([]*Animal, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.FarmID != uuid.Nil {
		conds = append(conds, "farm_id = "+arg(f.FarmID))
	}
	if f.FarmIDs != nil {
		conds = append(conds, "farm_id = ANY("+arg(farmIDArray(f.FarmIDs))+")")
	}
	if f.Breed != "" {
		conds = append(conds, "breed ILIKE "+arg("%"+f.Breed+"%"))
	}
	if f.Active != nil {
		conds = append(conds, "is_active = "+arg(*f.Active))
	}

	query := `SELECT ` + animalColumns + ` FROM animals`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at, id"
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}
	if f.Skip > 0 {
		query += " OFFSET " + arg(f.Skip)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list animals: %w", err)
	}
	defer rows.Close()

	var out []*Animal
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// farmIDArray renders UUIDs as a postgres array literal so an empty
// farmer scope matches no rows instead of all of them.
func farmIDArray(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnimal(row rowScanner) (*Animal, error) {
	var (
		a     Animal
		breed sql.NullString
		sex   sql.NullString
	)
	err := row.Scan(
		&a.ID, &a.FarmID, &a.TagNumber, &breed, &a.DOB, &sex,
		&a.Parity, &a.CurrentWeight, &a.LactationStart, &a.Active, &a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan animal: %w", err)
	}
	a.Breed = breed.String
	a.Sex = sex.String
	return &a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (s *PostgresStore) CreateFeedProfile(ctx context.Context, fp *FeedProfile) error {
	query := `
		INSERT INTO feed_profiles (id, animal_id, date, feed_type, quantity_kg,
			protein_content, energy_content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		fp.ID, fp.AnimalID, fp.Date, nullString(fp.FeedType),
		fp.QuantityKg, fp.ProteinContent, fp.EnergyContent, fp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert feed profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) LatestFeedProfile(ctx context.Context, animalID uuid.UUID) (*FeedProfile, error) {
	query := `
		SELECT id, animal_id, date, feed_type, quantity_kg, protein_content, energy_content, created_at
		FROM feed_profiles WHERE animal_id = $1 ORDER BY date DESC LIMIT 1
	`
	var (
		fp       FeedProfile
		feedType sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, animalID).Scan(
		&fp.ID, &fp.AnimalID, &fp.Date, &feedType,
		&fp.QuantityKg, &fp.ProteinContent, &fp.EnergyContent, &fp.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query feed profile: %w", err)
	}
	fp.FeedType = feedType.String
	return &fp, nil
}

func (s *PostgresStore) CreateSensorReading(ctx context.Context, sr *SensorReading) error {
	query := `
		INSERT INTO sensor_readings (id, animal_id, sensor_type, value, unit, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		sr.ID, sr.AnimalID, sr.Type, sr.Value, nullString(sr.Unit), sr.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert sensor reading: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListSensorReadings(ctx context.Context, animalID uuid.UUID, limit int) ([]*SensorReading, error) {
	query := `
		SELECT id, animal_id, sensor_type, value, unit, timestamp
		FROM sensor_readings WHERE animal_id = $1 ORDER BY timestamp DESC
	`
	args := []any{animalID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sensor readings: %w", err)
	}
	defer rows.Close()

	var out []*SensorReading
	for rows.Next() {
		var (
			sr   SensorReading
			unit sql.NullString
		)
		if err := rows.Scan(&sr.ID, &sr.AnimalID, &sr.Type, &sr.Value, &unit, &sr.Timestamp); err != nil {
			return nil, fmt.Errorf("scan sensor reading: %w", err)
		}
		sr.Unit = unit.String
		out = append(out, &sr)
	}
	return out, rows.Err()
}
