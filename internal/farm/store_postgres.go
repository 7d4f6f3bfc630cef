package farm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"herdwatch/internal/store"
)

// PostgresStore persists farms in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, farm *Farm) error {
	query := `
		INSERT INTO farms (id, name, location, timezone, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		farm.ID, farm.Name, farm.Location, farm.Timezone, farm.OwnerID, farm.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert farm: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, farm *Farm) error {
	query := `
		UPDATE farms SET name = $2, location = $3, timezone = $4
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, farm.ID, farm.Name, farm.Location, farm.Timezone)
	if err != nil {
		return fmt.Errorf("update farm: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*Farm, error) {
	query := `
		SELECT id, name, location, timezone, owner_id, created_at
		FROM farms WHERE id = $1
	`
	var f Farm
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&f.ID, &f.Name, &f.Location, &f.Timezone, &f.OwnerID, &f.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query farm: %w", err)
	}
	return &f, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Farm, error) {
	return s.list(ctx, `WHERE owner_id = $1`, ownerID)
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*Farm, error) {
	return s.list(ctx, ``)
}

func (s *PostgresStore) list(ctx context.Context, where string, args ...any) ([]*Farm, error) {
	query := `
		SELECT id, name, location, timezone, owner_id, created_at
		FROM farms ` + where + ` ORDER BY created_at, id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list farms: %w", err)
	}
	defer rows.Close()

	var out []*Farm
	for rows.Next() {
		var f Farm
		if err := rows.Scan(&f.ID, &f.Name, &f.Location, &f.Timezone, &f.OwnerID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan farm: %w", err)
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

func (s *PostgresStore) IDsByOwner(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM farms WHERE owner_id = $1`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list farm ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan farm id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
