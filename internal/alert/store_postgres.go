package alert

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"herdwatch/internal/store"
)

// PostgresStore persists alerts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const alertColumns = `id, farm_id, animal_id, alert_type, severity, message,
	is_resolved, resolved_at, resolved_by, created_at`

func (s *PostgresStore) Create(ctx context.Context, a *Alert) error {
	query := `
		INSERT INTO alerts (` + alertColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.FarmID, a.AnimalID, a.Type, a.Severity, a.Message,
		a.Resolved, a.ResolvedAt, a.ResolvedBy, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, a *Alert) error {
	query := `
		UPDATE alerts SET is_resolved = $2, resolved_at = $3, resolved_by = $4
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, a.ID, a.Resolved, a.ResolvedAt, a.ResolvedBy)
	if err != nil {
		return fmt.Errorf("update alert: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*Alert, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = $1`, id)
	var a Alert
	err := row.Scan(
		&a.ID, &a.FarmID, &a.AnimalID, &a.Type, &a.Severity, &a.Message,
		&a.Resolved, &a.ResolvedAt, &a.ResolvedBy, &a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query alert: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) List(ctx context.Context, f ListFilter) ([]*Alert, error) {
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
		conds = append(conds, "farm_id = ANY("+arg(idArray(f.FarmIDs))+")")
	}
	if f.Resolved != nil {
		conds = append(conds, "is_resolved = "+arg(*f.Resolved))
	}
	if f.Severity != "" {
		conds = append(conds, "severity = "+arg(string(f.Severity)))
	}

	query := `SELECT ` + alertColumns + ` FROM alerts`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}
	if f.Skip > 0 {
		query += " OFFSET " + arg(f.Skip)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var out []*Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(
			&a.ID, &a.FarmID, &a.AnimalID, &a.Type, &a.Severity, &a.Message,
			&a.Resolved, &a.ResolvedAt, &a.ResolvedBy, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func idArray(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}
