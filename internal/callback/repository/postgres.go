package repository

import (
	"context"
	"database/sql"
	"errors"

	"digital-forms-platform/runner/internal/callback/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a callback policy repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the policy for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.CallbackPolicy, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, form_id, rules, enabled, created_at FROM callback_policies WHERE id = $1`, id)
	p, err := scanPolicy(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// ListByForm returns all policies for the given form. Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListByForm(ctx context.Context, formID string) ([]*domain.CallbackPolicy, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, form_id, rules, enabled, created_at FROM callback_policies WHERE form_id = $1 ORDER BY created_at`, formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.CallbackPolicy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create persists the policy to the database. The policy must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.CallbackPolicy) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO callback_policies (id, form_id, rules, enabled, created_at) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.FormID, p.Rules, p.Enabled, p.CreatedAt)
	return err
}

// Update updates the existing policy record in the database. Returns an error if the update fails.
func (r *PostgresRepository) Update(ctx context.Context, p *domain.CallbackPolicy) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE callback_policies SET rules = $2, enabled = $3 WHERE id = $1`,
		p.ID, p.Rules, p.Enabled)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPolicy(s rowScanner) (*domain.CallbackPolicy, error) {
	var p domain.CallbackPolicy
	if err := s.Scan(&p.ID, &p.FormID, &p.Rules, &p.Enabled, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
