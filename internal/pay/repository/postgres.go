package repository

import (
	"context"
	"database/sql"
	"errors"

	"digital-forms-platform/runner/internal/pay/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a payment ledger repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the payment row. The payment must have ID and Reference set.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (id, reference, form_id, pay_id, amount, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Reference, p.FormID, p.PayID, p.Amount, p.CreatedAt)
	return err
}

// GetByReference returns the payment with the given reference, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, reference, form_id, pay_id, amount, created_at FROM payments WHERE reference = $1`, reference)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// ListByForm returns all payments recorded for the given form, oldest first.
func (r *PostgresRepository) ListByForm(ctx context.Context, formID string) ([]*domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, reference, form_id, pay_id, amount, created_at FROM payments WHERE form_id = $1 ORDER BY created_at`, formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(s rowScanner) (*domain.Payment, error) {
	var p domain.Payment
	if err := s.Scan(&p.ID, &p.Reference, &p.FormID, &p.PayID, &p.Amount, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
