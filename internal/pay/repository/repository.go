// Package repository persists the payment ledger.
package repository

import (
	"context"

	"digital-forms-platform/runner/internal/pay/domain"
)

// Repository is the payment ledger store. Reads return (nil, nil) when no
// row matches.
type Repository interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByReference(ctx context.Context, reference string) (*domain.Payment, error)
	ListByForm(ctx context.Context, formID string) ([]*domain.Payment, error)
}
