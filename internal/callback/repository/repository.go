package repository

import (
	"context"

	"digital-forms-platform/runner/internal/callback/domain"
)

// Repository defines persistence for callback policies.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.CallbackPolicy, error)
	ListByForm(ctx context.Context, formID string) ([]*domain.CallbackPolicy, error)
	Create(ctx context.Context, p *domain.CallbackPolicy) error
	Update(ctx context.Context, p *domain.CallbackPolicy) error
}
