package producer

import (
	"context"

	"digital-forms-platform/runner/internal/telemetry/domain"
)

// Producer publishes session events to a message broker.
type Producer interface {
	Emit(ctx context.Context, event *domain.Event) error
	Close() error
}
