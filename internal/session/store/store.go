// Package store persists per-session state keyed by the session token.
package store

import (
	"context"

	"digital-forms-platform/runner/internal/session/domain"
)

// Activation is the result of activating an initialised session.
type Activation struct {
	// RedirectPath is the path stored at session creation, relative to the form.
	RedirectPath string
}

// Store is the cache service contract for session state.
//
// MergeState has shallow semantics: top-level keys in partial replace the
// stored value wholesale (see domain.State.Merge). Entries expire on the
// session TTL; operations on a missing or expired token return
// domain.ErrSessionNotFound.
type Store interface {
	// CreateSession stores initial state under token with the configured TTL.
	CreateSession(ctx context.Context, token string, initial *domain.State) error
	// GetState returns the state for token.
	GetState(ctx context.Context, token string) (*domain.State, error)
	// MergeState applies partial onto the stored state and persists the result.
	MergeState(ctx context.Context, token string, partial *domain.State) error
	// ActivateSession marks the session usable and returns the stored redirect path.
	ActivateSession(ctx context.Context, token string) (*Activation, error)
	// DestroySession removes the session. Destroying a missing session is not an error.
	DestroySession(ctx context.Context, token string) error
}
