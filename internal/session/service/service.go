// Package service implements session initialisation and activation.
package service

import (
	"context"
	"errors"
	"path"
	"time"

	"digital-forms-platform/runner/internal/callback/engine"
	"digital-forms-platform/runner/internal/security"
	"digital-forms-platform/runner/internal/session/domain"
	"digital-forms-platform/runner/internal/session/store"
	"digital-forms-platform/runner/internal/telemetry"
	telemetrydomain "digital-forms-platform/runner/internal/telemetry/domain"
)

// Sentinel errors for the session service; handler maps them to HTTP statuses.
var (
	ErrFormNotFound = errors.New("form not found")
)

// FormChecker reports whether a form is registered on this instance.
type FormChecker interface {
	Exists(formID string) bool
}

// SessionService validates initialisation requests, issues tokens, and
// activates sessions. Validation runs before any token is issued or state
// written, so a rejected request leaves no trace.
type SessionService struct {
	forms     FormChecker
	evaluator engine.Evaluator
	tokens    *security.TokenProvider
	store     store.Store
	emitter   telemetry.EventEmitter
}

// NewSessionService returns a SessionService with the given dependencies.
// emitter may be nil to disable telemetry.
func NewSessionService(
	forms FormChecker,
	evaluator engine.Evaluator,
	tokens *security.TokenProvider,
	sessions store.Store,
	emitter telemetry.EventEmitter,
) *SessionService {
	return &SessionService{
		forms:     forms,
		evaluator: evaluator,
		tokens:    tokens,
		store:     sessions,
		emitter:   emitter,
	}
}

// Initialise checks the form exists and the callback URL is allowed, then
// issues a session token and stores the initial state under it.
// Returns ErrFormNotFound for an unregistered form, and the evaluator's
// sentinel errors for a disallowed or malformed callback URL.
func (s *SessionService) Initialise(
	ctx context.Context,
	formID string,
	options *domain.CallbackOptions,
	metadata map[string]interface{},
	webhook map[string]interface{},
) (string, error) {
	if !s.forms.Exists(formID) {
		return "", ErrFormNotFound
	}
	var callbackURL string
	if options != nil {
		callbackURL = options.CallbackURL
	}
	if err := s.evaluator.Validate(ctx, formID, callbackURL); err != nil {
		return "", err
	}
	token, _, err := s.tokens.Issue(formID, callbackURL)
	if err != nil {
		return "", err
	}
	initial := &domain.State{
		Callback: options,
		Metadata: metadata,
		Webhook:  webhook,
	}
	if err := s.store.CreateSession(ctx, token, initial); err != nil {
		return "", err
	}
	s.emit(ctx, formID, "", telemetrydomain.EventSessionCreated, nil)
	return token, nil
}

// Activate decodes the token, marks the session active, and returns the
// path to redirect the user to. The redirect is always anchored under the
// form the token was issued for; a stored redirect path cannot escape it.
// Returns security.ErrInvalidToken for a bad token and
// domain.ErrSessionNotFound when the cache entry is missing or expired.
func (s *SessionService) Activate(ctx context.Context, token string) (string, error) {
	claims, err := s.tokens.Decode(token)
	if err != nil {
		return "", err
	}
	activation, err := s.store.ActivateSession(ctx, token)
	if err != nil {
		return "", err
	}
	// Clean the stored path in its own namespace first so ".." segments
	// collapse before the form prefix is applied.
	rel := path.Clean("/" + activation.RedirectPath)
	redirect := path.Join("/", claims.Group, rel)
	s.emit(ctx, claims.Group, claims.User, telemetrydomain.EventSessionActivated, nil)
	return redirect, nil
}

func (s *SessionService) emit(ctx context.Context, formID, user, eventType string, metadata map[string]interface{}) {
	if s.emitter == nil {
		return
	}
	telemetry.EmitAsync(s.emitter, ctx, &telemetrydomain.Event{
		FormID:    formID,
		User:      user,
		EventType: eventType,
		Source:    "runner",
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	})
}
