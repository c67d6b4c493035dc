package engine

import (
	"context"
	"errors"
)

var (
	// ErrInvalidHostname is returned when the callback URL cannot be parsed or has no hostname.
	ErrInvalidHostname = errors.New("invalid hostname")
	// ErrCallbackNotAllowed is returned when the callback hostname is rejected by policy.
	ErrCallbackNotAllowed = errors.New("callback hostname not allowed")
)

// Evaluator decides whether a caller-supplied callback URL may be registered
// against a session for the given form.
type Evaluator interface {
	// Validate parses rawURL and evaluates callback policy for formID.
	// Returns nil when allowed, ErrInvalidHostname when the URL is unparsable,
	// and ErrCallbackNotAllowed when policy rejects the hostname.
	Validate(ctx context.Context, formID, rawURL string) error
}
