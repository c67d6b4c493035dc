// Package domain holds the session state model and its merge contract.
package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no session exists for a token, or it has expired.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExists is returned when creating a session under a token that already has one.
	ErrSessionExists = errors.New("session already exists")
	// ErrNoPayData is returned when an operation requires the pay key and it is absent.
	ErrNoPayData = errors.New("no pay data stored in session")
)

// CallbackOptions are the caller-supplied options stored under the callback key
// at session creation: where to send the user afterwards and what to show them.
type CallbackOptions struct {
	CallbackURL  string `json:"callbackUrl"`
	RedirectPath string `json:"redirectPath,omitempty"`
	Message      string `json:"message,omitempty"`
	Title        string `json:"title,omitempty"`
}

// PayMeta is the payment metadata a form stores before a payment is requested.
// Amount is in minor currency units (pence).
type PayMeta struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	ReturnURL   string `json:"returnUrl"`
	PayApiKey   string `json:"payApiKey"`
}

// PayState is the payment sub-state stored under the pay key.
// Meta must be present before a payment request; the remaining fields are
// filled in from the payment provider's response.
type PayState struct {
	Meta      *PayMeta `json:"meta,omitempty"`
	PayID     string   `json:"payId,omitempty"`
	Reference string   `json:"reference,omitempty"`
	Self      string   `json:"self,omitempty"`
}

// State is the per-session state blob keyed by the session token.
// The sub-objects are a closed set; webhook data carries the arbitrary
// caller-supplied fields forwarded at initialisation.
type State struct {
	Callback *CallbackOptions       `json:"callback,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Webhook  map[string]interface{} `json:"webhook,omitempty"`
	Pay      *PayState              `json:"pay,omitempty"`
	// Activated is set once GET /session/{token} has exchanged the token.
	Activated bool `json:"activated,omitempty"`
}

// Merge applies partial onto s with shallow semantics: each top-level key set
// in partial replaces the existing value wholesale. Nested objects are never
// deep-merged; callers that need to preserve nested fields (e.g. pay.meta)
// must carry them into the partial themselves.
func (s *State) Merge(partial *State) {
	if partial == nil {
		return
	}
	if partial.Callback != nil {
		s.Callback = partial.Callback
	}
	if partial.Metadata != nil {
		s.Metadata = partial.Metadata
	}
	if partial.Webhook != nil {
		s.Webhook = partial.Webhook
	}
	if partial.Pay != nil {
		s.Pay = partial.Pay
	}
}

// RedirectPath returns the redirect path stored at creation, or "" when unset.
func (s *State) RedirectPath() string {
	if s == nil || s.Callback == nil {
		return ""
	}
	return s.Callback.RedirectPath
}
