// Package domain holds the session telemetry event model.
package domain

import "time"

// Event types emitted by the runner.
const (
	EventSessionCreated   = "session_created"
	EventSessionActivated = "session_activated"
	EventPaymentRequested = "payment_requested"
)

// Event is a session lifecycle event (form-scoped, optional session user).
// JSON field names are part of the wire contract consumed by the worker.
type Event struct {
	FormID    string                 `json:"formId"`
	User      string                 `json:"user,omitempty"`
	EventType string                 `json:"eventType"`
	Source    string                 `json:"source"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}
