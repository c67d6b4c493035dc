// Package domain holds callback policy types.
package domain

import "time"

// CallbackPolicy is a per-form Rego policy that decides whether a callback
// hostname may be registered against a session. When a form has no enabled
// policies the built-in whitelist policy applies.
type CallbackPolicy struct {
	ID        string
	FormID    string
	Rules     string
	Enabled   bool
	CreatedAt time.Time
}
