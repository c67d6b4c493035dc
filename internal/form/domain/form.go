// Package domain holds the published form registry types.
package domain

import (
	"encoding/json"
	"errors"
)

// Form is a published form definition known to this runner instance.
// Registry entries are read-only; existence of an ID in the registry is the
// sole validity check performed before a session is issued for it.
type Form struct {
	// ID is the form identifier used in /session/{formId} and as the token group claim.
	ID string `json:"id"`
	// Name is the human-readable form title.
	Name string `json:"name"`
	// Def is the raw declarative form definition (pages, components). Opaque to this service.
	Def json.RawMessage `json:"def,omitempty"`
	// PrefilledPayFields maps GOV.UK Pay cardholder fields to session-state paths; nil when the form has none.
	PrefilledPayFields *PrefilledPayFields `json:"prefilledPayFields,omitempty"`
}

// PrefilledPayFields is the closed set of cardholder fields a form may ask to
// prefill on the payment page. Each value is a path into session state;
// empty values mean the field is not configured.
type PrefilledPayFields struct {
	CardholderName string               `json:"cardholderName,omitempty"`
	BillingAddress BillingAddressFields `json:"billingAddress,omitempty"`
}

// BillingAddressFields holds the session-state paths for billing address parts.
type BillingAddressFields struct {
	Line1    string `json:"line1,omitempty"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city,omitempty"`
	Postcode string `json:"postcode,omitempty"`
	Country  string `json:"country,omitempty"`
}

// Validate checks required fields.
func (f *Form) Validate() error {
	if f.ID == "" {
		return errors.New("form: id is required")
	}
	return nil
}
