package domain

import (
	"errors"
	"time"
)

// Payment is a ledger row recording a payment request accepted by the
// payment API. The authoritative payment state lives with the provider;
// this row is the durable audit trail.
type Payment struct {
	ID        string    `json:"id"`
	Reference string    `json:"reference"`
	FormID    string    `json:"form_id"`
	PayID     string    `json:"pay_id"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks required fields.
func (p *Payment) Validate() error {
	if p.ID == "" {
		return errors.New("payment: id is required")
	}
	if p.Reference == "" {
		return errors.New("payment: reference is required")
	}
	if p.FormID == "" {
		return errors.New("payment: form_id is required")
	}
	return nil
}
