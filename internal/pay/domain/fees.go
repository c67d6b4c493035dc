// Package domain holds the fee and payment ledger models.
package domain

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FeeLineItem is a single fee on a form. Amount is in pence. Multiplier names
// the state field that multiplies the fee; MultiplyBy is its resolved value.
type FeeLineItem struct {
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Multiplier  string `json:"multiplier,omitempty"`
	MultiplyBy  int64  `json:"multiplyBy,omitempty"`
}

// Fees is the fee summary computed for a form submission.
type Fees struct {
	Details          []FeeLineItem `json:"details"`
	Total            int64         `json:"total"`
	PaymentReference string        `json:"paymentReference,omitempty"`
}

var pence = decimal.NewFromInt(100)

// DescriptionFromFees renders the human-readable payment description shown on
// the payment page: one fragment per line item joined with ", ".
// Amounts are pence converted to pounds with exact arithmetic; a multiplied
// fee renders as "<n> x <description>: £<n*amount in pounds>".
func DescriptionFromFees(fees *Fees) string {
	if fees == nil {
		return ""
	}
	parts := make([]string, 0, len(fees.Details))
	for _, item := range fees.Details {
		amount := decimal.NewFromInt(item.Amount)
		if item.Multiplier != "" && item.MultiplyBy != 0 {
			total := amount.Mul(decimal.NewFromInt(item.MultiplyBy)).Div(pence)
			parts = append(parts, strconv.FormatInt(item.MultiplyBy, 10)+" x "+item.Description+": £"+total.String())
			continue
		}
		parts = append(parts, item.Description+": £"+amount.Div(pence).String())
	}
	return strings.Join(parts, ", ")
}
