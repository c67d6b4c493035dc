// Package service implements payment requests against the payment API and
// the session-state bookkeeping around them.
package service

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	formdomain "digital-forms-platform/runner/internal/form/domain"
	"digital-forms-platform/runner/internal/pay/client"
	paydomain "digital-forms-platform/runner/internal/pay/domain"
	"digital-forms-platform/runner/internal/pay/repository"
	"digital-forms-platform/runner/internal/security"
	sessiondomain "digital-forms-platform/runner/internal/session/domain"
	"digital-forms-platform/runner/internal/session/store"
	"digital-forms-platform/runner/internal/telemetry"
	telemetrydomain "digital-forms-platform/runner/internal/telemetry/domain"
)

// PaymentsAPI is the payment provider client used by the service.
type PaymentsAPI interface {
	CreatePayment(ctx context.Context, apiKey string, payment *client.PaymentRequest) (*client.PaymentResult, error)
	GetPayment(ctx context.Context, url, apiKey string) (json.RawMessage, error)
}

// FormLookup resolves a form definition by ID; nil when unknown.
type FormLookup interface {
	Get(formID string) *formdomain.Form
}

// PayService submits payment requests for a session and records the result
// in session state and the payment ledger.
type PayService struct {
	sessions store.Store
	forms    FormLookup
	api      PaymentsAPI
	ledger   repository.Repository
	emitter  telemetry.EventEmitter
}

// NewPayService returns a PayService with the given dependencies.
// ledger and emitter may be nil to disable the audit trail and telemetry.
func NewPayService(
	sessions store.Store,
	forms FormLookup,
	api PaymentsAPI,
	ledger repository.Repository,
	emitter telemetry.EventEmitter,
) *PayService {
	return &PayService{
		sessions: sessions,
		forms:    forms,
		api:      api,
		ledger:   ledger,
		emitter:  emitter,
	}
}

// PayRequest submits a payment for the session identified by token.
// The session must already hold pay metadata (amount, description, return
// URL, API key); its absence means a prior step was skipped and is a hard
// failure before any call to the payment API. On success the payment
// identifiers are merged back into session state under the pay key and the
// raw provider payload is returned.
func (s *PayService) PayRequest(ctx context.Context, token, formID string) (json.RawMessage, error) {
	state, err := s.sessions.GetState(ctx, token)
	if err != nil {
		return nil, err
	}
	if state.Pay == nil || state.Pay.Meta == nil {
		return nil, sessiondomain.ErrNoPayData
	}
	meta := state.Pay.Meta

	reference, err := security.RandomID(security.PaymentReferenceLength)
	if err != nil {
		return nil, err
	}
	request := &client.PaymentRequest{
		Amount:      meta.Amount,
		Reference:   reference,
		Description: meta.Description,
		ReturnURL:   meta.ReturnURL,
	}
	if form := s.forms.Get(formID); form != nil {
		request.PrefilledCardholderDetails = resolvePrefilled(form.PrefilledPayFields, state)
	}

	result, err := s.api.CreatePayment(ctx, meta.PayApiKey, request)
	if err != nil {
		return nil, err
	}

	// Meta is carried into the partial because merges are shallow; dropping
	// it would lose the API key needed for status lookups.
	merge := &sessiondomain.State{
		Pay: &sessiondomain.PayState{
			Meta:      meta,
			PayID:     result.PaymentID,
			Reference: result.Reference,
			Self:      result.SelfHref,
		},
	}
	if err := s.sessions.MergeState(ctx, token, merge); err != nil {
		return nil, err
	}

	s.record(ctx, formID, reference, result.PaymentID, meta.Amount)
	s.emit(ctx, formID, map[string]interface{}{"reference": reference, "amount": meta.Amount})
	return result.Payload, nil
}

// PayStatus fetches the payment document at url using the given API key.
// Plain passthrough, no retry.
func (s *PayService) PayStatus(ctx context.Context, url, apiKey string) (json.RawMessage, error) {
	return s.api.GetPayment(ctx, url, apiKey)
}

// PayStatusForSession looks up the payment recorded in the session's state
// and fetches its current document from the provider. The session must hold
// a submitted payment (self link and API key).
func (s *PayService) PayStatusForSession(ctx context.Context, token string) (json.RawMessage, error) {
	state, err := s.sessions.GetState(ctx, token)
	if err != nil {
		return nil, err
	}
	if state.Pay == nil || state.Pay.Meta == nil || state.Pay.Self == "" {
		return nil, sessiondomain.ErrNoPayData
	}
	return s.api.GetPayment(ctx, state.Pay.Self, state.Pay.Meta.PayApiKey)
}

// record appends the payment to the ledger. The payment has already been
// accepted by the provider, so a ledger failure is logged rather than
// surfaced to the caller.
func (s *PayService) record(ctx context.Context, formID, reference, payID string, amount int64) {
	if s.ledger == nil {
		return
	}
	payment := &paydomain.Payment{
		ID:        uuid.New().String(),
		Reference: reference,
		FormID:    formID,
		PayID:     payID,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.ledger.Create(ctx, payment); err != nil {
		log.Printf("pay: ledger write for reference %s: %v", reference, err)
	}
}

func (s *PayService) emit(ctx context.Context, formID string, metadata map[string]interface{}) {
	if s.emitter == nil {
		return
	}
	telemetry.EmitAsync(s.emitter, ctx, &telemetrydomain.Event{
		FormID:    formID,
		EventType: telemetrydomain.EventPaymentRequested,
		Source:    "runner",
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	})
}

// resolvePrefilled maps the form's configured cardholder fields to values
// found in session state. Fields whose configured path is absent from state
// are omitted; nothing is defaulted.
func resolvePrefilled(fields *formdomain.PrefilledPayFields, state *sessiondomain.State) *client.CardholderDetails {
	if fields == nil {
		return nil
	}
	values := stateValues(state)
	details := &client.CardholderDetails{}
	if v, ok := lookupPath(values, fields.CardholderName); ok {
		details.CardholderName = v
	}
	address := &client.BillingAddress{}
	addressSet := false
	if v, ok := lookupPath(values, fields.BillingAddress.Line1); ok {
		address.Line1, addressSet = v, true
	}
	if v, ok := lookupPath(values, fields.BillingAddress.Line2); ok {
		address.Line2, addressSet = v, true
	}
	if v, ok := lookupPath(values, fields.BillingAddress.Postcode); ok {
		address.Postcode, addressSet = v, true
	}
	if v, ok := lookupPath(values, fields.BillingAddress.City); ok {
		address.City, addressSet = v, true
	}
	if v, ok := lookupPath(values, fields.BillingAddress.Country); ok {
		address.Country, addressSet = v, true
	}
	if addressSet {
		details.BillingAddress = address
	}
	if details.CardholderName == "" && details.BillingAddress == nil {
		return nil
	}
	return details
}

// stateValues flattens the state into a generic map so configured paths can
// address any stored field, e.g. "metadata.applicant.name".
func stateValues(state *sessiondomain.State) map[string]interface{} {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil
	}
	var values map[string]interface{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}
	return values
}

// lookupPath walks a dotted path through nested maps and returns the value
// as a string. Missing segments, non-map intermediates, and non-string
// leaves all report not found.
func lookupPath(values map[string]interface{}, path string) (string, bool) {
	if path == "" || values == nil {
		return "", false
	}
	segments := strings.Split(path, ".")
	current := values
	for i, segment := range segments {
		value, ok := current[segment]
		if !ok {
			return "", false
		}
		if i == len(segments)-1 {
			s, ok := value.(string)
			return s, ok && s != ""
		}
		next, ok := value.(map[string]interface{})
		if !ok {
			return "", false
		}
		current = next
	}
	return "", false
}
