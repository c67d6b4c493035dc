package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	formdomain "digital-forms-platform/runner/internal/form/domain"
	"digital-forms-platform/runner/internal/pay/client"
	paydomain "digital-forms-platform/runner/internal/pay/domain"
	sessiondomain "digital-forms-platform/runner/internal/session/domain"
	"digital-forms-platform/runner/internal/session/store"
)

type fakeAPI struct {
	created []*client.PaymentRequest
	keys    []string
	result  *client.PaymentResult
	err     error
}

func (f *fakeAPI) CreatePayment(ctx context.Context, apiKey string, payment *client.PaymentRequest) (*client.PaymentResult, error) {
	f.created = append(f.created, payment)
	f.keys = append(f.keys, apiKey)
	if f.err != nil {
		return nil, f.err
	}
	result := *f.result
	result.Reference = payment.Reference
	return &result, nil
}

func (f *fakeAPI) GetPayment(ctx context.Context, url, apiKey string) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`{"state": {"status": "success"}}`), nil
}

type fakeForms struct {
	forms map[string]*formdomain.Form
}

func (f *fakeForms) Get(formID string) *formdomain.Form { return f.forms[formID] }

type fakeLedger struct {
	payments []*paydomain.Payment
	err      error
}

func (f *fakeLedger) Create(ctx context.Context, p *paydomain.Payment) error {
	if f.err != nil {
		return f.err
	}
	f.payments = append(f.payments, p)
	return nil
}

func (f *fakeLedger) GetByReference(ctx context.Context, reference string) (*paydomain.Payment, error) {
	for _, p := range f.payments {
		if p.Reference == reference {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeLedger) ListByForm(ctx context.Context, formID string) ([]*paydomain.Payment, error) {
	return f.payments, nil
}

func newPayState() *sessiondomain.State {
	return &sessiondomain.State{
		Pay: &sessiondomain.PayState{
			Meta: &sessiondomain.PayMeta{
				Amount:      1200,
				Description: "4 x Fee B: £12",
				ReturnURL:   "https://forms.example.gov.uk/visa-application/status",
				PayApiKey:   "api-key-123",
			},
		},
	}
}

func newTestService(t *testing.T, api *fakeAPI, forms map[string]*formdomain.Form, initial *sessiondomain.State) (*PayService, store.Store, *fakeLedger, string) {
	t.Helper()
	sessions := store.NewMemoryStore(time.Hour)
	token := "session-token"
	if initial != nil {
		if err := sessions.CreateSession(context.Background(), token, initial); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}
	if api.result == nil {
		api.result = &client.PaymentResult{
			PaymentID: "pay-123",
			SelfHref:  "https://pay.example/v1/payments/pay-123",
			Payload:   json.RawMessage(`{"payment_id": "pay-123"}`),
		}
	}
	ledger := &fakeLedger{}
	svc := NewPayService(sessions, &fakeForms{forms: forms}, api, ledger, nil)
	return svc, sessions, ledger, token
}

func TestPayRequest_Succeeds(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	svc, sessions, ledger, token := newTestService(t, api, nil, newPayState())

	payload, err := svc.PayRequest(ctx, token, "visa-application")
	if err != nil {
		t.Fatalf("PayRequest: %v", err)
	}
	if len(payload) == 0 {
		t.Error("expected raw provider payload")
	}
	if len(api.created) != 1 {
		t.Fatalf("CreatePayment calls = %d, want 1", len(api.created))
	}
	req := api.created[0]
	if req.Amount != 1200 || req.ReturnURL != "https://forms.example.gov.uk/visa-application/status" {
		t.Errorf("request = %+v", req)
	}
	if len(req.Reference) != 10 {
		t.Errorf("reference = %q, want 10 chars", req.Reference)
	}
	if api.keys[0] != "api-key-123" {
		t.Errorf("api key = %q", api.keys[0])
	}

	state, err := sessions.GetState(ctx, token)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if state.Pay == nil || state.Pay.PayID != "pay-123" {
		t.Fatalf("pay state = %+v", state.Pay)
	}
	if state.Pay.Self != "https://pay.example/v1/payments/pay-123" {
		t.Errorf("self = %q", state.Pay.Self)
	}
	if state.Pay.Meta == nil || state.Pay.Meta.PayApiKey != "api-key-123" {
		t.Error("meta must be carried through the merge")
	}

	if len(ledger.payments) != 1 {
		t.Fatalf("ledger rows = %d, want 1", len(ledger.payments))
	}
	if ledger.payments[0].PayID != "pay-123" || ledger.payments[0].Amount != 1200 {
		t.Errorf("ledger row = %+v", ledger.payments[0])
	}
}

func TestPayRequest_NoPayState(t *testing.T) {
	api := &fakeAPI{}
	svc, _, _, token := newTestService(t, api, nil, &sessiondomain.State{
		Metadata: map[string]interface{}{"caseId": "42"},
	})

	_, err := svc.PayRequest(context.Background(), token, "visa-application")
	if !errors.Is(err, sessiondomain.ErrNoPayData) {
		t.Fatalf("err = %v, want ErrNoPayData", err)
	}
	if len(api.created) != 0 {
		t.Error("payment API must not be called without pay state")
	}
}

func TestPayRequest_MissingMeta(t *testing.T) {
	api := &fakeAPI{}
	svc, _, _, token := newTestService(t, api, nil, &sessiondomain.State{
		Pay: &sessiondomain.PayState{},
	})

	_, err := svc.PayRequest(context.Background(), token, "visa-application")
	if !errors.Is(err, sessiondomain.ErrNoPayData) {
		t.Fatalf("err = %v, want ErrNoPayData", err)
	}
	if len(api.created) != 0 {
		t.Error("payment API must not be called without pay meta")
	}
}

func TestPayRequest_UnknownSession(t *testing.T) {
	api := &fakeAPI{}
	svc, _, _, _ := newTestService(t, api, nil, nil)

	_, err := svc.PayRequest(context.Background(), "missing-token", "visa-application")
	if !errors.Is(err, sessiondomain.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestPayRequest_APIErrorLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{err: errors.New("upstream down")}
	svc, sessions, ledger, token := newTestService(t, api, nil, newPayState())

	if _, err := svc.PayRequest(ctx, token, "visa-application"); err == nil {
		t.Fatal("expected error")
	}
	state, err := sessions.GetState(ctx, token)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if state.Pay.PayID != "" {
		t.Error("failed payment must not write identifiers into state")
	}
	if len(ledger.payments) != 0 {
		t.Error("failed payment must not be recorded in the ledger")
	}
}

func TestPayRequest_PrefilledFields(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	forms := map[string]*formdomain.Form{
		"visa-application": {
			ID: "visa-application",
			PrefilledPayFields: &formdomain.PrefilledPayFields{
				CardholderName: "metadata.applicant.fullName",
				BillingAddress: formdomain.BillingAddressFields{
					Line1:    "metadata.applicant.addressLine1",
					Postcode: "metadata.applicant.postcode",
					Country:  "metadata.applicant.country",
				},
			},
		},
	}
	initial := newPayState()
	initial.Metadata = map[string]interface{}{
		"applicant": map[string]interface{}{
			"fullName":     "Jo Bloggs",
			"addressLine1": "1 High Street",
			"postcode":     "SW1A 1AA",
		},
	}
	svc, _, _, token := newTestService(t, api, forms, initial)

	if _, err := svc.PayRequest(ctx, token, "visa-application"); err != nil {
		t.Fatalf("PayRequest: %v", err)
	}
	details := api.created[0].PrefilledCardholderDetails
	if details == nil {
		t.Fatal("expected prefilled cardholder details")
	}
	if details.CardholderName != "Jo Bloggs" {
		t.Errorf("cardholder name = %q", details.CardholderName)
	}
	if details.BillingAddress == nil {
		t.Fatal("expected billing address")
	}
	if details.BillingAddress.Line1 != "1 High Street" || details.BillingAddress.Postcode != "SW1A 1AA" {
		t.Errorf("billing address = %+v", details.BillingAddress)
	}
	// country path is configured but absent from state
	if details.BillingAddress.Country != "" {
		t.Errorf("absent path must be omitted, got country = %q", details.BillingAddress.Country)
	}
}

func TestPayRequest_NoPrefilledConfig(t *testing.T) {
	api := &fakeAPI{}
	forms := map[string]*formdomain.Form{
		"visa-application": {ID: "visa-application"},
	}
	svc, _, _, token := newTestService(t, api, forms, newPayState())

	if _, err := svc.PayRequest(context.Background(), token, "visa-application"); err != nil {
		t.Fatalf("PayRequest: %v", err)
	}
	if api.created[0].PrefilledCardholderDetails != nil {
		t.Error("forms without prefill config must send no cardholder details")
	}
}

func TestPayStatus_Passthrough(t *testing.T) {
	api := &fakeAPI{}
	svc, _, _, _ := newTestService(t, api, nil, nil)

	payload, err := svc.PayStatus(context.Background(), "https://pay.example/v1/payments/pay-123", "api-key-123")
	if err != nil {
		t.Fatalf("PayStatus: %v", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(payload, &doc); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
}

func TestLookupPath(t *testing.T) {
	values := map[string]interface{}{
		"metadata": map[string]interface{}{
			"applicant": map[string]interface{}{"name": "Jo"},
			"count":     float64(3),
		},
	}
	if v, ok := lookupPath(values, "metadata.applicant.name"); !ok || v != "Jo" {
		t.Errorf("lookupPath = %q, %v", v, ok)
	}
	for _, path := range []string{"", "missing", "metadata.missing", "metadata.count", "metadata.applicant.name.deeper"} {
		if _, ok := lookupPath(values, path); ok {
			t.Errorf("lookupPath(%q) should not resolve", path)
		}
	}
}
