// Package client is an HTTP client for the GOV.UK Pay API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// PaymentRequest is the create-payment request body.
type PaymentRequest struct {
	Amount                     int64              `json:"amount"`
	Reference                  string             `json:"reference"`
	Description                string             `json:"description"`
	ReturnURL                  string             `json:"return_url"`
	PrefilledCardholderDetails *CardholderDetails `json:"prefilled_cardholder_details,omitempty"`
}

// CardholderDetails prefills the cardholder form on the payment page.
type CardholderDetails struct {
	CardholderName string          `json:"cardholder_name,omitempty"`
	BillingAddress *BillingAddress `json:"billing_address,omitempty"`
}

// BillingAddress is the prefilled billing address.
type BillingAddress struct {
	Line1    string `json:"line1,omitempty"`
	Line2    string `json:"line2,omitempty"`
	Postcode string `json:"postcode,omitempty"`
	City     string `json:"city,omitempty"`
	Country  string `json:"country,omitempty"`
}

// PaymentResult holds the identifiers extracted from a create-payment
// response plus the raw payload for callers that need the full document.
type PaymentResult struct {
	PaymentID string
	Reference string
	SelfHref  string
	Payload   json.RawMessage
}

// paymentResponse parses only the fields PaymentResult needs.
type paymentResponse struct {
	PaymentID string `json:"payment_id"`
	Reference string `json:"reference"`
	Links     struct {
		Self struct {
			Href string `json:"href"`
		} `json:"self"`
	} `json:"_links"`
}

// Client calls the payment API. API keys are supplied per call because each
// form carries its own key in session state.
type Client struct {
	apiURL     string
	httpClient *http.Client
}

// NewClient returns a Client for the given payment API base URL
// (e.g. https://publicapi.payments.service.gov.uk/v1).
func NewClient(apiURL string) *Client {
	return &Client{
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// CreatePayment POSTs the payment request. No retry; the caller's reference
// keeps a manual retry idempotent on the provider side.
func (c *Client) CreatePayment(ctx context.Context, apiKey string, payment *PaymentRequest) (*PaymentResult, error) {
	raw, err := json.Marshal(payment)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/payments", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("pay: create payment returned %s: %s", resp.Status, string(body))
	}
	var parsed paymentResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("pay: decode create payment response: %w", err)
	}
	return &PaymentResult{
		PaymentID: parsed.PaymentID,
		Reference: parsed.Reference,
		SelfHref:  parsed.Links.Self.Href,
		Payload:   body,
	}, nil
}

// GetPayment GETs the payment document at url (the self link from a create
// response) and returns the raw payload.
func (c *Client) GetPayment(ctx context.Context, url, apiKey string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("pay: get payment returned %s: %s", resp.Status, string(body))
	}
	return body, nil
}
