package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreatePayment_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want %q", r.Method, http.MethodPost)
		}
		if r.URL.Path != "/payments" {
			t.Errorf("path = %q, want /payments", r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("Authorization") != "Bearer test-api-key" {
			t.Errorf("Authorization = %q, want bearer key", r.Header.Get("Authorization"))
		}

		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("Decode body: %v", err)
		}
		if body["amount"] != float64(1200) {
			t.Errorf("amount = %v, want 1200", body["amount"])
		}
		if body["reference"] != "REF1234567" {
			t.Errorf("reference = %v", body["reference"])
		}
		if body["return_url"] != "https://forms.example.gov.uk/return" {
			t.Errorf("return_url = %v", body["return_url"])
		}

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{
			"payment_id": "pay-123",
			"reference": "REF1234567",
			"_links": {"self": {"href": "https://pay.example/v1/payments/pay-123"}}
		}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	result, err := c.CreatePayment(context.Background(), "test-api-key", &PaymentRequest{
		Amount:      1200,
		Reference:   "REF1234567",
		Description: "4 x Fee B: £12",
		ReturnURL:   "https://forms.example.gov.uk/return",
	})
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if result.PaymentID != "pay-123" {
		t.Errorf("PaymentID = %q", result.PaymentID)
	}
	if result.Reference != "REF1234567" {
		t.Errorf("Reference = %q", result.Reference)
	}
	if result.SelfHref != "https://pay.example/v1/payments/pay-123" {
		t.Errorf("SelfHref = %q", result.SelfHref)
	}
	if len(result.Payload) == 0 {
		t.Error("Payload should hold the raw response")
	}
}

func TestCreatePayment_OmitsEmptyPrefill(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"payment_id": "pay-1", "reference": "R", "_links": {"self": {"href": "h"}}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	_, err := c.CreatePayment(context.Background(), "k", &PaymentRequest{Amount: 500, Reference: "R", Description: "Fee A: £5", ReturnURL: "https://r.example"})
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if _, ok := received["prefilled_cardholder_details"]; ok {
		t.Error("prefilled_cardholder_details should be omitted when unset")
	}
}

func TestCreatePayment_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code": "P0200", "description": "auth failure"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	_, err := c.CreatePayment(context.Background(), "bad-key", &PaymentRequest{Amount: 500, Reference: "R"})
	if err == nil {
		t.Fatal("expected error for non-2xx status")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error = %q, want status in message", err.Error())
	}
	if !strings.Contains(err.Error(), "auth failure") {
		t.Errorf("error = %q, want response body in message", err.Error())
	}
}

func TestGetPayment_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %q, want GET", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer test-api-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`{"state": {"status": "success", "finished": true}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	payload, err := c.GetPayment(context.Background(), server.URL+"/payments/pay-123", "test-api-key")
	if err != nil {
		t.Fatalf("GetPayment: %v", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(payload, &doc); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
}

func TestGetPayment_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code": "P0200"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	if _, err := c.GetPayment(context.Background(), server.URL+"/payments/missing", "k"); err == nil {
		t.Fatal("expected error for 404")
	}
}
