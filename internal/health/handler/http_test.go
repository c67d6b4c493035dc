package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
)

func doHealth(t *testing.T, h *Handler) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	r := mux.NewRouter()
	h.Register(r)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rec, body
}

func TestHealth_AllHealthy(t *testing.T) {
	h := NewHandler(map[string]Checker{
		"cache": func(ctx context.Context) error { return nil },
		"db":    func(ctx context.Context) error { return nil },
	})
	rec, body := doHealth(t, h)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
	checks := body["checks"].(map[string]interface{})
	if checks["cache"] != "ok" || checks["db"] != "ok" {
		t.Errorf("checks = %v", checks)
	}
}

func TestHealth_DependencyDown(t *testing.T) {
	h := NewHandler(map[string]Checker{
		"cache": func(ctx context.Context) error { return nil },
		"db":    func(ctx context.Context) error { return errors.New("connection refused") },
	})
	rec, body := doHealth(t, h)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if body["status"] != "unhealthy" {
		t.Errorf("status field = %v", body["status"])
	}
	checks := body["checks"].(map[string]interface{})
	if checks["db"] != "unhealthy" {
		t.Errorf("checks = %v", checks)
	}
	if checks["cache"] != "ok" {
		t.Errorf("healthy check should still report ok: %v", checks)
	}
}

func TestHealth_NilCheckersSkipped(t *testing.T) {
	h := NewHandler(map[string]Checker{
		"cache": func(ctx context.Context) error { return nil },
		"db":    nil,
	})
	rec, body := doHealth(t, h)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	checks := body["checks"].(map[string]interface{})
	if _, ok := checks["db"]; ok {
		t.Error("nil checker should be skipped")
	}
}
