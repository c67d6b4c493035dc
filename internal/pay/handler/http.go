// Package handler exposes payment submission and status over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"digital-forms-platform/runner/internal/pay/service"
	sessiondomain "digital-forms-platform/runner/internal/session/domain"
)

// Handler serves POST /pay/{formId}/{token} and GET /pay/{token}.
type Handler struct {
	pay *service.PayService
}

// NewHandler returns a Handler backed by the given pay service.
func NewHandler(pay *service.PayService) *Handler {
	return &Handler{pay: pay}
}

// Register mounts the pay routes on the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/pay/{formId}/{token}", h.PayRequest).Methods(http.MethodPost)
	r.HandleFunc("/pay/{token}", h.PayStatus).Methods(http.MethodGet)
}

// PayRequest submits a payment for the session. The session state must
// already hold pay metadata; a session that reached payment without it is a
// broken flow, reported as a server error and never defaulted.
func (h *Handler) PayRequest(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	payload, err := h.pay.PayRequest(r.Context(), vars["token"], vars["formId"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writePayload(w, http.StatusCreated, payload)
}

// PayStatus returns the provider's current payment document for the session.
func (h *Handler) PayStatus(w http.ResponseWriter, r *http.Request) {
	payload, err := h.pay.PayStatusForSession(r.Context(), mux.Vars(r)["token"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writePayload(w, http.StatusOK, payload)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sessiondomain.ErrSessionNotFound):
		writeMessage(w, http.StatusNotFound, "session not found or expired")
	case errors.Is(err, sessiondomain.ErrNoPayData):
		log.Printf("pay: %v", err)
		writeMessage(w, http.StatusInternalServerError, "no pay data stored in session")
	default:
		log.Printf("pay: %v", err)
		writeMessage(w, http.StatusBadGateway, "payment provider request failed")
	}
}

func writePayload(w http.ResponseWriter, status int, payload json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		log.Printf("pay: write response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"message": message}); err != nil {
		log.Printf("pay: write response: %v", err)
	}
}
