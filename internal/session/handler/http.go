// Package handler exposes session initialisation and activation over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"digital-forms-platform/runner/internal/callback/engine"
	"digital-forms-platform/runner/internal/security"
	"digital-forms-platform/runner/internal/session/domain"
	"digital-forms-platform/runner/internal/session/service"
)

// Handler serves POST /session/{formId} and GET /session/{token}.
type Handler struct {
	sessions *service.SessionService
}

// NewHandler returns a Handler backed by the given session service.
func NewHandler(sessions *service.SessionService) *Handler {
	return &Handler{sessions: sessions}
}

// Register mounts the session routes on the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/session/{formId}", h.Initialise).Methods(http.MethodPost)
	r.HandleFunc("/session/{token}", h.Activate).Methods(http.MethodGet)
}

// initialiseBody is the POST body. Top-level keys other than options and
// metadata are forwarded verbatim as webhook data.
type initialiseBody struct {
	Options  *domain.CallbackOptions
	Metadata map[string]interface{}
	Webhook  map[string]interface{}
}

func parseInitialiseBody(r *http.Request) (*initialiseBody, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, err
	}
	body := &initialiseBody{}
	for key, value := range raw {
		switch key {
		case "options":
			var options domain.CallbackOptions
			if err := json.Unmarshal(value, &options); err != nil {
				return nil, err
			}
			body.Options = &options
		case "metadata":
			if err := json.Unmarshal(value, &body.Metadata); err != nil {
				return nil, err
			}
		default:
			var field interface{}
			if err := json.Unmarshal(value, &field); err != nil {
				return nil, err
			}
			if body.Webhook == nil {
				body.Webhook = make(map[string]interface{})
			}
			body.Webhook[key] = field
		}
	}
	return body, nil
}

// Initialise handles POST /session/{formId}: validates the form and callback,
// issues a token, and stores the initial session state.
func (h *Handler) Initialise(w http.ResponseWriter, r *http.Request) {
	formID := mux.Vars(r)["formId"]
	body, err := parseInitialiseBody(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, err := h.sessions.Initialise(r.Context(), formID, body.Options, body.Metadata, body.Webhook)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFormNotFound):
			writeMessage(w, http.StatusNotFound, fmt.Sprintf("%s does not exist on this instance", formID))
		case errors.Is(err, engine.ErrCallbackNotAllowed), errors.Is(err, engine.ErrInvalidHostname):
			var callbackURL string
			if body.Options != nil {
				callbackURL = body.Options.CallbackURL
			}
			writeMessage(w, http.StatusForbidden, fmt.Sprintf("the callback URL provided %s is not allowed", callbackURL))
		default:
			log.Printf("session: initialise %s: %v", formID, err)
			writeMessage(w, http.StatusBadGateway, "session could not be created")
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"token": token})
}

// Activate handles GET /session/{token}: exchanges the token for a redirect
// into the form. Token and session failures are mapped to structured JSON
// responses rather than propagated.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	redirect, err := h.sessions.Activate(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, security.ErrInvalidToken):
			writeMessage(w, http.StatusUnauthorized, "invalid session token")
		case errors.Is(err, domain.ErrSessionNotFound):
			writeMessage(w, http.StatusNotFound, "session not found or expired")
		default:
			log.Printf("session: activate: %v", err)
			writeMessage(w, http.StatusBadGateway, "session could not be activated")
		}
		return
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("session: write response: %v", err)
	}
}
