// Package webhandlers exposes the messaging HTTP endpoints.
package webhandlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	webservice "github.com/propflow/messaging-relay/app/modules/web/application"
)

// Machine-readable error types carried in error responses.
const (
	ErrTypeAuthorizationRequired        = "AUTHORIZATION_REQUIRED"
	ErrTypeNoOrganizationSelected       = "NO_ORGANIZATION_SELECTED"
	ErrTypeInvalidOrganizationSelection = "INVALID_ORGANIZATION_SELECTION"
	ErrTypeInternalError                = "INTERNAL_ERROR"
)

// SessionResolver maps an HTTP request to the caller's identity and selected
// organization. Implemented by the host application; the distinct sentinel
// errors drive the endpoint's status codes.
type SessionResolver interface {
	Resolve(r *http.Request) (*webservice.Principal, error)
}

// WebHandlers serves the messaging token and channel endpoints.
type WebHandlers struct {
	service  webservice.Service
	sessions SessionResolver
	logger   *slog.Logger
}

// NewWebHandlers creates the HTTP handlers.
func NewWebHandlers(service webservice.Service, sessions SessionResolver, logger *slog.Logger) *WebHandlers {
	return &WebHandlers{service: service, sessions: sessions, logger: logger}
}

// HandleToken serves GET /messaging/token.
func (h *WebHandlers) HandleToken(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.resolve(w, r)
	if !ok {
		return
	}

	grant, err := h.service.IssueToken(r.Context(), principal)
	if err != nil {
		h.logger.Error("Failed to issue messaging token",
			"user_id", principal.UserID,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, ErrTypeInternalError, "Failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, grant)
}

// HandleChannels serves GET /messaging/channels.
func (h *WebHandlers) HandleChannels(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.resolve(w, r)
	if !ok {
		return
	}

	list, err := h.service.ListChannels(r.Context(), principal)
	if err != nil {
		h.logger.Error("Failed to list channels",
			"user_id", principal.UserID,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, ErrTypeInternalError, "Failed to list channels")
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// resolve authenticates the request, writing the error response itself when
// the session is missing or inconsistent.
func (h *WebHandlers) resolve(w http.ResponseWriter, r *http.Request) (*webservice.Principal, bool) {
	principal, err := h.sessions.Resolve(r)
	switch {
	case err == nil:
		return principal, true
	case errors.Is(err, webservice.ErrNoOrganizationSelected):
		writeError(w, http.StatusUnauthorized, ErrTypeNoOrganizationSelected, "No organization selected")
	case errors.Is(err, webservice.ErrInvalidOrganizationSelection):
		writeError(w, http.StatusForbidden, ErrTypeInvalidOrganizationSelection, "Selected organization does not belong to user")
	default:
		writeError(w, http.StatusUnauthorized, ErrTypeAuthorizationRequired, "Authorization required")
	}
	return nil, false
}

type errorExtensions struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type apiError struct {
	Name       string          `json:"name"`
	Extensions errorExtensions `json:"extensions"`
}

type errorBody struct {
	Errors []apiError `json:"errors"`
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, errorBody{
		Errors: []apiError{{
			Name:       "GQLError",
			Extensions: errorExtensions{Type: errType, Message: message},
		}},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
