package webhandlers

import (
	"encoding/json"
	"net/http"

	channelsdomain "github.com/propflow/messaging-relay/app/modules/channels/domain"
	"github.com/propflow/messaging-relay/pkg/token"
)

// AuthCheckRequest mirrors the broker-side HTTP authorization hook payload.
type AuthCheckRequest struct {
	ConnectOpts struct {
		AuthToken string `json:"auth_token"`
	} `json:"connect_opts"`
	ClientMetadata struct {
		Subject string `json:"subject"`
	} `json:"client_metadata"`
}

// AuthCheckResponse is the hook's verdict. Always delivered with status 200;
// the decision rides in the body.
type AuthCheckResponse struct {
	Allowed      bool   `json:"allowed"`
	Reason       string `json:"reason,omitempty"`
	User         string `json:"user,omitempty"`
	Organization string `json:"organization,omitempty"`
}

// AuthCheckHandler answers per-subject authorization queries for brokers
// that use an HTTP hook instead of the native auth callout.
type AuthCheckHandler struct {
	tokens token.Provider
	access *channelsdomain.Access
}

// NewAuthCheckHandler creates the HTTP authorization hook handler.
func NewAuthCheckHandler(tokens token.Provider, access *channelsdomain.Access) *AuthCheckHandler {
	return &AuthCheckHandler{tokens: tokens, access: access}
}

// HandleAuthCheck serves POST /messaging/auth.
func (h *AuthCheckHandler) HandleAuthCheck(w http.ResponseWriter, r *http.Request) {
	var req AuthCheckRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSON(w, http.StatusOK, AuthCheckResponse{Allowed: false, Reason: "Invalid request"})
		return
	}

	if req.ConnectOpts.AuthToken == "" {
		writeJSON(w, http.StatusOK, AuthCheckResponse{Allowed: false, Reason: "No token provided"})
		return
	}

	identity, err := h.tokens.Validate(req.ConnectOpts.AuthToken)
	if err != nil {
		// Expired and forged tokens get the same reason on purpose.
		writeJSON(w, http.StatusOK, AuthCheckResponse{Allowed: false, Reason: "Invalid token"})
		return
	}

	result, err := h.access.CheckAccess(r.Context(), identity.UserID, identity.OrganizationID, req.ClientMetadata.Subject)
	if err != nil {
		writeJSON(w, http.StatusOK, AuthCheckResponse{Allowed: false, Reason: "Authorization check failed"})
		return
	}
	if !result.Allowed {
		writeJSON(w, http.StatusOK, AuthCheckResponse{Allowed: false, Reason: result.Reason})
		return
	}

	organization := result.OrganizationID
	if organization == "" {
		organization = identity.OrganizationID
	}
	writeJSON(w, http.StatusOK, AuthCheckResponse{
		Allowed:      true,
		User:         identity.UserID,
		Organization: organization,
	})
}

func decodeJSONBody(r *http.Request, out any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}
