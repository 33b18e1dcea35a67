package webhandlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	channelsdomain "github.com/propflow/messaging-relay/app/modules/channels/domain"
	webservice "github.com/propflow/messaging-relay/app/modules/web/application"
	"github.com/propflow/messaging-relay/pkg/token"
)

const testSecret = "web-test-secret-0123456789abcdef"

type testEnv struct {
	handlers  *WebHandlers
	authCheck *AuthCheckHandler
	sessions  *fakeSessions
	directory *fakeDirectory
	tokens    token.Provider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	directory := newFakeDirectory()
	registry := channelsdomain.NewRegistry()
	if _, err := registry.Register("ticket-changes", channelsdomain.ChannelOptions{
		Access: channelsdomain.RequiresPermission{Name: "canManageTickets"},
	}); err != nil {
		t.Fatalf("failed to register channel: %v", err)
	}

	access := &channelsdomain.Access{Registry: registry, Directory: directory}
	tokens := token.NewProvider(testSecret)
	logger := slog.New(slog.DiscardHandler)
	sessions := &fakeSessions{}
	service := webservice.NewService(tokens, access, time.Hour, logger)

	return &testEnv{
		handlers:  NewWebHandlers(service, sessions, logger),
		authCheck: NewAuthCheckHandler(tokens, access),
		sessions:  sessions,
		directory: directory,
		tokens:    tokens,
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response body %q: %v", rec.Body.String(), err)
	}
}

func errorType(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	decodeBody(t, rec, &body)
	if len(body.Errors) != 1 {
		t.Fatalf("expected exactly one error, got %d", len(body.Errors))
	}
	if body.Errors[0].Name != "GQLError" {
		t.Errorf("error name = %q, want GQLError", body.Errors[0].Name)
	}
	return body.Errors[0].Extensions.Type
}

func TestHandleTokenSessionErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"unauthenticated", webservice.ErrUnauthenticated, http.StatusUnauthorized, "AUTHORIZATION_REQUIRED"},
		{"no organization", webservice.ErrNoOrganizationSelected, http.StatusUnauthorized, "NO_ORGANIZATION_SELECTED"},
		{"foreign organization", webservice.ErrInvalidOrganizationSelection, http.StatusForbidden, "INVALID_ORGANIZATION_SELECTION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.sessions.err = tt.err

			rec := httptest.NewRecorder()
			env.handlers.HandleToken(rec, httptest.NewRequest(http.MethodGet, "/messaging/token", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := errorType(t, rec); got != tt.wantType {
				t.Errorf("error type = %q, want %q", got, tt.wantType)
			}
		})
	}
}

func TestHandleTokenSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.directory.addEmployee("user-1", "org-1")
	env.sessions.principal = &webservice.Principal{UserID: "user-1", OrganizationID: "org-1"}

	rec := httptest.NewRecorder()
	env.handlers.HandleToken(rec, httptest.NewRequest(http.MethodGet, "/messaging/token", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var grant webservice.TokenGrant
	decodeBody(t, rec, &grant)
	if grant.UserID != "user-1" || grant.OrganizationID != "org-1" {
		t.Errorf("grant identity = %s/%s, want user-1/org-1", grant.UserID, grant.OrganizationID)
	}

	identity, err := env.tokens.Validate(grant.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if identity.UserID != "user-1" || identity.OrganizationID != "org-1" {
		t.Errorf("token identity = %s/%s, want user-1/org-1", identity.UserID, identity.OrganizationID)
	}
	// Plain employee without channel permissions gets a legacy-mode token.
	if identity.AllowedChannels != nil {
		t.Errorf("token allowedChannels = %v, want absent", identity.AllowedChannels)
	}
}

func TestHandleTokenIncludesPermittedChannels(t *testing.T) {
	env := newTestEnv(t)
	env.directory.grant("user-1", "org-1", "canManageTickets")
	env.sessions.principal = &webservice.Principal{UserID: "user-1", OrganizationID: "org-1"}

	rec := httptest.NewRecorder()
	env.handlers.HandleToken(rec, httptest.NewRequest(http.MethodGet, "/messaging/token", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var grant webservice.TokenGrant
	decodeBody(t, rec, &grant)
	if len(grant.AllowedChannels) != 1 || grant.AllowedChannels[0] != "ticket-changes" {
		t.Errorf("allowedChannels = %v, want [ticket-changes]", grant.AllowedChannels)
	}
}

func TestHandleChannels(t *testing.T) {
	env := newTestEnv(t)
	env.directory.addEmployee("user-1", "org-1")
	env.sessions.principal = &webservice.Principal{UserID: "user-1", OrganizationID: "org-1"}

	rec := httptest.NewRecorder()
	env.handlers.HandleChannels(rec, httptest.NewRequest(http.MethodGet, "/messaging/channels", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var list webservice.ChannelList
	decodeBody(t, rec, &list)
	if list.UserID != "user-1" || list.OrganizationID != "org-1" {
		t.Errorf("list identity = %s/%s, want user-1/org-1", list.UserID, list.OrganizationID)
	}

	names := make(map[string]bool)
	for _, ch := range list.Channels {
		names[ch.Name] = true
	}
	if !names["user"] || !names["organization"] {
		t.Errorf("channels = %v, want user and organization present", names)
	}
	if len(list.Channels) != 2 {
		t.Errorf("len(channels) = %d, want 2 for a plain employee", len(list.Channels))
	}
}

func authCheckRequest(t *testing.T, env *testEnv, authToken, subject string) *AuthCheckResponse {
	t.Helper()

	var req AuthCheckRequest
	req.ConnectOpts.AuthToken = authToken
	req.ClientMetadata.Subject = subject
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	rec := httptest.NewRecorder()
	env.authCheck.HandleAuthCheck(rec, httptest.NewRequest(http.MethodPost, "/messaging/auth", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp AuthCheckResponse
	decodeBody(t, rec, &resp)
	return &resp
}

func TestHandleAuthCheck(t *testing.T) {
	env := newTestEnv(t)
	env.directory.grant("user-1", "org-1", "canManageTickets")
	env.directory.addEmployee("user-2", "org-1")

	mint := func(p token.Provider, userID, orgID string, ttl time.Duration) string {
		t.Helper()
		signed, err := p.Generate(&token.Identity{UserID: userID, OrganizationID: orgID}, ttl)
		if err != nil {
			t.Fatalf("failed to mint token: %v", err)
		}
		return signed
	}

	t.Run("no token", func(t *testing.T) {
		resp := authCheckRequest(t, env, "", "ticket-changes.test.message")
		if resp.Allowed || resp.Reason != "No token provided" {
			t.Errorf("resp = %+v, want No token provided", resp)
		}
	})

	t.Run("forged token", func(t *testing.T) {
		forged := mint(token.NewProvider("wrong-secret"), "user-1", "org-1", time.Hour)
		resp := authCheckRequest(t, env, forged, "ticket-changes.test.message")
		if resp.Allowed || resp.Reason != "Invalid token" {
			t.Errorf("resp = %+v, want Invalid token", resp)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		expired := mint(env.tokens, "user-1", "org-1", -time.Minute)
		resp := authCheckRequest(t, env, expired, "ticket-changes.test.message")
		if resp.Allowed || resp.Reason != "Invalid token" {
			t.Errorf("resp = %+v, want Invalid token", resp)
		}
	})

	t.Run("permission denied", func(t *testing.T) {
		tok := mint(env.tokens, "user-2", "org-1", time.Hour)
		resp := authCheckRequest(t, env, tok, "ticket-changes.test.message")
		if resp.Allowed || resp.Reason != "Permission denied" {
			t.Errorf("resp = %+v, want Permission denied", resp)
		}
	})

	t.Run("allowed", func(t *testing.T) {
		tok := mint(env.tokens, "user-1", "org-1", time.Hour)
		resp := authCheckRequest(t, env, tok, "ticket-changes.test.message")
		if !resp.Allowed {
			t.Fatalf("resp = %+v, want allowed", resp)
		}
		if resp.User != "user-1" || resp.Organization != "org-1" {
			t.Errorf("resp identity = %s/%s, want user-1/org-1", resp.User, resp.Organization)
		}
	})
}
