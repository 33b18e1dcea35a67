package authcallout

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/propflow/messaging-relay/internal/observability"
	"github.com/propflow/messaging-relay/internal/revocation"
	"github.com/propflow/messaging-relay/pkg/token"
	"github.com/propflow/messaging-relay/pkg/topic"
)

const testSecret = "test-secret-at-least-32-chars-long!!"

func newTestService(t *testing.T) (*AuthCalloutService, *fakeCredentialBuilder, *revocation.Set) {
	t.Helper()
	creds := &fakeCredentialBuilder{}
	revoked := revocation.NewSet()
	svc := NewService(
		token.NewProvider(testSecret),
		creds,
		revoked,
		slog.New(slog.DiscardHandler),
		observability.NewTestMetrics(),
	)
	return svc, creds, revoked
}

func mintToken(t *testing.T, identity *token.Identity, ttl time.Duration) string {
	t.Helper()
	p := token.NewProvider(testSecret)
	tok, err := p.Generate(identity, ttl)
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	return tok
}

func decodeResponse(t *testing.T, resp *AuthResponse) fakeResponse {
	t.Helper()
	var decoded fakeResponse
	if err := json.Unmarshal([]byte(resp.SignedResponse), &decoded); err != nil {
		t.Fatalf("failed to decode fake response: %v", err)
	}
	return decoded
}

func TestAuthCalloutService_HandleAuthRequest_Denials(t *testing.T) {
	identity := &token.Identity{UserID: "u1", OrganizationID: "org-1"}

	tests := []struct {
		name       string
		token      string
		revoke     string
		wantReason string
	}{
		{
			name:       "no token",
			token:      "",
			wantReason: "No token provided",
		},
		{
			name:       "malformed token",
			token:      "not.a.jwt",
			wantReason: "Invalid token",
		},
		{
			name: "forged token",
			token: func() string {
				p := token.NewProvider("a-completely-different-secret-here!!")
				tok, _ := p.Generate(identity, time.Hour)
				return tok
			}(),
			wantReason: "Invalid token",
		},
		{
			name:       "expired token",
			token:      "", // set below
			wantReason: "Invalid token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(t)
			tok := tt.token
			if tt.name == "expired token" {
				tok = mintToken(t, identity, -time.Hour)
			}

			resp, err := svc.HandleAuthRequest(context.Background(), &AuthRequest{
				UserNkey: "UUSER",
				ServerID: "NSERVER",
				Token:    tok,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if resp.Error != tt.wantReason {
				t.Errorf("expected reason %q, got %q", tt.wantReason, resp.Error)
			}
			decoded := decodeResponse(t, resp)
			if decoded.UserJWT != "" {
				t.Error("expected no credential in denial response")
			}
			if decoded.Error != tt.wantReason {
				t.Errorf("expected embedded reason %q, got %q", tt.wantReason, decoded.Error)
			}
		})
	}
}

func TestAuthCalloutService_HandleAuthRequest_IdentityChecks(t *testing.T) {
	tests := []struct {
		name     string
		identity *token.Identity
	}{
		{"missing user id", &token.Identity{OrganizationID: "org-1"}},
		{"missing organization id", &token.Identity{UserID: "u1"}},
		{"empty allowed channels", &token.Identity{UserID: "u1", OrganizationID: "org-1", AllowedChannels: []string{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(t)
			resp, err := svc.HandleAuthRequest(context.Background(), &AuthRequest{
				UserNkey: "UUSER",
				ServerID: "NSERVER",
				Token:    mintToken(t, tt.identity, time.Hour),
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Error != "Access denied" {
				t.Errorf("expected Access denied, got %q", resp.Error)
			}
		})
	}
}

func TestAuthCalloutService_HandleAuthRequest_NamedChannels(t *testing.T) {
	svc, creds, _ := newTestService(t)

	resp, err := svc.HandleAuthRequest(context.Background(), &AuthRequest{
		UserNkey: "UUSER",
		ServerID: "NSERVER",
		Token: mintToken(t, &token.Identity{
			UserID:          "u1",
			OrganizationID:  "org-1",
			AllowedChannels: []string{"ticket-changes"},
		}, time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Error != "" {
		t.Fatalf("expected grant, got denial %q", resp.Error)
	}

	decoded := decodeResponse(t, resp)
	if decoded.UserNkey != "UUSER" || decoded.ServerID != "NSERVER" {
		t.Errorf("response not addressed correctly: %+v", decoded)
	}
	if decoded.UserJWT == "" {
		t.Error("expected a user credential")
	}

	pub := creds.lastPerms.Publish.Allow
	if !topic.IsAllowed("_MESSAGING.subscribe.ticket-changes.org-1", pub) {
		t.Error("expected relay subscribe for granted channel")
	}
	if topic.IsAllowed("_MESSAGING.subscribe.ticket-changes.org-2", pub) {
		t.Error("expected foreign org to be denied")
	}
	if got := creds.lastPerms.Subscribe.Allow; len(got) != 1 || got[0] != "_INBOX.>" {
		t.Errorf("expected inbox-only sub grant, got %v", got)
	}
	if creds.lastName != "u1@org-1" {
		t.Errorf("unexpected credential name %q", creds.lastName)
	}
}

func TestAuthCalloutService_HandleAuthRequest_LegacyMode(t *testing.T) {
	svc, creds, _ := newTestService(t)

	resp, err := svc.HandleAuthRequest(context.Background(), &AuthRequest{
		UserNkey: "UUSER",
		ServerID: "NSERVER",
		Token: mintToken(t, &token.Identity{
			UserID:         "u1",
			OrganizationID: "org-1",
		}, time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Error != "" {
		t.Fatalf("expected grant, got denial %q", resp.Error)
	}

	pub := creds.lastPerms.Publish.Allow
	if !topic.IsAllowed("_MESSAGING.subscribe.user.u1.notification", pub) {
		t.Error("expected own user channel to be allowed")
	}
	if !topic.IsAllowed("_MESSAGING.subscribe.organization.org-1.ticket", pub) {
		t.Error("expected own organization channel to be allowed")
	}
	if topic.IsAllowed("_MESSAGING.subscribe.user.u2.notification", pub) {
		t.Error("expected foreign user channel to be denied")
	}
}

func TestAuthCalloutService_Revocation(t *testing.T) {
	svc, _, revoked := newTestService(t)
	tok := mintToken(t, &token.Identity{UserID: "u1", OrganizationID: "org-1"}, time.Hour)
	req := &AuthRequest{UserNkey: "UUSER", ServerID: "NSERVER", Token: tok}

	svc.RevokeUser("u1")
	svc.RevokeUser("u1") // idempotent
	if !revoked.IsRevoked("u1") {
		t.Fatal("expected u1 to be revoked")
	}

	resp, err := svc.HandleAuthRequest(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Error != "Access denied" {
		t.Errorf("expected revoked user to be denied, got %q", resp.Error)
	}

	svc.UnrevokeUser("u1")
	resp, err = svc.HandleAuthRequest(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Error != "" {
		t.Errorf("expected unrevoked user to connect, got %q", resp.Error)
	}
}
