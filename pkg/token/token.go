// Package token issues and validates the signed identity tokens clients
// present when connecting to the message broker.
package token

import "time"

// Identity carries the authenticated principal a token attests to.
type Identity struct {
	UserID          string
	OrganizationID  string
	AllowedChannels []string
	IssuedAt        time.Time
	ExpiresAt       time.Time
}

// Provider defines the interface for identity token operations.
type Provider interface {
	// Generate creates a signed token for the given identity.
	Generate(identity *Identity, ttl time.Duration) (string, error)

	// Validate validates a token and returns the identity if valid.
	Validate(tokenString string) (*Identity, error)
}
