package webservice

import (
	"context"
	"errors"

	channelsdomain "github.com/propflow/messaging-relay/app/modules/channels/domain"
)

var (
	// ErrUnauthenticated indicates a request with no valid session.
	ErrUnauthenticated = errors.New("authorization required")

	// ErrNoOrganizationSelected indicates an authenticated request that has
	// not selected an organization.
	ErrNoOrganizationSelected = errors.New("no organization selected")

	// ErrInvalidOrganizationSelection indicates a selected organization that
	// does not belong to the caller.
	ErrInvalidOrganizationSelection = errors.New("invalid organization selection")
)

// Principal is the resolved caller identity for one HTTP request.
type Principal struct {
	UserID         string
	OrganizationID string
}

// TokenGrant is the issued messaging credential returned to a client.
type TokenGrant struct {
	Token           string   `json:"token"`
	UserID          string   `json:"userId"`
	OrganizationID  string   `json:"organizationId"`
	AllowedChannels []string `json:"allowedChannels,omitempty"`
}

// ChannelList is the caller's current channel visibility.
type ChannelList struct {
	Channels       []channelsdomain.ChannelInfo `json:"channels"`
	UserID         string                       `json:"userId"`
	OrganizationID string                       `json:"organizationId"`
}

// Service defines the web tier operations backing the messaging endpoints.
type Service interface {
	// IssueToken mints a short-lived scoped application token for the
	// principal.
	IssueToken(ctx context.Context, principal *Principal) (*TokenGrant, error)

	// ListChannels reports the channels currently visible to the principal.
	ListChannels(ctx context.Context, principal *Principal) (*ChannelList, error)
}
