// Package webservice backs the HTTP messaging endpoints: scoped token
// minting and channel discovery for authenticated sessions.
package webservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	channelsdomain "github.com/propflow/messaging-relay/app/modules/channels/domain"
	"github.com/propflow/messaging-relay/pkg/token"
)

// MessagingService issues scoped tokens and lists channel visibility.
type MessagingService struct {
	tokens   token.Provider
	access   *channelsdomain.Access
	tokenTTL time.Duration
	logger   *slog.Logger
}

// NewService creates the web messaging service.
func NewService(
	tokens token.Provider,
	access *channelsdomain.Access,
	tokenTTL time.Duration,
	logger *slog.Logger,
) *MessagingService {
	return &MessagingService{
		tokens:   tokens,
		access:   access,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// IssueToken consults the access oracle for the principal's channel
// visibility and mints a scoped token. When named channels are visible the
// token carries them; otherwise it falls back to the per-entity
// user/organization scoping.
func (s *MessagingService) IssueToken(ctx context.Context, principal *Principal) (*TokenGrant, error) {
	channels, err := s.access.AvailableChannels(ctx, principal.UserID, principal.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve channel access: %w", err)
	}

	named := namedChannels(channels)
	identity := &token.Identity{
		UserID:          principal.UserID,
		OrganizationID:  principal.OrganizationID,
		AllowedChannels: named,
	}

	signed, err := s.tokens.Generate(identity, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.InfoContext(ctx, "Issued messaging token",
		slog.String("user_id", principal.UserID),
		slog.String("organization_id", principal.OrganizationID),
		slog.Int("named_channels", len(named)),
	)

	return &TokenGrant{
		Token:           signed,
		UserID:          principal.UserID,
		OrganizationID:  principal.OrganizationID,
		AllowedChannels: named,
	}, nil
}

// ListChannels reports the channels currently visible to the principal.
func (s *MessagingService) ListChannels(ctx context.Context, principal *Principal) (*ChannelList, error) {
	channels, err := s.access.AvailableChannels(ctx, principal.UserID, principal.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve channel access: %w", err)
	}

	return &ChannelList{
		Channels:       channels,
		UserID:         principal.UserID,
		OrganizationID: principal.OrganizationID,
	}, nil
}

// namedChannels filters out the built-in per-entity channels, leaving only
// registry-backed named channels. Nil when none are visible, which keeps
// issued tokens in legacy mode.
func namedChannels(channels []channelsdomain.ChannelInfo) []string {
	var named []string
	for _, ch := range channels {
		if ch.Name == channelsdomain.UserChannelPrefix || ch.Name == channelsdomain.OrganizationChannelPrefix {
			continue
		}
		named = append(named, ch.Name)
	}
	return named
}
