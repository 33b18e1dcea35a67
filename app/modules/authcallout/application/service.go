package authcallout

import (
	"context"
	"fmt"
	"log/slog"

	calloutnats "github.com/propflow/messaging-relay/app/modules/authcallout/infrastructure/nats"
	"github.com/propflow/messaging-relay/app/modules/authcallout/infrastructure/permissions"
	"github.com/propflow/messaging-relay/internal/observability"
	"github.com/propflow/messaging-relay/internal/revocation"
	"github.com/propflow/messaging-relay/pkg/token"
)

// Denial reasons embedded in rejection responses. Authentication and
// authorization failures deliberately share vague wording so callers cannot
// probe which check failed.
const (
	reasonNoToken      = "No token provided"
	reasonInvalidToken = "Invalid token"
	reasonAccessDenied = "Access denied"
)

// AuthCalloutService implements the Service interface.
type AuthCalloutService struct {
	tokens            token.Provider
	permissionBuilder *permissions.Builder
	credentials       calloutnats.CredentialBuilder
	revoked           *revocation.Set
	logger            *slog.Logger
	metrics           *observability.Metrics
}

// NewService creates a new AuthCalloutService.
func NewService(
	tokens token.Provider,
	credentials calloutnats.CredentialBuilder,
	revoked *revocation.Set,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *AuthCalloutService {
	return &AuthCalloutService{
		tokens:            tokens,
		permissionBuilder: permissions.NewBuilder(),
		credentials:       credentials,
		revoked:           revoked,
		logger:            logger,
		metrics:           metrics,
	}
}

// HandleAuthRequest decides whether a connection attempt is admitted and with
// which permissions. Every outcome is returned as a signed authorization
// response; only credential-minting failures surface as errors.
func (s *AuthCalloutService) HandleAuthRequest(ctx context.Context, req *AuthRequest) (*AuthResponse, error) {
	if req.Token == "" {
		s.logger.WarnContext(ctx, "Auth request without token",
			slog.String("client_name", req.ClientName),
			slog.String("client_host", req.ClientHost),
		)
		return s.deny(req, "no_token", reasonNoToken)
	}

	identity, err := s.tokens.Validate(req.Token)
	if err != nil {
		s.logger.WarnContext(ctx, "Token validation failed",
			slog.Any("error", err),
			slog.String("client_host", req.ClientHost),
		)
		return s.deny(req, "invalid_token", reasonInvalidToken)
	}

	if identity.UserID == "" || identity.OrganizationID == "" {
		s.logger.WarnContext(ctx, "Token missing identity fields",
			slog.String("user_id", identity.UserID),
		)
		return s.deny(req, "incomplete_identity", reasonAccessDenied)
	}

	// A token listing zero channels attests the user has no read scope at
	// all; that is resolved upstream when the token is minted.
	if identity.AllowedChannels != nil && len(identity.AllowedChannels) == 0 {
		return s.deny(req, "no_channels", reasonAccessDenied)
	}

	if s.revoked.IsRevoked(identity.UserID) {
		s.logger.WarnContext(ctx, "Revoked user attempted to connect",
			slog.String("user_id", identity.UserID),
		)
		return s.deny(req, "revoked", reasonAccessDenied)
	}

	perms := s.computePermissions(identity)

	name := fmt.Sprintf("%s@%s", identity.UserID, identity.OrganizationID)
	userJWT, err := s.credentials.BuildUserJWT(req.UserNkey, name, perms)
	if err != nil {
		return nil, fmt.Errorf("failed to build user credential: %w", err)
	}

	signed, err := s.credentials.BuildAuthResponse(req.UserNkey, req.ServerID, userJWT, "")
	if err != nil {
		return nil, fmt.Errorf("failed to build authorization response: %w", err)
	}

	s.logger.InfoContext(ctx, "Connection authorized",
		slog.String("user_id", identity.UserID),
		slog.String("organization_id", identity.OrganizationID),
		slog.Int("channels", len(identity.AllowedChannels)),
	)
	s.metrics.AuthRequests.WithLabelValues("granted").Inc()

	return &AuthResponse{
		SignedResponse: signed,
		UserJWT:        userJWT,
	}, nil
}

// computePermissions picks the grant mode from the token shape: tokens
// listing channels get the named-channel grant, tokens without the field get
// the legacy user+organization grant.
func (s *AuthCalloutService) computePermissions(identity *token.Identity) *permissions.Permissions {
	if identity.AllowedChannels != nil {
		return s.permissionBuilder.Compute(identity.AllowedChannels, identity.OrganizationID)
	}
	return s.permissionBuilder.ComputeLegacy(identity.UserID, identity.OrganizationID)
}

func (s *AuthCalloutService) deny(req *AuthRequest, result, reason string) (*AuthResponse, error) {
	signed, err := s.credentials.BuildAuthResponse(req.UserNkey, req.ServerID, "", reason)
	if err != nil {
		return nil, fmt.Errorf("failed to build denial response: %w", err)
	}

	s.metrics.AuthRequests.WithLabelValues(result).Inc()
	return &AuthResponse{
		SignedResponse: signed,
		Error:          reason,
	}, nil
}

// RevokeUser denies new connections for userID until unrevoked.
func (s *AuthCalloutService) RevokeUser(userID string) {
	if s.revoked.Revoke(userID) {
		s.metrics.Revocations.Inc()
		s.logger.Info("User revoked for new connections", slog.String("user_id", userID))
	}
}

// UnrevokeUser restores userID's ability to connect.
func (s *AuthCalloutService) UnrevokeUser(userID string) {
	if s.revoked.Unrevoke(userID) {
		s.logger.Info("User revocation lifted", slog.String("user_id", userID))
	}
}
