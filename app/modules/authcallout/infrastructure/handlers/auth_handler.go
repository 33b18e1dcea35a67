// Package handlers wires the auth callout service to the broker's system
// auth subject.
package handlers

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/trace"

	authcallout "github.com/propflow/messaging-relay/app/modules/authcallout/application"
	calloutnats "github.com/propflow/messaging-relay/app/modules/authcallout/infrastructure/nats"
)

// AuthHandler handles broker auth callout messages.
type AuthHandler struct {
	service authcallout.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service authcallout.Service, logger *slog.Logger, tracer trace.Tracer) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

// HandleAuthCallout processes one auth callout request. The request body is a
// signed token from the server; the response must always be a signed
// authorization response, so decode failures are answered with a generic
// denial rather than silence.
func (h *AuthHandler) HandleAuthCallout(msg *nats.Msg) {
	ctx, span := h.tracer.Start(context.Background(), "AuthHandler.HandleAuthCallout")
	defer span.End()

	h.logger.DebugContext(ctx, "Received auth callout request",
		slog.String("subject", msg.Subject),
		slog.Int("data_length", len(msg.Data)),
	)

	claims, err := calloutnats.DecodeAuthorizationRequest(string(msg.Data))
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to decode auth request",
			slog.Any("error", err),
		)
		// Without the request claims there is no user nkey to address a
		// signed denial to; an empty reply still unblocks the server.
		if err := msg.Respond(nil); err != nil {
			h.logger.ErrorContext(ctx, "Failed to reply to undecodable auth request", slog.Any("error", err))
		}
		return
	}

	req := &authcallout.AuthRequest{
		UserNkey:   claims.Nats.UserNkey,
		ServerID:   claims.Nats.ServerID.ID,
		Token:      claims.Nats.ConnectOpts.ApplicationToken(),
		ClientName: claims.Nats.ConnectOpts.Name,
		ClientHost: claims.Nats.ClientInfo.Host,
	}

	resp, err := h.service.HandleAuthRequest(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "Auth request processing failed",
			slog.Any("error", err),
		)
		if err := msg.Respond(nil); err != nil {
			h.logger.ErrorContext(ctx, "Failed to reply after processing failure", slog.Any("error", err))
		}
		return
	}

	if err := msg.Respond([]byte(resp.SignedResponse)); err != nil {
		h.logger.ErrorContext(ctx, "Failed to send auth response",
			slog.Any("error", err),
		)
		return
	}

	if resp.Error != "" {
		h.logger.WarnContext(ctx, "Auth request denied",
			slog.String("reason", resp.Error),
			slog.String("client_name", req.ClientName),
		)
	}
}
