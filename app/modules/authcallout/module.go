package authcallout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nkeys"

	calloutservice "github.com/propflow/messaging-relay/app/modules/authcallout/application"
	callouthandlers "github.com/propflow/messaging-relay/app/modules/authcallout/infrastructure/handlers"
	calloutnats "github.com/propflow/messaging-relay/app/modules/authcallout/infrastructure/nats"
	"github.com/propflow/messaging-relay/config"
	"github.com/propflow/messaging-relay/internal/observability"
	"github.com/propflow/messaging-relay/internal/revocation"
	"github.com/propflow/messaging-relay/pkg/token"
)

// AuthCalloutSubject is the default NATS subject for auth callout requests.
const AuthCalloutSubject = "$SYS.REQ.USER.AUTH"

// Module wires the auth callout service to the broker.
type Module struct {
	config     *config.Config
	nc         *nats.Conn
	service    calloutservice.Service
	handler    *callouthandlers.AuthHandler
	sub        *nats.Subscription
	cancelFunc context.CancelFunc
	logger     *slog.Logger
}

// NewModule creates a new auth callout module.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	nc *nats.Conn,
	tokens token.Provider,
	revoked *revocation.Set,
	logger *slog.Logger,
	metrics *observability.Metrics,
) (*Module, error) {
	logger.InfoContext(ctx, "Initializing auth callout module")

	// The issuer seed must match auth_callout.issuer in the broker config.
	signingKey, err := nkeys.FromSeed([]byte(cfg.AuthCallout.IssuerSeed))
	if err != nil {
		return nil, fmt.Errorf("failed to parse issuer seed: %w", err)
	}

	issuerAccount := cfg.AuthCallout.IssuerAccount
	if issuerAccount == "" {
		issuerAccount, err = signingKey.PublicKey()
		if err != nil {
			return nil, fmt.Errorf("failed to derive issuer account: %w", err)
		}
	}

	credentials := calloutnats.NewCredentialBuilder(signingKey, issuerAccount)
	service := calloutservice.NewService(tokens, credentials, revoked, logger, metrics)
	handler := callouthandlers.NewAuthHandler(service, logger, observability.NewTracer("authcallout"))

	return &Module{
		config:  cfg,
		nc:      nc,
		service: service,
		handler: handler,
		logger:  logger,
	}, nil
}

// Run subscribes to the auth callout subject and blocks until the context
// is cancelled. Every instance subscribes without a queue group so each
// broker node can reach a responder.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	subject := m.config.AuthCallout.Subject
	if subject == "" {
		subject = AuthCalloutSubject
	}

	sub, err := m.nc.Subscribe(subject, m.handler.HandleAuthCallout)
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to subscribe to auth callout subject",
			"subject", subject,
			"error", err,
		)
		return
	}
	m.sub = sub

	m.logger.InfoContext(ctx, "Auth callout module started", "subject", subject)

	<-ctx.Done()
	m.logger.InfoContext(ctx, "Auth callout module goroutine stopped")
}

// Close stops the module and drops its subscription.
func (m *Module) Close() error {
	m.logger.Info("Stopping auth callout module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	if m.sub != nil {
		if err := m.sub.Unsubscribe(); err != nil {
			return fmt.Errorf("error unsubscribing auth callout: %w", err)
		}
	}

	return nil
}

// GetService returns the auth callout service for use by other modules.
func (m *Module) GetService() calloutservice.Service {
	return m.service
}
