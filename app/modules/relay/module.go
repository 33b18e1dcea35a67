package relay

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	channelsdomain "github.com/propflow/messaging-relay/app/modules/channels/domain"
	relayservice "github.com/propflow/messaging-relay/app/modules/relay/application"
	relayhandlers "github.com/propflow/messaging-relay/app/modules/relay/infrastructure/handlers"
	relaynats "github.com/propflow/messaging-relay/app/modules/relay/infrastructure/nats"
	relayrouter "github.com/propflow/messaging-relay/app/modules/relay/infrastructure/router"
	"github.com/propflow/messaging-relay/internal/observability"
	"github.com/propflow/messaging-relay/internal/revocation"
)

// Module represents the subscription relay module.
type Module struct {
	service    relayservice.Service
	router     *relayrouter.Router
	cancelFunc context.CancelFunc
	logger     *slog.Logger
}

// NewModule creates the relay module on an established broker connection.
// The revocation set is shared with the auth callout module. The system
// account connection is optional; when present the module observes client
// disconnect events and sweeps relays abandoned by closed connections.
func NewModule(
	ctx context.Context,
	nc *nats.Conn,
	sysConn *nats.Conn,
	registry *channelsdomain.Registry,
	revoked *revocation.Set,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Module {
	logger.InfoContext(ctx, "Initializing relay module")

	var interest relayservice.InterestChecker
	if sysConn != nil {
		interest = relaynats.NewSubscriptionInterest(sysConn)
	}

	service := relayservice.NewService(
		relaynats.NewBroker(nc),
		registry,
		revoked,
		interest,
		logger,
		metrics,
	)
	handlers := relayhandlers.NewRelayHandlers(service, logger, observability.NewTracer("relay"))
	router := relayrouter.NewRouter(handlers, nc, sysConn)

	return &Module{
		service: service,
		router:  router,
		logger:  logger,
	}
}

// Run starts the relay control plane and blocks until the context is
// cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if err := m.router.Start(); err != nil {
		m.logger.ErrorContext(ctx, "Failed to start relay router",
			"error", err,
		)
		return
	}

	m.logger.InfoContext(ctx, "Relay module started",
		"queue_group", relayrouter.QueueGroup,
	)

	<-ctx.Done()
	m.logger.InfoContext(ctx, "Relay module goroutine stopped")
}

// Close stops the control plane and tears down every live relay.
func (m *Module) Close() error {
	m.logger.Info("Stopping relay module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	err := m.router.Stop()
	m.service.Shutdown(context.Background())

	if err != nil {
		m.logger.Error("Error stopping relay router", "error", err)
		return err
	}

	m.logger.Info("Relay module stopped")
	return nil
}

// GetService returns the relay service for use by other modules.
func (m *Module) GetService() relayservice.Service {
	return m.service
}
