// Package app assembles the messaging relay service: broker connection,
// auth callout, subscription relay, web endpoints and observability.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/propflow/messaging-relay/app/modules/authcallout"
	channelsdomain "github.com/propflow/messaging-relay/app/modules/channels/domain"
	"github.com/propflow/messaging-relay/app/modules/relay"
	"github.com/propflow/messaging-relay/app/modules/web"
	webhandlers "github.com/propflow/messaging-relay/app/modules/web/infrastructure/handlers"
	"github.com/propflow/messaging-relay/config"
	"github.com/propflow/messaging-relay/internal/observability"
	"github.com/propflow/messaging-relay/internal/revocation"
	"github.com/propflow/messaging-relay/pkg/token"
)

// Dependencies are the host-application collaborators. The relay and auth
// callout run without them; the HTTP endpoints are only mounted when both
// Sessions and Directory are provided.
type Dependencies struct {
	// Sessions authenticates HTTP requests and resolves the selected
	// organization.
	Sessions webhandlers.SessionResolver

	// Directory answers identity and membership questions for channel
	// access decisions.
	Directory channelsdomain.Directory

	// ConfigureChannels registers the host's named channels. Without it the
	// service runs with the per-entity user/organization channels only.
	ConfigureChannels func(*channelsdomain.Registry) error
}

// App is the assembled service.
type App struct {
	cfg           *config.Config
	logger        *slog.Logger
	nc            *nats.Conn
	sysConn       *nats.Conn
	authCallout   *authcallout.Module
	relay         *relay.Module
	web           *web.Module
	httpServer    *http.Server
	metricsServer *observability.MetricsServer
}

// NewApp wires every module together.
func NewApp(ctx context.Context, cfg *config.Config, deps Dependencies) (*App, error) {
	logger := observability.NewLogger(cfg.Observability.Environment)

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(promRegistry)

	opts := []nats.Option{
		nats.Name("messaging-relay"),
		nats.MaxReconnects(-1),
	}
	if cfg.NATS.User != "" {
		opts = append(opts, nats.UserInfo(cfg.NATS.User, cfg.NATS.Password))
	}
	nc, err := nats.Connect(cfg.NATS.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	var sysConn *nats.Conn
	if cfg.NATS.SystemUser != "" {
		sysConn, err = nats.Connect(cfg.NATS.URL,
			nats.Name("messaging-relay-system"),
			nats.MaxReconnects(-1),
			nats.UserInfo(cfg.NATS.SystemUser, cfg.NATS.SystemPassword),
		)
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("failed to connect to broker system account: %w", err)
		}
	}

	tokens := token.NewProvider(cfg.JWT.Secret)
	revoked := revocation.NewSet()

	channelRegistry := channelsdomain.NewRegistry()
	if deps.ConfigureChannels != nil {
		if err := deps.ConfigureChannels(channelRegistry); err != nil {
			nc.Close()
			return nil, fmt.Errorf("failed to configure channels: %w", err)
		}
	}

	var authCalloutModule *authcallout.Module
	if cfg.AuthCallout.Enabled {
		authCalloutModule, err = authcallout.NewModule(ctx, cfg, nc, tokens, revoked, logger, metrics)
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("failed to initialize auth callout module: %w", err)
		}
	}

	relayModule := relay.NewModule(ctx, nc, sysConn, channelRegistry, revoked, logger, metrics)

	var webModule *web.Module
	var httpServer *http.Server
	if deps.Sessions != nil && deps.Directory != nil {
		access := &channelsdomain.Access{Registry: channelRegistry, Directory: deps.Directory}
		httpRouter := chi.NewRouter()
		webModule = web.NewModule(ctx, cfg, tokens, access, deps.Sessions, httpRouter, logger)
		httpServer = &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           httpRouter,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	var metricsServer *observability.MetricsServer
	if cfg.Observability.MetricsAddress != "" {
		metricsServer = observability.NewMetricsServer(cfg.Observability.MetricsAddress, promRegistry, logger)
	}

	return &App{
		cfg:           cfg,
		logger:        logger,
		nc:            nc,
		sysConn:       sysConn,
		authCallout:   authCalloutModule,
		relay:         relayModule,
		web:           webModule,
		httpServer:    httpServer,
		metricsServer: metricsServer,
	}, nil
}

// Run starts every module and blocks until the context is cancelled, then
// shuts everything down in order.
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	if a.authCallout != nil {
		wg.Add(1)
		go a.authCallout.Run(ctx, &wg)
	}

	wg.Add(1)
	go a.relay.Run(ctx, &wg)

	if a.metricsServer != nil {
		go func() {
			if err := a.metricsServer.Start(); err != nil {
				a.logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	if a.httpServer != nil {
		go func() {
			a.logger.Info("HTTP server listening", "addr", a.httpServer.Addr)
			if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.logger.Error("HTTP server failed", "error", err)
			}
		}()
	}

	a.logger.InfoContext(ctx, "Messaging relay service started",
		"auth_callout_enabled", a.cfg.AuthCallout.Enabled,
		"environment", a.cfg.Observability.Environment,
	)

	<-ctx.Done()
	a.logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Error shutting down HTTP server", "error", err)
		}
	}
	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Error shutting down metrics server", "error", err)
		}
	}

	if a.authCallout != nil {
		if err := a.authCallout.Close(); err != nil {
			a.logger.Error("Error closing auth callout module", "error", err)
		}
	}
	if err := a.relay.Close(); err != nil {
		a.logger.Error("Error closing relay module", "error", err)
	}

	wg.Wait()

	if err := a.nc.Drain(); err != nil {
		a.logger.Error("Error draining broker connection", "error", err)
	}
	if a.sysConn != nil {
		a.sysConn.Close()
	}

	a.logger.Info("Messaging relay service stopped")
	return nil
}
