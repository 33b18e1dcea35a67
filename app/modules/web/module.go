package web

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"

	channelsdomain "github.com/propflow/messaging-relay/app/modules/channels/domain"
	webservice "github.com/propflow/messaging-relay/app/modules/web/application"
	webhandlers "github.com/propflow/messaging-relay/app/modules/web/infrastructure/handlers"
	"github.com/propflow/messaging-relay/config"
	"github.com/propflow/messaging-relay/pkg/token"
)

// Module represents the web tier: token minting and channel discovery over
// HTTP.
type Module struct {
	service  *webservice.MessagingService
	handlers *webhandlers.WebHandlers
	logger   *slog.Logger
}

// NewModule creates the web module and mounts its routes.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	tokens token.Provider,
	access *channelsdomain.Access,
	sessions webhandlers.SessionResolver,
	httpRouter chi.Router,
	logger *slog.Logger,
) *Module {
	logger.InfoContext(ctx, "Initializing web module")

	service := webservice.NewService(tokens, access, cfg.JWT.DefaultTTL, logger)
	handlers := webhandlers.NewWebHandlers(service, sessions, logger)
	authCheck := webhandlers.NewAuthCheckHandler(tokens, access)

	if httpRouter != nil {
		limiter := webhandlers.NewIPRateLimiter(5, 10)
		httpRouter.Route("/messaging", func(r chi.Router) {
			r.Use(webhandlers.CORSMiddleware(cfg.HTTP.AllowedOrigins))
			r.Use(webhandlers.RateLimitMiddleware(limiter))

			r.Get("/token", handlers.HandleToken)
			r.Get("/channels", handlers.HandleChannels)
			r.Post("/auth", authCheck.HandleAuthCheck)
		})
	}

	return &Module{
		service:  service,
		handlers: handlers,
		logger:   logger,
	}
}

// GetService returns the web messaging service.
func (m *Module) GetService() webservice.Service {
	return m.service
}
