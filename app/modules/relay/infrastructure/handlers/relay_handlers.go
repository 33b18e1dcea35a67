// Package relayhandlers decodes relay control messages off the broker and
// dispatches them to the relay service.
package relayhandlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/trace"

	relayservice "github.com/propflow/messaging-relay/app/modules/relay/application"
	"github.com/propflow/messaging-relay/pkg/control"
)

// Admin actions carried in _MESSAGING.admin.<action>.<userId> subjects.
const (
	AdminActionRevoke   = "revoke"
	AdminActionUnrevoke = "unrevoke"
)

// RelayHandlers owns the NATS-facing side of the relay control plane.
type RelayHandlers struct {
	service relayservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewRelayHandlers creates the control message handlers.
func NewRelayHandlers(service relayservice.Service, logger *slog.Logger, tracer trace.Tracer) *RelayHandlers {
	return &RelayHandlers{service: service, logger: logger, tracer: tracer}
}

// HandleSubscribe answers a relay-subscribe request. Every request gets a
// structured response; a malformed payload never crashes the handler.
func (h *RelayHandlers) HandleSubscribe(msg *nats.Msg) {
	ctx, span := h.tracer.Start(context.Background(), "RelayHandlers.HandleSubscribe")
	defer span.End()

	var req relayservice.SubscribeRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		h.logger.WarnContext(ctx, "Malformed subscribe payload",
			slog.String("subject", msg.Subject),
		)
		h.respond(msg, &relayservice.Result{Status: "error", Reason: "invalid request payload"})
		return
	}
	req.Subject = msg.Subject

	h.respond(msg, h.service.Subscribe(ctx, &req))
}

// HandleUnsubscribe releases one relay. The relay id rides in the subject;
// the payload is ignored. Fire-and-forget publishes get no response.
func (h *RelayHandlers) HandleUnsubscribe(msg *nats.Msg) {
	ctx, span := h.tracer.Start(context.Background(), "RelayHandlers.HandleUnsubscribe")
	defer span.End()

	relayID, ok := RelayIDFromSubject(msg.Subject)
	if !ok {
		h.logger.WarnContext(ctx, "Malformed unsubscribe subject",
			slog.String("subject", msg.Subject),
		)
		h.respond(msg, &relayservice.Result{Status: "error", Reason: "invalid unsubscribe subject"})
		return
	}

	h.service.Unsubscribe(ctx, relayID)
	h.respond(msg, &relayservice.Result{Status: "ok"})
}

// HandleAdmin applies a revocation broadcast to local state. These subjects
// are publishable only by server-origin credentials, so the content is
// trusted.
func (h *RelayHandlers) HandleAdmin(msg *nats.Msg) {
	ctx, span := h.tracer.Start(context.Background(), "RelayHandlers.HandleAdmin")
	defer span.End()

	action, userID, ok := AdminActionFromSubject(msg.Subject)
	if !ok {
		h.logger.WarnContext(ctx, "Unrecognized admin subject",
			slog.String("subject", msg.Subject),
		)
		return
	}

	switch action {
	case AdminActionRevoke:
		h.service.RevokeUser(ctx, userID)
	case AdminActionUnrevoke:
		h.service.UnrevokeUser(ctx, userID)
	}
}

// HandleDisconnect reacts to a broker client-disconnect event by sweeping
// relays whose deliver inbox lost its listener. The event payload identifies
// the closed connection, but relays are attributed by interest, so the sweep
// covers every abandoned inbox regardless of which client the event names.
func (h *RelayHandlers) HandleDisconnect(msg *nats.Msg) {
	ctx, span := h.tracer.Start(context.Background(), "RelayHandlers.HandleDisconnect")
	defer span.End()

	if torn := h.service.SweepClosed(ctx); torn > 0 {
		h.logger.InfoContext(ctx, "Disconnect sweep tore down relays",
			slog.String("event_subject", msg.Subject),
			slog.Int("relays_torn_down", torn),
		)
	}
}

func (h *RelayHandlers) respond(msg *nats.Msg, res *relayservice.Result) {
	if msg.Reply == "" {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		h.logger.Error("Failed to encode relay response", "error", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		h.logger.Error("Failed to respond to relay request",
			"subject", msg.Subject,
			"error", err,
		)
	}
}

// RelayIDFromSubject extracts the relay id from an unsubscribe subject.
func RelayIDFromSubject(subject string) (string, bool) {
	tokens := strings.Split(subject, ".")
	if len(tokens) != 3 || tokens[0] != control.Prefix || tokens[1] != "unsubscribe" || tokens[2] == "" {
		return "", false
	}
	return tokens[2], true
}

// AdminActionFromSubject extracts the action and target user id from an
// admin broadcast subject.
func AdminActionFromSubject(subject string) (action, userID string, ok bool) {
	tokens := strings.Split(subject, ".")
	if len(tokens) != 4 || tokens[0] != control.Prefix || tokens[1] != "admin" || tokens[3] == "" {
		return "", "", false
	}
	if tokens[2] != AdminActionRevoke && tokens[2] != AdminActionUnrevoke {
		return "", "", false
	}
	return tokens[2], tokens[3], true
}
