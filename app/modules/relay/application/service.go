// Package relayservice implements the subscription relay: it turns validated
// control requests into broker subscriptions that forward domain events into
// per-client private inboxes.
package relayservice

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	channelsdomain "github.com/propflow/messaging-relay/app/modules/channels/domain"
	relaydomain "github.com/propflow/messaging-relay/app/modules/relay/domain"
	"github.com/propflow/messaging-relay/internal/observability"
	"github.com/propflow/messaging-relay/internal/revocation"
)

const (
	statusOK    = "ok"
	statusError = "error"

	reasonRevoked        = "access revoked"
	reasonInvalidSubject = "invalid subscribe subject"
	reasonInvalidInbox   = "invalid deliver inbox"
	reasonStreamNotFound = "stream not found"
	reasonSubscribeFail  = "subscription failed"
)

type liveRelay struct {
	entry relaydomain.Entry
	sub   Subscription
}

// RelayService holds the live relay state for one instance. The broker's
// queue-group delivery decides which instance answers a given request, so
// each instance only ever sees part of the cluster's relays.
type RelayService struct {
	broker   Broker
	registry *channelsdomain.Registry
	revoked  *revocation.Set
	interest InterestChecker
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu         sync.Mutex
	relays     map[string]*liveRelay
	userRelays map[string]map[string]struct{}
}

// NewService creates a relay service. The registry gates named-channel
// requests; legacy user/organization subjects bypass it. The revocation set
// is shared with the auth callout module so a revoked user is refused both
// new connections and new relays. A nil interest checker disables the
// disconnect sweep.
func NewService(
	broker Broker,
	registry *channelsdomain.Registry,
	revoked *revocation.Set,
	interest InterestChecker,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *RelayService {
	return &RelayService{
		broker:     broker,
		registry:   registry,
		revoked:    revoked,
		interest:   interest,
		logger:     logger,
		metrics:    metrics,
		relays:     make(map[string]*liveRelay),
		userRelays: make(map[string]map[string]struct{}),
	}
}

// Subscribe resolves the control subject, opens the forwarding subscription
// and registers the relay entry. The broker has already enforced the
// caller's publish grant, so the only state-based check left is revocation.
func (s *RelayService) Subscribe(ctx context.Context, req *SubscribeRequest) *Result {
	target, err := relaydomain.ParseSubscribeTarget(req.Subject)
	if err != nil {
		s.logger.WarnContext(ctx, "Malformed subscribe subject",
			slog.String("subject", req.Subject),
		)
		return s.deny(reasonInvalidSubject, "invalid_subject")
	}

	if s.revoked.IsRevoked(target.Owner) {
		s.logger.WarnContext(ctx, "Relay refused for revoked user",
			slog.String("user_id", target.Owner),
			slog.String("subject", req.Subject),
		)
		return s.deny(reasonRevoked, "revoked")
	}

	if err := relaydomain.ValidateDeliverInbox(req.DeliverInbox); err != nil {
		s.logger.WarnContext(ctx, "Relay refused for bad deliver inbox",
			slog.String("subject", req.Subject),
			slog.String("deliver_inbox", req.DeliverInbox),
		)
		return s.deny(reasonInvalidInbox, "invalid_inbox")
	}

	if target.Channel != channelsdomain.UserChannelPrefix &&
		target.Channel != channelsdomain.OrganizationChannelPrefix &&
		s.registry != nil {
		if _, ok := s.registry.Get(target.Channel); !ok {
			return s.deny(reasonStreamNotFound, "stream_not_found")
		}
	}

	inbox := req.DeliverInbox
	sub, err := s.broker.Subscribe(target.Topic, func(subject string, data []byte) {
		if err := s.broker.Publish(inbox, data); err != nil {
			s.logger.ErrorContext(context.Background(), "Failed to forward message",
				slog.String("topic", subject),
				slog.String("deliver_inbox", inbox),
				slog.Any("error", err),
			)
			return
		}
		s.metrics.ForwardedMessages.Inc()
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to open forwarding subscription",
			slog.String("topic", target.Topic),
			slog.Any("error", err),
		)
		return s.deny(reasonSubscribeFail, "subscribe_failed")
	}

	entry := relaydomain.Entry{
		ID:           uuid.New().String(),
		Channel:      target.Channel,
		UserID:       target.Owner,
		DeliverInbox: inbox,
		ActualTopic:  target.Topic,
		CreatedAt:    time.Now().UTC(),
	}

	s.mu.Lock()
	s.relays[entry.ID] = &liveRelay{entry: entry, sub: sub}
	owned, ok := s.userRelays[entry.UserID]
	if !ok {
		owned = make(map[string]struct{})
		s.userRelays[entry.UserID] = owned
	}
	owned[entry.ID] = struct{}{}
	s.mu.Unlock()

	s.metrics.ActiveRelays.Inc()
	s.metrics.RelayRequests.WithLabelValues("subscribe", "ok").Inc()
	s.logger.InfoContext(ctx, "Relay opened",
		slog.String("relay_id", entry.ID),
		slog.String("user_id", entry.UserID),
		slog.String("topic", entry.ActualTopic),
	)

	return &Result{Status: statusOK, RelayID: entry.ID}
}

// Unsubscribe removes one relay. Unknown or already-removed ids are not an
// error; the client may retry or the connection-close sweep may have raced.
func (s *RelayService) Unsubscribe(ctx context.Context, relayID string) {
	s.mu.Lock()
	live, ok := s.relays[relayID]
	if ok {
		s.removeLocked(live.entry)
	}
	s.mu.Unlock()

	if !ok {
		s.metrics.RelayRequests.WithLabelValues("unsubscribe", "unknown").Inc()
		return
	}

	if err := live.sub.Unsubscribe(); err != nil {
		s.logger.WarnContext(ctx, "Error closing relay subscription",
			slog.String("relay_id", relayID),
			slog.Any("error", err),
		)
	}
	s.metrics.ActiveRelays.Dec()
	s.metrics.RelayRequests.WithLabelValues("unsubscribe", "ok").Inc()
	s.logger.InfoContext(ctx, "Relay closed", slog.String("relay_id", relayID))
}

// RevokeUser marks the user revoked and tears down every relay the user
// owns. Repeated calls are safe; the second call finds nothing to remove.
func (s *RelayService) RevokeUser(ctx context.Context, userID string) int {
	if s.revoked.Revoke(userID) {
		s.metrics.Revocations.Inc()
	}

	s.mu.Lock()
	var torn []*liveRelay
	for id := range s.userRelays[userID] {
		if live, ok := s.relays[id]; ok {
			torn = append(torn, live)
			s.removeLocked(live.entry)
		}
	}
	s.mu.Unlock()

	for _, live := range torn {
		if err := live.sub.Unsubscribe(); err != nil {
			s.logger.WarnContext(ctx, "Error closing relay subscription",
				slog.String("relay_id", live.entry.ID),
				slog.Any("error", err),
			)
		}
		s.metrics.ActiveRelays.Dec()
	}

	s.logger.InfoContext(ctx, "User revoked",
		slog.String("user_id", userID),
		slog.Int("relays_torn_down", len(torn)),
	)
	return len(torn)
}

// UnrevokeUser clears the revocation so future subscribe requests succeed.
func (s *RelayService) UnrevokeUser(ctx context.Context, userID string) {
	if s.revoked.Unrevoke(userID) {
		s.logger.InfoContext(ctx, "User revocation cleared", slog.String("user_id", userID))
	}
}

// SweepClosed walks the live relays and tears down every entry whose deliver
// inbox no longer has a listener. A client closing its connection drops its
// inbox subscriptions, so its relays show no interest on the next sweep; a
// client that is still connected keeps its interest and is left alone. An
// interest-check failure leaves the entry in place for the next sweep.
func (s *RelayService) SweepClosed(ctx context.Context) int {
	if s.interest == nil {
		return 0
	}

	s.mu.Lock()
	candidates := make([]*liveRelay, 0, len(s.relays))
	for _, live := range s.relays {
		candidates = append(candidates, live)
	}
	s.mu.Unlock()

	var torn int
	for _, live := range candidates {
		alive, err := s.interest.HasInterest(ctx, live.entry.DeliverInbox)
		if err != nil {
			s.logger.WarnContext(ctx, "Interest check failed",
				slog.String("relay_id", live.entry.ID),
				slog.String("deliver_inbox", live.entry.DeliverInbox),
				slog.Any("error", err),
			)
			continue
		}
		if alive {
			continue
		}

		s.mu.Lock()
		_, present := s.relays[live.entry.ID]
		if present {
			s.removeLocked(live.entry)
		}
		s.mu.Unlock()
		if !present {
			// Lost a race with an explicit unsubscribe or a revoke.
			continue
		}

		if err := live.sub.Unsubscribe(); err != nil {
			s.logger.WarnContext(ctx, "Error closing relay subscription",
				slog.String("relay_id", live.entry.ID),
				slog.Any("error", err),
			)
		}
		s.metrics.ActiveRelays.Dec()
		s.metrics.RelayRequests.WithLabelValues("sweep", "closed").Inc()
		s.logger.InfoContext(ctx, "Relay closed after client disconnect",
			slog.String("relay_id", live.entry.ID),
			slog.String("deliver_inbox", live.entry.DeliverInbox),
		)
		torn++
	}
	return torn
}

// ActiveRelays reports the number of live forwarding subscriptions held by
// this instance.
func (s *RelayService) ActiveRelays() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.relays)
}

// Shutdown tears down every relay and clears all local state, including the
// revocation set. Used at process teardown.
func (s *RelayService) Shutdown(ctx context.Context) {
	s.mu.Lock()
	all := make([]*liveRelay, 0, len(s.relays))
	for _, live := range s.relays {
		all = append(all, live)
	}
	s.relays = make(map[string]*liveRelay)
	s.userRelays = make(map[string]map[string]struct{})
	s.mu.Unlock()

	for _, live := range all {
		if err := live.sub.Unsubscribe(); err != nil {
			s.logger.WarnContext(ctx, "Error closing relay subscription",
				slog.String("relay_id", live.entry.ID),
				slog.Any("error", err),
			)
		}
		s.metrics.ActiveRelays.Dec()
	}
	s.revoked.Clear()

	s.logger.InfoContext(ctx, "Relay service shut down",
		slog.Int("relays_torn_down", len(all)),
	)
}

// removeLocked drops an entry from both indexes. Caller holds s.mu.
func (s *RelayService) removeLocked(entry relaydomain.Entry) {
	delete(s.relays, entry.ID)
	if owned, ok := s.userRelays[entry.UserID]; ok {
		delete(owned, entry.ID)
		if len(owned) == 0 {
			delete(s.userRelays, entry.UserID)
		}
	}
}

func (s *RelayService) deny(reason, label string) *Result {
	s.metrics.RelayRequests.WithLabelValues("subscribe", label).Inc()
	return &Result{Status: statusError, Reason: reason}
}
