package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's prometheus instruments.
type Metrics struct {
	AuthRequests      *prometheus.CounterVec
	RelayRequests     *prometheus.CounterVec
	ActiveRelays      prometheus.Gauge
	ForwardedMessages prometheus.Counter
	Revocations       prometheus.Counter
}

// NewMetrics creates and registers the service metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "messaging_relay",
			Name:      "auth_requests_total",
			Help:      "Auth callout requests by result.",
		}, []string{"result"}),
		RelayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "messaging_relay",
			Name:      "relay_requests_total",
			Help:      "Relay control requests by operation and result.",
		}, []string{"operation", "result"}),
		ActiveRelays: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "messaging_relay",
			Name:      "active_relays",
			Help:      "Currently live forwarding subscriptions.",
		}),
		ForwardedMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "messaging_relay",
			Name:      "forwarded_messages_total",
			Help:      "Messages forwarded into client inboxes.",
		}),
		Revocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "messaging_relay",
			Name:      "revocations_total",
			Help:      "Revocation events applied locally.",
		}),
	}

	reg.MustRegister(
		m.AuthRequests,
		m.RelayRequests,
		m.ActiveRelays,
		m.ForwardedMessages,
		m.Revocations,
	)
	return m
}

// NewTestMetrics creates metrics on a private registry, for tests.
func NewTestMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
