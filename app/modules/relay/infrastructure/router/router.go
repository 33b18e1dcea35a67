// Package relayrouter manages the relay module's NATS subscriptions.
package relayrouter

import (
	"github.com/nats-io/nats.go"

	relayhandlers "github.com/propflow/messaging-relay/app/modules/relay/infrastructure/handlers"
	"github.com/propflow/messaging-relay/pkg/control"
)

// QueueGroup is the queue group name for load balancing control requests
// across relay instances.
const QueueGroup = "backend"

// disconnectEvents is the system account advisory published for every client
// disconnect, used to trigger the relay sweep.
const disconnectEvents = "$SYS.ACCOUNT.*.DISCONNECT"

// Router wires the relay handlers to the control subject space.
type Router struct {
	handlers *relayhandlers.RelayHandlers
	nc       *nats.Conn
	sysConn  *nats.Conn
	subs     []*nats.Subscription
}

// NewRouter creates a new relay router. The system account connection is
// optional; without it disconnect events are not observed and abandoned
// relays survive until revoke or shutdown.
func NewRouter(handlers *relayhandlers.RelayHandlers, nc, sysConn *nats.Conn) *Router {
	return &Router{handlers: handlers, nc: nc, sysConn: sysConn}
}

// Start subscribes to the relay control subjects. Subscribe and unsubscribe
// requests go through the queue group so exactly one instance answers each;
// admin broadcasts are received by every instance so local revocation state
// converges cluster-wide.
func (r *Router) Start() error {
	subSubscription, err := r.nc.QueueSubscribe(
		control.SubscribeWildcard(),
		QueueGroup,
		r.handlers.HandleSubscribe,
	)
	if err != nil {
		return err
	}
	r.subs = append(r.subs, subSubscription)

	unsubSubscription, err := r.nc.QueueSubscribe(
		control.UnsubscribePattern(),
		QueueGroup,
		r.handlers.HandleUnsubscribe,
	)
	if err != nil {
		r.Stop()
		return err
	}
	r.subs = append(r.subs, unsubSubscription)

	adminSubscription, err := r.nc.Subscribe(
		control.AdminWildcard(),
		r.handlers.HandleAdmin,
	)
	if err != nil {
		r.Stop()
		return err
	}
	r.subs = append(r.subs, adminSubscription)

	if r.sysConn != nil {
		disconnectSubscription, err := r.sysConn.Subscribe(
			disconnectEvents,
			r.handlers.HandleDisconnect,
		)
		if err != nil {
			r.Stop()
			return err
		}
		r.subs = append(r.subs, disconnectSubscription)
	}

	return nil
}

// Stop drops every control subscription.
func (r *Router) Stop() error {
	var firstErr error
	for _, sub := range r.subs {
		if err := sub.Unsubscribe(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.subs = nil
	return firstErr
}
