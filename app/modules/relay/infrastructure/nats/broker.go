// Package relaynats adapts the NATS client to the relay's broker interface.
package relaynats

import (
	"github.com/nats-io/nats.go"

	relayservice "github.com/propflow/messaging-relay/app/modules/relay/application"
)

// Broker wraps a NATS connection.
type Broker struct {
	nc *nats.Conn
}

// NewBroker creates a broker adapter over an established connection.
func NewBroker(nc *nats.Conn) *Broker {
	return &Broker{nc: nc}
}

// Publish sends data to a subject, fire-and-forget.
func (b *Broker) Publish(subject string, data []byte) error {
	return b.nc.Publish(subject, data)
}

// Subscribe opens an async subscription and forwards every message to the
// handler.
func (b *Broker) Subscribe(subject string, handler func(subject string, data []byte)) (relayservice.Subscription, error) {
	sub, err := b.nc.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}
