package relayservice

import "context"

// Broker abstracts the message broker so the relay logic can be exercised
// without a live server.
type Broker interface {
	// Publish sends data to a subject, fire-and-forget.
	Publish(subject string, data []byte) error

	// Subscribe opens a subscription and invokes handler for every message.
	Subscribe(subject string, handler func(subject string, data []byte)) (Subscription, error)
}

// Subscription is a live broker subscription handle.
type Subscription interface {
	Unsubscribe() error
}

// InterestChecker reports whether any live subscription matches a subject.
// The relay uses it to detect deliver inboxes whose owning connection is
// gone.
type InterestChecker interface {
	HasInterest(ctx context.Context, subject string) (bool, error)
}

// SubscribeRequest is the decoded payload of a relay-subscribe control
// message together with the control subject it arrived on.
type SubscribeRequest struct {
	Subject      string
	DeliverInbox string `json:"deliverInbox"`
}

// Result is the wire response to a relay control request.
type Result struct {
	Status  string `json:"status"`
	RelayID string `json:"relayId,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Service defines the subscription relay operations.
type Service interface {
	// Subscribe wires a forwarding subscription for a validated control
	// request. All failures come back as an error-status Result; the relay
	// always answers.
	Subscribe(ctx context.Context, req *SubscribeRequest) *Result

	// Unsubscribe tears down one relay by id. Unknown ids are a no-op.
	Unsubscribe(ctx context.Context, relayID string)

	// RevokeUser marks a user as revoked and tears down every relay the
	// user owns, returning the number removed.
	RevokeUser(ctx context.Context, userID string) int

	// UnrevokeUser clears a user's revocation. Torn-down relays are not
	// resurrected.
	UnrevokeUser(ctx context.Context, userID string)

	// SweepClosed tears down every relay whose deliver inbox has lost its
	// listener, returning the number removed. Invoked on client disconnect
	// events.
	SweepClosed(ctx context.Context) int

	// ActiveRelays reports the number of live forwarding subscriptions.
	ActiveRelays() int

	// Shutdown tears down every relay and clears all local state.
	Shutdown(ctx context.Context)
}
