package relaynats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// subszSubject is the system account endpoint answering subscription
// queries.
const subszSubject = "$SYS.REQ.SERVER.PING.SUBSZ"

// SubscriptionInterest answers interest queries through the broker's system
// account monitoring API. It needs a connection authenticated against the
// system account; the regular application-account connection cannot see
// these subjects.
type SubscriptionInterest struct {
	sysConn *nats.Conn
}

// NewSubscriptionInterest creates an interest checker on a system account
// connection.
func NewSubscriptionInterest(sysConn *nats.Conn) *SubscriptionInterest {
	return &SubscriptionInterest{sysConn: sysConn}
}

type subszRequest struct {
	Subscriptions bool   `json:"subscriptions"`
	Test          string `json:"test"`
}

type subszResponse struct {
	Data struct {
		Total int `json:"total"`
	} `json:"data"`
}

// HasInterest reports whether any live subscription matches subject.
// TODO: gather replies from every server instead of the first when running
// against a cluster; interest may live on a different server than the one
// that answers first.
func (i *SubscriptionInterest) HasInterest(ctx context.Context, subject string) (bool, error) {
	payload, err := json.Marshal(subszRequest{Subscriptions: true, Test: subject})
	if err != nil {
		return false, fmt.Errorf("failed to encode subsz request: %w", err)
	}

	msg, err := i.sysConn.RequestWithContext(ctx, subszSubject, payload)
	if err != nil {
		return false, fmt.Errorf("subsz request failed: %w", err)
	}

	var resp subszResponse
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return false, fmt.Errorf("failed to decode subsz response: %w", err)
	}
	return resp.Data.Total > 0, nil
}
