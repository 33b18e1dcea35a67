// Package relaydomain holds the pure relay types: control subject parsing
// and the bookkeeping record for one live forwarding subscription.
package relaydomain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/propflow/messaging-relay/pkg/control"
)

var (
	// ErrInvalidSubject indicates a control subject that does not match any
	// recognized subscribe form.
	ErrInvalidSubject = errors.New("invalid subscribe subject")

	// ErrInvalidInbox indicates a deliver inbox outside the caller's private
	// inbox namespace.
	ErrInvalidInbox = errors.New("invalid deliver inbox")
)

// Entry records one live forwarding subscription.
type Entry struct {
	ID           string
	Channel      string
	UserID       string
	DeliverInbox string
	ActualTopic  string
	CreatedAt    time.Time
}

// Target is the resolved destination of a subscribe control subject.
//
// Owner is the scope identifier carried in the subject itself (a user id for
// user-entity subjects, an organization id otherwise). Because the broker
// only lets a caller publish control subjects scoped to its own identity,
// the token is trustworthy without further lookup.
type Target struct {
	Channel string
	Owner   string
	Topic   string
}

// ParseSubscribeTarget resolves a subscribe control subject into the source
// topic the relay should forward from.
//
// Two forms are recognized:
//
//	_MESSAGING.subscribe.user.<userId>.<suffix...>          legacy per-entity
//	_MESSAGING.subscribe.organization.<orgId>.<suffix...>   legacy per-entity
//	_MESSAGING.subscribe.<channel>.<orgId>                  named channel
//
// Legacy subjects forward from the subject path itself with the control
// prefix stripped. Named subjects forward from every topic under the
// channel's organization scope.
func ParseSubscribeTarget(subject string) (*Target, error) {
	tokens := strings.Split(subject, ".")
	if len(tokens) < 4 || tokens[0] != control.Prefix || tokens[1] != "subscribe" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSubject, subject)
	}
	for _, t := range tokens {
		if t == "" {
			return nil, fmt.Errorf("%w: %s", ErrInvalidSubject, subject)
		}
	}

	channel := tokens[2]
	owner := tokens[3]

	switch channel {
	case "user", "organization":
		return &Target{
			Channel: channel,
			Owner:   owner,
			Topic:   strings.Join(tokens[2:], "."),
		}, nil
	default:
		// Named channels grant an exact four-token publish pattern, so a
		// longer subject here can only be malformed.
		if len(tokens) != 4 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidSubject, subject)
		}
		return &Target{
			Channel: channel,
			Owner:   owner,
			Topic:   channel + "." + owner + ".>",
		}, nil
	}
}

// ValidateDeliverInbox rejects destinations outside the private inbox
// namespace. Forwarding anywhere else would let a caller write to domain
// subjects through the relay's own credentials.
func ValidateDeliverInbox(inbox string) error {
	if !strings.HasPrefix(inbox, "_INBOX.") || len(inbox) == len("_INBOX.") {
		return fmt.Errorf("%w: %q", ErrInvalidInbox, inbox)
	}
	return nil
}
