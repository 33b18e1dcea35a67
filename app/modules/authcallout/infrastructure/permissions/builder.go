// Package permissions computes the broker ACL grant issued to a client
// connection. Clients may only subscribe to their private inbox; every other
// capability is expressed as permission to publish relay-control subjects
// scoped to the caller's own identity.
package permissions

import (
	"github.com/propflow/messaging-relay/pkg/control"
)

// Permissions defines pub/sub permissions for a connection.
type Permissions struct {
	Publish   PermissionSet `json:"pub"`
	Subscribe PermissionSet `json:"sub"`
}

// PermissionSet contains allow and deny patterns.
type PermissionSet struct {
	Allow []string `json:"allow,omitempty"`
	Deny  []string `json:"deny,omitempty"`
}

// Builder constructs permission grants from verified token identities.
type Builder struct{}

// NewBuilder creates a new permission builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Compute builds the grant for the named-channel mode: one relay-subscribe
// pattern per allowed channel, scoped to the caller's organization. An empty
// channel list yields the minimal inbox-only grant.
func (b *Builder) Compute(allowedChannels []string, organizationID string) *Permissions {
	if len(allowedChannels) == 0 {
		return b.minimal()
	}

	pub := []string{control.InboxWildcard}
	for _, channel := range allowedChannels {
		pub = append(pub, control.SubscribeSubject(channel, organizationID))
	}
	pub = append(pub, control.UnsubscribePattern())

	return &Permissions{
		Publish:   PermissionSet{Allow: pub},
		Subscribe: PermissionSet{Allow: []string{control.InboxWildcard}},
	}
}

// ComputeLegacy builds the grant for the legacy dual-channel mode: relay
// requests for the caller's own user channel and the caller's organization
// channel.
func (b *Builder) ComputeLegacy(userID, organizationID string) *Permissions {
	pub := []string{
		control.InboxWildcard,
		control.UserSubscribePattern(userID),
		control.OrganizationSubscribePattern(organizationID),
		control.UnsubscribePattern(),
	}

	return &Permissions{
		Publish:   PermissionSet{Allow: pub},
		Subscribe: PermissionSet{Allow: []string{control.InboxWildcard}},
	}
}

// minimal is the grant for a caller with no authorized channels: inbox only,
// both directions.
func (b *Builder) minimal() *Permissions {
	return &Permissions{
		Publish:   PermissionSet{Allow: []string{control.InboxWildcard}},
		Subscribe: PermissionSet{Allow: []string{control.InboxWildcard}},
	}
}
