// Package control defines the control-plane subject space clients publish to
// when requesting or tearing down message relays.
package control

import "strings"

const (
	// Prefix roots every control-plane subject.
	Prefix = "_MESSAGING"

	// InboxWildcard is the only subscribe permission clients ever receive.
	InboxWildcard = "_INBOX.>"

	subscribeSegment   = "subscribe"
	unsubscribeSegment = "unsubscribe"
	adminSegment       = "admin"
	revokeSegment      = "revoke"
	unrevokeSegment    = "unrevoke"
)

// SubscribeSubject builds the subject a client publishes to when requesting a
// relay for a named channel scoped to an organization.
func SubscribeSubject(channel, organizationID string) string {
	return join(Prefix, subscribeSegment, channel, organizationID)
}

// UserSubscribePattern is the publish permission covering per-user relay
// requests for userID.
func UserSubscribePattern(userID string) string {
	return join(Prefix, subscribeSegment, "user", userID, ">")
}

// OrganizationSubscribePattern is the publish permission covering
// organization-wide relay requests for organizationID.
func OrganizationSubscribePattern(organizationID string) string {
	return join(Prefix, subscribeSegment, "organization", organizationID, ">")
}

// SubscribeWildcard is the pattern the relay service itself listens on for
// incoming relay requests.
func SubscribeWildcard() string {
	return join(Prefix, subscribeSegment, ">")
}

// UnsubscribeSubject builds the subject a client publishes to when tearing
// down the relay identified by relayID.
func UnsubscribeSubject(relayID string) string {
	return join(Prefix, unsubscribeSegment, relayID)
}

// UnsubscribePattern is the publish permission covering relay teardown.
func UnsubscribePattern() string {
	return join(Prefix, unsubscribeSegment, "*")
}

// RevokeSubject builds the server-only broadcast subject announcing that
// userID lost access.
func RevokeSubject(userID string) string {
	return join(Prefix, adminSegment, revokeSegment, userID)
}

// UnrevokeSubject builds the server-only broadcast subject announcing that
// userID regained access.
func UnrevokeSubject(userID string) string {
	return join(Prefix, adminSegment, unrevokeSegment, userID)
}

// AdminWildcard is the pattern the relay service listens on for revocation
// broadcasts.
func AdminWildcard() string {
	return join(Prefix, adminSegment, ">")
}

func join(tokens ...string) string {
	return strings.Join(tokens, ".")
}
