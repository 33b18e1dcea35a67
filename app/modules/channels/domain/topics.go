package channelsdomain

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// UserChannelPrefix roots per-user delivery topics.
	UserChannelPrefix = "user"

	// OrganizationChannelPrefix roots organization-wide delivery topics.
	OrganizationChannelPrefix = "organization"
)

// subjectTokenPattern accepts a single literal subject token or one of the
// two broker wildcards.
var subjectTokenPattern = regexp.MustCompile(`^([A-Za-z0-9_-]+|\*|>)$`)

// BuildSubject joins a channel name and trailing tokens into a concrete
// broker subject, validating each part.
func BuildSubject(channel string, tokens ...string) (string, error) {
	if !channelNamePattern.MatchString(channel) {
		return "", fmt.Errorf("invalid channel name: %q", channel)
	}
	for _, token := range tokens {
		if !subjectTokenPattern.MatchString(token) {
			return "", fmt.Errorf("invalid subject token: %q", token)
		}
	}
	if len(tokens) == 0 {
		return channel, nil
	}
	return channel + "." + strings.Join(tokens, "."), nil
}

// BuildUserTopic builds the delivery topic for a per-user event, e.g.
// "user.<userID>.notification".
func BuildUserTopic(userID string, suffix ...string) string {
	return joinTopic(UserChannelPrefix, userID, suffix)
}

// BuildOrganizationTopic builds the delivery topic for an organization-wide
// event, e.g. "organization.<organizationID>.ticket".
func BuildOrganizationTopic(organizationID string, suffix ...string) string {
	return joinTopic(OrganizationChannelPrefix, organizationID, suffix)
}

func joinTopic(prefix, scope string, suffix []string) string {
	parts := append([]string{prefix, scope}, suffix...)
	return strings.Join(parts, ".")
}
