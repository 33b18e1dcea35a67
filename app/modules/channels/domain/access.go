package channelsdomain

import (
	"context"
	"fmt"
	"strings"
)

// Directory answers identity and membership questions about users. It is
// implemented by the host application on top of its own user store.
type Directory interface {
	// UserExists reports whether userID refers to a live (not deleted) user.
	UserExists(ctx context.Context, userID string) (bool, error)

	// IsActiveEmployee reports whether userID is an accepted, non-blocked
	// employee of organizationID.
	IsActiveEmployee(ctx context.Context, userID, organizationID string) (bool, error)

	// HasPermission reports whether userID holds the named role permission
	// within organizationID.
	HasPermission(ctx context.Context, userID, organizationID, permission string) (bool, error)
}

// AccessRequest carries everything an AccessChecker may need for a decision.
type AccessRequest struct {
	Directory      Directory
	UserID         string
	OrganizationID string
	Topic          string
}

// AccessChecker decides whether a user may read a channel topic.
type AccessChecker interface {
	Check(ctx context.Context, req AccessRequest) (bool, error)
}

// AlwaysAllow admits every authenticated user, used for public channels.
type AlwaysAllow struct{}

func (AlwaysAllow) Check(ctx context.Context, req AccessRequest) (bool, error) {
	return true, nil
}

// RequiresPermission admits users holding the named role permission within
// the requested organization.
type RequiresPermission struct {
	Name string
}

func (p RequiresPermission) Check(ctx context.Context, req AccessRequest) (bool, error) {
	return req.Directory.HasPermission(ctx, req.UserID, req.OrganizationID, p.Name)
}

// Custom wraps a host-supplied predicate, used for channels whose access
// rules depend on the topic itself (e.g. per-record ownership).
type Custom struct {
	Func func(ctx context.Context, req AccessRequest) (bool, error)
}

func (c Custom) Check(ctx context.Context, req AccessRequest) (bool, error) {
	return c.Func(ctx, req)
}

// AccessResult is the outcome of a CheckAccess call.
type AccessResult struct {
	Allowed        bool
	UserID         string
	OrganizationID string
	Reason         string
}

// ChannelInfo describes one channel visible to a user.
type ChannelInfo struct {
	Name       string   `json:"name"`
	Topic      string   `json:"topic,omitempty"`
	Topics     []string `json:"topics,omitempty"`
	Permission string   `json:"permission,omitempty"`
}

// Access evaluates channel read authorization. It covers both the legacy
// per-entity channels ("user.<id>.*", "organization.<id>.*") and named
// channels from the registry.
type Access struct {
	Registry  *Registry
	Directory Directory
}

func denied(reason string) AccessResult {
	return AccessResult{Allowed: false, Reason: reason}
}

// CheckAccess decides whether userID may read topic within organizationID.
// The returned result carries a human-readable reason on denial; the reason
// strings are part of the wire contract with clients.
func (a *Access) CheckAccess(ctx context.Context, userID, organizationID, topic string) (AccessResult, error) {
	exists, err := a.Directory.UserExists(ctx, userID)
	if err != nil {
		return AccessResult{}, fmt.Errorf("failed to look up user: %w", err)
	}
	if !exists {
		return denied("User not found or deleted"), nil
	}

	prefix, rest, _ := strings.Cut(topic, ".")

	switch prefix {
	case UserChannelPrefix:
		targetUser, _, _ := strings.Cut(rest, ".")
		if targetUser != userID {
			return denied("Cannot access other user channel"), nil
		}
		return AccessResult{Allowed: true, UserID: userID}, nil

	case OrganizationChannelPrefix:
		targetOrg, _, _ := strings.Cut(rest, ".")
		ok, err := a.Directory.IsActiveEmployee(ctx, userID, targetOrg)
		if err != nil {
			return AccessResult{}, fmt.Errorf("failed to check employment: %w", err)
		}
		if !ok {
			return denied("Access denied for organization channel"), nil
		}
		return AccessResult{Allowed: true, UserID: userID, OrganizationID: targetOrg}, nil
	}

	if a.Registry == nil || a.Registry.Len() == 0 {
		return denied("No access checker for channel: " + prefix), nil
	}

	channel, ok := a.Registry.Get(prefix)
	if !ok {
		return denied("Channel not found"), nil
	}
	if channel.Access == nil {
		return denied("No access configuration for channel"), nil
	}

	allowed, err := channel.Access.Check(ctx, AccessRequest{
		Directory:      a.Directory,
		UserID:         userID,
		OrganizationID: organizationID,
		Topic:          topic,
	})
	if err != nil {
		return AccessResult{}, fmt.Errorf("access check failed for channel %q: %w", prefix, err)
	}
	if !allowed {
		return denied(denialReason(channel.Access)), nil
	}

	return AccessResult{Allowed: true, UserID: userID, OrganizationID: organizationID}, nil
}

func denialReason(checker AccessChecker) string {
	switch checker.(type) {
	case RequiresPermission:
		return "Permission denied"
	case Custom:
		return "Access denied by custom function"
	default:
		return "Access denied"
	}
}

// AvailableChannels lists every channel userID may currently read within
// organizationID: the two legacy per-entity channels plus any named channels
// whose checker admits the user. A deleted or unknown user sees nothing.
func (a *Access) AvailableChannels(ctx context.Context, userID, organizationID string) ([]ChannelInfo, error) {
	exists, err := a.Directory.UserExists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !exists {
		return []ChannelInfo{}, nil
	}

	channels := []ChannelInfo{{
		Name:  UserChannelPrefix,
		Topic: BuildUserTopic(userID, ">"),
	}}

	employed, err := a.Directory.IsActiveEmployee(ctx, userID, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to check employment: %w", err)
	}
	if employed {
		channels = append(channels, ChannelInfo{
			Name:  OrganizationChannelPrefix,
			Topic: BuildOrganizationTopic(organizationID, ">"),
		})
	}

	if a.Registry == nil {
		return channels, nil
	}

	for _, channel := range a.Registry.All() {
		if channel.Access == nil {
			continue
		}
		allowed, err := channel.Access.Check(ctx, AccessRequest{
			Directory:      a.Directory,
			UserID:         userID,
			OrganizationID: organizationID,
			Topic:          channel.Topics[0],
		})
		if err != nil || !allowed {
			continue
		}
		info := ChannelInfo{
			Name:   channel.Name,
			Topics: channel.Topics,
		}
		if p, ok := channel.Access.(RequiresPermission); ok {
			info.Permission = p.Name
		}
		channels = append(channels, info)
	}

	return channels, nil
}
