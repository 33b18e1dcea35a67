// Package channelsdomain holds the named-channel registry and the access
// rules deciding which channels a user may read.
package channelsdomain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

// channelNamePattern accepts kebab-case names carrying a -changes or -events
// suffix, e.g. "ticket-changes", "notification-events".
var channelNamePattern = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*-(changes|events)$`)

// Channel describes one logical event category and how it maps onto broker
// subjects.
type Channel struct {
	Name      string
	Topics    []string
	TTL       time.Duration
	Storage   string
	Retention string
	Access    AccessChecker
}

// ChannelOptions carries the optional settings for Register.
type ChannelOptions struct {
	Topics    []string
	TTL       time.Duration
	Storage   string
	Retention string
	Access    AccessChecker
}

// Registry is a concurrency-safe collection of named channels.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]*Channel
}

// NewRegistry creates an empty channel registry.
func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[string]*Channel),
	}
}

// Register validates and stores a channel definition. Topics default to
// "<name>.>", storage to "memory" and retention to "interest".
func (r *Registry) Register(name string, opts ChannelOptions) (*Channel, error) {
	if !channelNamePattern.MatchString(name) {
		return nil, fmt.Errorf("invalid channel name: %q", name)
	}

	topics := opts.Topics
	if len(topics) == 0 {
		topics = []string{name + ".>"}
	}
	for _, topic := range topics {
		if topic != name && !strings.HasPrefix(topic, name+".") {
			return nil, fmt.Errorf("channel topic %q must start with channel name %q", topic, name)
		}
	}

	storage := opts.Storage
	if storage == "" {
		storage = "memory"
	}
	retention := opts.Retention
	if retention == "" {
		retention = "interest"
	}

	channel := &Channel{
		Name:      name,
		Topics:    topics,
		TTL:       opts.TTL,
		Storage:   storage,
		Retention: retention,
		Access:    opts.Access,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.channels[name]; ok {
		return nil, fmt.Errorf("channel already registered: %q", name)
	}
	r.channels[name] = channel

	return channel, nil
}

// Unregister removes a channel, reporting whether it existed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.channels[name]; !ok {
		return false
	}
	delete(r.channels, name)
	return true
}

// Get returns the channel registered under name.
func (r *Registry) Get(name string) (*Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channel, ok := r.channels[name]
	return channel, ok
}

// All returns every registered channel sorted by name.
func (r *Registry) All() []*Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*Channel, 0, len(r.channels))
	for _, channel := range r.channels {
		all = append(all, channel)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

// Len returns the number of registered channels.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}
