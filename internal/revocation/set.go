// Package revocation tracks users whose broker access has been revoked.
package revocation

import "sync"

// Set is a concurrency-safe set of revoked user IDs. Revoke and Unrevoke are
// idempotent so repeated admin broadcasts converge to the same state on every
// instance.
type Set struct {
	mu    sync.RWMutex
	users map[string]struct{}
}

// NewSet creates an empty revocation set.
func NewSet() *Set {
	return &Set{
		users: make(map[string]struct{}),
	}
}

// Revoke marks userID as revoked. It reports whether the user was not
// already revoked.
func (s *Set) Revoke(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; ok {
		return false
	}
	s.users[userID] = struct{}{}
	return true
}

// Unrevoke removes userID from the set. It reports whether the user was
// revoked.
func (s *Set) Unrevoke(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return false
	}
	delete(s.users, userID)
	return true
}

// IsRevoked reports whether userID is currently revoked.
func (s *Set) IsRevoked(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.users[userID]
	return ok
}

// Clear removes all entries.
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[string]struct{})
}
