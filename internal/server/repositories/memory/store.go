// Package memory implements every repository interface over process memory.
// It backs the server when no database DSN is configured and serves as the
// store in service tests.
package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/dmitrijs2005/housing/internal/server/models"
	"github.com/dmitrijs2005/housing/internal/server/repositories/applications"
	"github.com/dmitrijs2005/housing/internal/server/repositories/contactrequests"
	"github.com/dmitrijs2005/housing/internal/server/repositories/listings"
	"github.com/dmitrijs2005/housing/internal/server/repositories/notifications"
	"github.com/dmitrijs2005/housing/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/housing/internal/server/repositories/users"
	"github.com/dmitrijs2005/housing/internal/timex"
)

type state struct {
	users         map[string]models.User
	refreshTokens map[string]models.RefreshToken
	listings      map[string]models.Listing
	applications  map[string]models.Application
	contacts      map[string]models.ContactRequest
	notifications map[string]models.Notification
}

func newState() *state {
	return &state{
		users:         make(map[string]models.User),
		refreshTokens: make(map[string]models.RefreshToken),
		listings:      make(map[string]models.Listing),
		applications:  make(map[string]models.Application),
		contacts:      make(map[string]models.ContactRequest),
		notifications: make(map[string]models.Notification),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.refreshTokens {
		c.refreshTokens[k] = v
	}
	for k, v := range s.listings {
		c.listings[k] = v
	}
	for k, v := range s.applications {
		c.applications[k] = v
	}
	for k, v := range s.contacts {
		c.contacts[k] = v
	}
	for k, v := range s.notifications {
		c.notifications[k] = v
	}
	return c
}

// Store holds all data behind one lock. Records are kept by value and
// copied on the way in and out, so callers never share memory with it.
type Store struct {
	mu  sync.Locker
	st  *state
	now timex.Clock
}

func NewStore(now timex.Clock) *Store {
	if now == nil {
		now = timex.SystemClock
	}
	return &Store{mu: &sync.Mutex{}, st: newState(), now: now}
}

// WithGate returns a view over the same data in which every call also holds
// gate for its duration. Whoever holds gate has exclusive use of the data
// through the ungated Store.
func (s *Store) WithGate(gate sync.Locker) *Store {
	return &Store{mu: lockChain{gate, s.mu}, st: s.st, now: s.now}
}

type lockChain []sync.Locker

func (c lockChain) Lock() {
	for _, l := range c {
		l.Lock()
	}
}

func (c lockChain) Unlock() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i].Unlock()
	}
}

// Snapshot captures the current data for a later Restore.
func (s *Store) Snapshot() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.clone()
}

// Restore replaces the data with a value returned by Snapshot. Gated views
// of s see the restored data too.
func (s *Store) Restore(snap any) {
	st, ok := snap.(*state)
	if !ok {
		return
	}
	s.mu.Lock()
	*s.st = *st.clone()
	s.mu.Unlock()
}

func (s *Store) Users() users.Repository                     { return (*userRepo)(s) }
func (s *Store) RefreshTokens() refreshtokens.Repository     { return (*refreshTokenRepo)(s) }
func (s *Store) Listings() listings.Repository               { return (*listingRepo)(s) }
func (s *Store) Applications() applications.Repository       { return (*applicationRepo)(s) }
func (s *Store) ContactRequests() contactrequests.Repository { return (*contactRepo)(s) }
func (s *Store) Notifications() notifications.Repository     { return (*notificationRepo)(s) }

func sortNewestFirst[T any](items []*T, createdAt func(*T) int64, id func(*T) string) {
	sort.Slice(items, func(i, j int) bool {
		ci, cj := createdAt(items[i]), createdAt(items[j])
		if ci != cj {
			return ci > cj
		}
		return strings.Compare(id(items[i]), id(items[j])) < 0
	})
}
