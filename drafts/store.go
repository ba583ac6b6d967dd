// Package drafts keeps in-progress invoices in memory, per user, with an
// inactivity expiry.
package drafts

import (
	"sync"
	"time"

	"github.com/satheeshds/repairbook/models"
)

type key struct {
	user string
	id   string
}

type entry struct {
	draft     *models.Draft
	expiresAt time.Time
}

// Store hands out copies so callers never share a draft's memory.
type Store struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[key]entry
}

// NewStore returns a store whose drafts expire after ttl without a save.
// A ttl <= 0 disables expiry.
func NewStore(ttl time.Duration) *Store {
	return &Store{ttl: ttl, now: time.Now, items: make(map[key]entry)}
}

func (s *Store) expiry() time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(s.ttl)
}

func (s *Store) expired(e entry) bool {
	return !e.expiresAt.IsZero() && s.now().After(e.expiresAt)
}

// Create starts a new draft for userID.
func (s *Store) Create(userID string) *models.Draft {
	d := models.NewDraft(s.now())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	s.items[key{userID, d.ID}] = entry{draft: d.Clone(), expiresAt: s.expiry()}
	return d
}

// Get returns a copy of the draft, or false if it is unknown or expired.
func (s *Store) Get(userID, id string) (*models.Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{userID, id}
	e, ok := s.items[k]
	if !ok {
		return nil, false
	}
	if s.expired(e) {
		delete(s.items, k)
		return nil, false
	}
	return e.draft.Clone(), true
}

// Save stores d, replacing the previous version and extending its expiry.
func (s *Store) Save(userID string, d *models.Draft) {
	d.UpdatedAt = s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key{userID, d.ID}] = entry{draft: d.Clone(), expiresAt: s.expiry()}
}

// Delete discards a draft and reports whether it existed.
func (s *Store) Delete(userID, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{userID, id}
	e, ok := s.items[k]
	delete(s.items, k)
	return ok && !s.expired(e)
}

// Take removes the draft and returns it, so only one caller can commit
// it. Callers that end up not committing hand it back with Restore.
func (s *Store) Take(userID, id string) (*models.Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{userID, id}
	e, ok := s.items[k]
	delete(s.items, k)
	if !ok || s.expired(e) {
		return nil, false
	}
	return e.draft, true
}

// Restore puts back a draft obtained from Take, unchanged.
func (s *Store) Restore(userID string, d *models.Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key{userID, d.ID}] = entry{draft: d.Clone(), expiresAt: s.expiry()}
}

// Len counts live drafts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	return len(s.items)
}

// sweep drops expired drafts. Callers hold mu.
func (s *Store) sweep() {
	for k, e := range s.items {
		if s.expired(e) {
			delete(s.items, k)
		}
	}
}
