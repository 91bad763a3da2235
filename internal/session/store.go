// Package session implements an in-memory session store with opaque tokens
// and per-entry expiry. Identity is carried by the token, never by
// caller-supplied fields.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/woodgrove/furnish/internal/domain/account"
	"github.com/woodgrove/furnish/internal/domain/cart"
)

// Session holds the authenticated identity and, for buyers, the live cart.
type Session struct {
	Identity account.Identity
	Cart     *cart.Cart

	expiresAt time.Time
}

// Store maps opaque tokens to sessions. Entries expire after the configured
// TTL; Get refreshes the expiry (sliding window).
type Store struct {
	ttl time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore returns a session store with the given TTL.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// Create registers a new session for id and returns its token. Buyers get a
// fresh cart; managers carry none.
func (s *Store) Create(id account.Identity) (string, *Session) {
	sess := &Session{
		Identity:  id,
		expiresAt: time.Now().Add(s.ttl),
	}
	if id.Role == account.RoleUser {
		sess.Cart = cart.New()
	}

	token := uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = sess
	return token, sess
}

// Get returns the session for token, or nil when the token is unknown or
// expired. A hit slides the expiry forward by the TTL.
func (s *Store) Get(token string) *Session {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil
	}
	if now.After(sess.expiresAt) {
		delete(s.sessions, token)
		return nil
	}
	sess.expiresAt = now.Add(s.ttl)
	return sess
}

// Delete removes the session for token, if any.
func (s *Store) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// DeleteByEmail removes every session belonging to the given account, e.g.
// after the account is deleted.
func (s *Store) DeleteByEmail(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, sess := range s.sessions {
		if sess.Identity.Email == email {
			delete(s.sessions, token)
		}
	}
}

// Len returns the number of live (possibly expired but not yet evicted)
// sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// StartCleanup launches a background goroutine that evicts expired sessions
// every interval. It stops when ctx is cancelled.
func (s *Store) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.evict(now)
			}
		}
	}()
}

func (s *Store) evict(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, sess := range s.sessions {
		if now.After(sess.expiresAt) {
			delete(s.sessions, token)
		}
	}
}
