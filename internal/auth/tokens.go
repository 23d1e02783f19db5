package auth

import (
	"time"

	"github.com/google/uuid"
)

type tokenEntry struct {
	userID    int
	username  string
	expiresAt time.Time
}

// TokenStore issues opaque resume tokens at login. A token proves a prior
// password check, so AUTH_RESUME never has to trust a bare username claim.
// The store is owned by the event loop goroutine; no locking.
type TokenStore struct {
	ttl    time.Duration
	tokens map[string]tokenEntry
	now    func() time.Time
}

func NewTokenStore(ttl time.Duration) *TokenStore {
	return &TokenStore{
		ttl:    ttl,
		tokens: make(map[string]tokenEntry),
		now:    time.Now,
	}
}

// Issue creates a fresh token bound to the user.
func (s *TokenStore) Issue(userID int, username string) string {
	token := uuid.NewString()
	s.tokens[token] = tokenEntry{
		userID:    userID,
		username:  username,
		expiresAt: s.now().Add(s.ttl),
	}
	return token
}

// Validate reports whether token was issued to username and has not expired.
// Expired entries are dropped on the way.
func (s *TokenStore) Validate(username, token string) bool {
	entry, ok := s.tokens[token]
	if !ok {
		return false
	}
	if s.now().After(entry.expiresAt) {
		delete(s.tokens, token)
		return false
	}
	return entry.username == username
}

// Revoke removes a token, typically on logout.
func (s *TokenStore) Revoke(token string) {
	delete(s.tokens, token)
}
