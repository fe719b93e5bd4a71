package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultLoginTTL matches the lifetime of the login cookie.
const DefaultLoginTTL = 30 * 24 * time.Hour

// AuthTokens holds the login tokens issued by the server. A cookie is only
// accepted if its value was issued here and has not expired or been revoked.
type AuthTokens struct {
	tokens map[string]time.Time
	ttl    time.Duration
	mu     sync.RWMutex
	now    func() time.Time
}

func NewAuthTokens(ttl time.Duration) *AuthTokens {
	if ttl <= 0 {
		ttl = DefaultLoginTTL
	}
	return &AuthTokens{
		tokens: make(map[string]time.Time),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns how long an issued token stays valid.
func (a *AuthTokens) TTL() time.Duration {
	return a.ttl
}

// Issue creates a new random token.
func (a *AuthTokens) Issue() string {
	token := uuid.NewString()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.tokens[token] = a.now().Add(a.ttl)
	return token
}

// Valid reports whether token was issued and is still live.
func (a *AuthTokens) Valid(token string) bool {
	if token == "" {
		return false
	}

	a.mu.RLock()
	expires, ok := a.tokens[token]
	a.mu.RUnlock()

	if !ok {
		return false
	}
	if a.now().After(expires) {
		a.Revoke(token)
		return false
	}
	return true
}

// Revoke forgets token.
func (a *AuthTokens) Revoke(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.tokens, token)
}

// Prune removes expired tokens and returns how many were removed.
func (a *AuthTokens) Prune() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	removed := 0
	for token, expires := range a.tokens {
		if now.After(expires) {
			delete(a.tokens, token)
			removed++
		}
	}
	return removed
}

// Run prunes expired tokens every interval until ctx is done.
func (a *AuthTokens) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.Prune()
		case <-ctx.Done():
			return
		}
	}
}
