package auth

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
)

// RefreshFunc obtains a fresh bearer token from the session provider.
type RefreshFunc func(ctx context.Context) (string, error)

// expiryMargin is shaved off a token's real expiry so we never hand out a
// token that dies mid-request.
const expiryMargin = 5 * time.Minute

// Manager caches a bearer token and guarantees at most one refresh is in
// flight at a time; concurrent callers arriving during a refresh join it and
// receive the same result.
type Manager struct {
	refresh RefreshFunc
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	token    string
	expiry   time.Time
	inflight *refreshCall
	// gen increments on ClearCache so a refresh that started before the clear
	// cannot repopulate the cache afterwards.
	gen uint64
}

type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

// NewManager builds a Manager. ttl is the fallback cache lifetime used when
// the token is not a JWT carrying an exp claim.
func NewManager(refresh RefreshFunc, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 55 * time.Minute
	}
	return &Manager{
		refresh: refresh,
		ttl:     ttl,
		now:     time.Now,
	}
}

// GetValidToken returns the cached token while it is still valid. Otherwise it
// starts a refresh, or joins the one already running, and returns its result.
// A failed refresh returns an empty token and leaves the cache empty.
func (m *Manager) GetValidToken(ctx context.Context) (string, error) {
	m.mu.Lock()

	if m.token != "" && m.now().Before(m.expiry) {
		tok := m.token
		m.mu.Unlock()
		return tok, nil
	}

	if c := m.inflight; c != nil {
		m.mu.Unlock()
		return m.await(ctx, c)
	}

	c := &refreshCall{done: make(chan struct{})}
	m.inflight = c
	gen := m.gen
	m.mu.Unlock()

	token, err := m.refresh(ctx)

	m.mu.Lock()
	m.inflight = nil
	if err == nil && gen == m.gen {
		m.token = token
		m.expiry = m.expiryFor(token)
	}
	m.mu.Unlock()

	c.token, c.err = token, err
	close(c.done)
	return token, err
}

// ClearCache drops the cached token unconditionally. Safe to call at any time,
// including while a refresh is in flight; that refresh still completes for its
// waiters but its result is not cached.
func (m *Manager) ClearCache() {
	m.mu.Lock()
	m.token = ""
	m.expiry = time.Time{}
	m.gen++
	m.mu.Unlock()
}

func (m *Manager) await(ctx context.Context, c *refreshCall) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-c.done:
		return c.token, c.err
	}
}

// expiryFor derives the cache deadline for a token. When the token is a JWT
// with an exp claim, the claim wins (minus a safety margin); anything else
// gets the configured ttl.
func (m *Manager) expiryFor(token string) time.Time {
	parser := new(jwt.Parser)
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err == nil {
		if exp, ok := claims["exp"].(float64); ok && exp > 0 {
			at := time.Unix(int64(exp), 0).Add(-expiryMargin)
			if at.After(m.now()) {
				return at
			}
		}
	}
	return m.now().Add(m.ttl)
}
