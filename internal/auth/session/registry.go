package session

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	authdomain "github.com/smallbiznis/facture/internal/auth/domain"
	"github.com/smallbiznis/facture/internal/clock"
	"github.com/smallbiznis/facture/internal/config"
)

const tokenBytes = 32

// Registry maps opaque cookie tokens to live sessions. Sessions are
// transient: a restart signs everyone out, and the next login rebuilds the
// session from the database through reconciliation.
type Registry struct {
	clk clock.Clock
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	sess      authdomain.Session
	expiresAt time.Time
}

func NewRegistry(cfg config.Config, clk clock.Clock) *Registry {
	ttl := time.Duration(cfg.SessionTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Registry{
		clk:     clk,
		ttl:     ttl,
		entries: make(map[string]entry),
	}
}

// Issue stores the session under a fresh random token.
func (r *Registry) Issue(sess authdomain.Session) (string, time.Time, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", time.Time{}, err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	expiresAt := r.clk.Now().Add(r.ttl)

	r.mu.Lock()
	r.entries[token] = entry{sess: sess, expiresAt: expiresAt}
	r.mu.Unlock()
	return token, expiresAt, nil
}

// Resolve returns the live session for the token. Expired entries are
// dropped on access.
func (r *Registry) Resolve(token string) (authdomain.Session, bool) {
	r.mu.RLock()
	e, ok := r.entries[token]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if r.clk.Now().After(e.expiresAt) {
		r.mu.Lock()
		delete(r.entries, token)
		r.mu.Unlock()
		return nil, false
	}
	return e.sess, true
}

func (r *Registry) Revoke(token string) {
	r.mu.Lock()
	delete(r.entries, token)
	r.mu.Unlock()
}

// Replace swaps the session stored under the token, keeping its expiry. Used
// after a subscription change so the cached organization stays current.
func (r *Registry) Replace(token string, sess authdomain.Session) {
	r.mu.Lock()
	if e, ok := r.entries[token]; ok {
		e.sess = sess
		r.entries[token] = e
	}
	r.mu.Unlock()
}
