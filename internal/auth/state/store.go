// Package state holds the per-login reconciliation state shared between the
// session establisher and the identity provider's state-change handler.
//
// The establisher marks a login attempt as establishing, the reconciler
// deposits the finished admin session, and the establisher collects it after
// the provider call returns. One mutex serializes every transition, so there
// is a single writer at any moment and no torn reads of the phase.
package state

import (
	"strings"
	"sync"

	authdomain "github.com/smallbiznis/facture/internal/auth/domain"
)

// Phase of a login attempt.
type Phase int

const (
	Unauthenticated Phase = iota
	Establishing
	Authenticated
)

// Store tracks in-flight admin login attempts keyed by normalized email.
type Store struct {
	mu       sync.Mutex
	phases   map[string]Phase
	sessions map[string]authdomain.Session
}

func NewStore() *Store {
	return &Store{
		phases:   make(map[string]Phase),
		sessions: make(map[string]authdomain.Session),
	}
}

func key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Begin marks the attempt as establishing. Any session left over from an
// earlier attempt for the same email is discarded.
func (s *Store) Begin(email string) {
	k := key(email)
	s.mu.Lock()
	s.phases[k] = Establishing
	delete(s.sessions, k)
	s.mu.Unlock()
}

// Authenticate deposits the reconciled session. A deposit without a matching
// Begin is ignored, so stray provider notifications cannot mint sessions.
func (s *Store) Authenticate(email string, sess authdomain.Session) {
	k := key(email)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phases[k] != Establishing {
		return
	}
	s.phases[k] = Authenticated
	s.sessions[k] = sess
}

// Take removes and returns the deposited session. It succeeds only when the
// attempt reached the authenticated phase.
func (s *Store) Take(email string) (authdomain.Session, bool) {
	k := key(email)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phases[k] != Authenticated {
		delete(s.phases, k)
		delete(s.sessions, k)
		return nil, false
	}
	sess := s.sessions[k]
	delete(s.phases, k)
	delete(s.sessions, k)
	return sess, sess != nil
}

// Clear resets the attempt to unauthenticated.
func (s *Store) Clear(email string) {
	k := key(email)
	s.mu.Lock()
	delete(s.phases, k)
	delete(s.sessions, k)
	s.mu.Unlock()
}

// Phase reports the current phase for the email.
func (s *Store) Phase(email string) Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phases[key(email)]
}
