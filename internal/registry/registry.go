// Package registry binds short-lived opaque tokens to search candidates so
// a later button press can be resolved without re-querying the platform.
package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soundseek/soundseek/internal/domain"
)

// DefaultTTL bounds how long a presented result stays selectable.
const DefaultTTL = 15 * time.Minute

var ErrTokenExpired = fmt.Errorf("token expired or unknown")

// Binding pairs a minted token with the candidate it resolves to.
type Binding struct {
	Token     string
	Candidate domain.Candidate
}

type entry struct {
	candidate domain.Candidate
	createdAt time.Time
}

// Registry is an in-memory token table shared across interactions. Stale
// entries are pruned lazily on each registration.
type Registry struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

// New returns a registry with the given TTL, or DefaultTTL when ttl <= 0.
func New(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Register mints one token per candidate and returns the bindings in input
// order. Tokens are opaque UUIDs, well within the transport's callback
// payload limit.
func (r *Registry) Register(candidates []domain.Candidate) []Binding {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked()

	bindings := make([]Binding, 0, len(candidates))
	for _, c := range candidates {
		token := uuid.NewString()
		r.entries[token] = entry{candidate: c, createdAt: r.now()}
		bindings = append(bindings, Binding{Token: token, Candidate: c})
	}
	return bindings
}

// Resolve returns the candidate bound to token. Unknown and expired tokens
// both yield ErrTokenExpired; callers surface that as "search again".
func (r *Registry) Resolve(token string) (domain.Candidate, error) {
	r.mu.RLock()
	e, ok := r.entries[token]
	r.mu.RUnlock()

	if !ok || r.now().Sub(e.createdAt) > r.ttl {
		return domain.Candidate{}, ErrTokenExpired
	}
	return e.candidate, nil
}

// Len reports the number of live entries, expired ones included until the
// next prune.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) pruneLocked() {
	cutoff := r.now().Add(-r.ttl)
	for token, e := range r.entries {
		if e.createdAt.Before(cutoff) {
			delete(r.entries, token)
		}
	}
}
