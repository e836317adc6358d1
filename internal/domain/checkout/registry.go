package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/mabel-naski/internal/domain/auth"
)

// ErrSessionNotFound is returned for unknown, expired or foreign sessions.
var ErrSessionNotFound = errors.New("checkout session not found")

// Registry keeps cashier sessions in memory and evicts idle ones.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewRegistry creates a Registry evicting sessions idle for longer than ttl.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create opens a new session owned by actor.
func (r *Registry) Create(actor auth.Actor) *Session {
	s := newSession(uuid.NewString(), actor, r.clock)

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session if it exists and belongs to actor.
func (r *Registry) Get(id string, actor auth.Actor) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok || s.Actor.UserID != actor.UserID {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete closes the session.
func (r *Registry) Delete(id string, actor auth.Actor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Actor.UserID != actor.UserID {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) clock() time.Time { return r.now() }

// Sweep evicts sessions idle for longer than the TTL and returns how many
// were removed. Sessions with a call in flight are kept.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		touched, busy := s.idleSince()
		if busy || touched.After(cutoff) {
			continue
		}
		delete(r.sessions, id)
		n++
	}
	return n
}

// Run sweeps periodically until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration, lg *zap.Logger) error {
	if interval <= 0 {
		return errors.Errorf("invalid sweep interval %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				lg.Debug("Evicted idle checkout sessions", zap.Int("count", n))
			}
		}
	}
}
