package selector

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/p-n-ai/pai-speak/internal/options"
	"github.com/p-n-ai/pai-speak/internal/topics"
)

// ErrUnknownWizard is returned for ids that do not name a live session.
var ErrUnknownWizard = errors.New("unknown wizard")

// Registry holds the live wizard sessions.
type Registry struct {
	source options.Source
	rng    topics.IntN

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates a registry whose sessions fetch from source.
func NewRegistry(source options.Source, rng topics.IntN) *Registry {
	return &Registry{
		source:   source,
		rng:      rng,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session for cfg.
func (r *Registry) Create(ctx context.Context, cfg Config) *Session {
	s := NewSession(generateID(), r.source, r.rng)
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	s.Retarget(ctx, cfg)
	return s
}

// Get returns the session with id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWizard, id)
	}
	return s, nil
}

// Delete removes a session.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Prune drops sessions idle for longer than maxIdle and returns how many were dropped.
func (r *Registry) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

func generateID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x", b)
}
