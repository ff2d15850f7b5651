package session

import (
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/clusterview/pkg/errors"
	"github.com/matzehuels/clusterview/pkg/graph"
	"github.com/matzehuels/clusterview/pkg/visibility"
)

// Registry holds the live sessions of a process. Sessions are lost when the
// process exits.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	engines  map[*graph.Dataset]*visibility.Engine
	opts     []Option
}

// NewRegistry creates an empty registry. opts apply to every session it
// creates, before any per-call options.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		engines:  make(map[*graph.Dataset]*visibility.Engine),
		opts:     opts,
	}
}

// Create starts a session for d and registers it. Sessions over the same
// dataset share one visibility engine unless opts supply their own.
func (r *Registry) Create(d *graph.Dataset, opts ...Option) (*Session, error) {
	all := append(slices.Clone(r.opts), opts...)
	var o options
	for _, opt := range all {
		opt(&o)
	}
	if o.engine == nil && d != nil {
		all = append(all, WithEngine(r.engineFor(d, o.logger)))
	}
	s, err := New(d, all...)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s, nil
}

func (r *Registry) engineFor(d *graph.Dataset, logger *log.Logger) *visibility.Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.engines[d]; ok {
		return e
	}
	e := visibility.New(d, visibility.WithLogger(logger))
	r.engines[d] = e
	return e
}

// Get returns the session with the given id. Malformed ids fail with
// INVALID_ID, unknown ones with SESSION_NOT_FOUND.
func (r *Registry) Get(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidID, err, "invalid session id %q", id)
	}
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id)
	}
	return s, nil
}

// Delete removes a session.
func (r *Registry) Delete(id string) error {
	if _, err := r.Get(id); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
