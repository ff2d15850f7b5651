// Package cluster owns the per-cluster collapsed and hidden flags of a view.
//
// A [Store] is the single mutable resource of a session. It is seeded with a
// fixed set of cluster ids and starts with every cluster collapsed and none
// hidden. Three operations mutate it:
//
//   - [Store.ToggleCollapse] flips a cluster between expanded and collapsed
//   - [Store.ToggleHidden] flips the hidden flag; hiding an expanded cluster
//     collapses it first so that hidden always implies collapsed
//   - [Store.Reset] collapses every cluster and clears every hidden flag
//
// Mutations are synchronous: the next query (or visibility computation)
// observes them. Renderers read the store through [Store.Snapshot] or the
// visibility package and report clicks back; they never write to it.
package cluster

import (
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/clusterview/pkg/errors"
)

// State is the user-facing state of a single cluster.
type State int

const (
	// Expanded: member nodes are visible.
	Expanded State = iota
	// Collapsed: members are hidden; links into the cluster head remain.
	Collapsed
	// Hidden: the cluster's nodes are removed from the graph.
	Hidden
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Expanded:
		return "expanded"
	case Collapsed:
		return "collapsed"
	case Hidden:
		return "hidden"
	}
	return "unknown"
}

// ChangeKind identifies which operation produced a [Change].
type ChangeKind int

const (
	ChangeCollapse ChangeKind = iota
	ChangeHidden
	ChangeReset
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeCollapse:
		return "collapse"
	case ChangeHidden:
		return "hidden"
	case ChangeReset:
		return "reset"
	}
	return "unknown"
}

// Change describes one completed mutation. ClusterID is empty for resets.
type Change struct {
	Kind      ChangeKind
	ClusterID string
}

// Listener is notified synchronously after each mutation.
type Listener func(Change)

type set map[string]struct{}

// Store holds the collapsed and hidden sets keyed by cluster id.
//
// The set of ids is fixed at construction. Store is safe for concurrent use;
// each operation runs to completion before the next one starts. Listeners
// run after the lock is released and may query the store.
type Store struct {
	mu        sync.RWMutex
	ids       []string
	known     set
	collapsed set
	hidden    set
	listeners []Listener
	logger    *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for debug output of mutations.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a store for the given cluster ids with every cluster
// collapsed and none hidden. Duplicate ids are ignored.
func NewStore(ids []string, opts ...Option) *Store {
	s := &Store{
		known:  make(set, len(ids)),
		hidden: make(set),
		logger: log.Default(),
	}
	for _, id := range ids {
		if _, dup := s.known[id]; dup {
			continue
		}
		s.known[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
	s.collapsed = s.allCollapsed()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) allCollapsed() set {
	c := make(set, len(s.ids))
	for _, id := range s.ids {
		c[id] = struct{}{}
	}
	return c
}

// IDs returns the cluster ids in seeding order.
func (s *Store) IDs() []string {
	return slices.Clone(s.ids)
}

// Subscribe registers l to run after every mutation.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// ToggleCollapse flips id's membership in the collapsed set.
// Unknown ids are rejected with UNKNOWN_CLUSTER and hidden ids with
// CLUSTER_HIDDEN; both leave the state unchanged. A hidden cluster stays
// collapsed until it is unhidden.
func (s *Store) ToggleCollapse(id string) error {
	s.mu.Lock()
	if _, ok := s.known[id]; !ok {
		s.mu.Unlock()
		return unknown(id)
	}
	if _, ok := s.hidden[id]; ok {
		s.mu.Unlock()
		return errors.New(errors.ErrCodeClusterHidden, "cluster %q is hidden", id)
	}
	collapsed := s.toggleCollapseLocked(id)
	listeners := s.listeners
	s.mu.Unlock()

	s.logger.Debug("toggle collapse", "cluster", id, "collapsed", collapsed)
	notify(listeners, Change{Kind: ChangeCollapse, ClusterID: id})
	return nil
}

func (s *Store) toggleCollapseLocked(id string) bool {
	if _, ok := s.collapsed[id]; ok {
		delete(s.collapsed, id)
		return false
	}
	s.collapsed[id] = struct{}{}
	return true
}

// ToggleHidden flips id's membership in the hidden set.
//
// When the cluster becomes hidden while expanded, it is collapsed as part of
// the same operation. When it becomes visible again the collapsed flag is
// left as it is, so unhiding returns the cluster to Collapsed rather than to
// whatever state it had before it was hidden.
func (s *Store) ToggleHidden(id string) error {
	s.mu.Lock()
	if _, ok := s.known[id]; !ok {
		s.mu.Unlock()
		return unknown(id)
	}
	hidden := true
	forcedCollapse := false
	if _, ok := s.hidden[id]; ok {
		delete(s.hidden, id)
		hidden = false
	} else {
		s.hidden[id] = struct{}{}
		if _, ok := s.collapsed[id]; !ok {
			s.toggleCollapseLocked(id)
			forcedCollapse = true
		}
	}
	listeners := s.listeners
	s.mu.Unlock()

	s.logger.Debug("toggle hidden", "cluster", id, "hidden", hidden, "collapsed", forcedCollapse)
	if forcedCollapse {
		notify(listeners, Change{Kind: ChangeCollapse, ClusterID: id})
	}
	notify(listeners, Change{Kind: ChangeHidden, ClusterID: id})
	return nil
}

// Reset collapses every cluster and clears every hidden flag.
func (s *Store) Reset() {
	s.mu.Lock()
	s.collapsed = s.allCollapsed()
	s.hidden = make(set)
	listeners := s.listeners
	s.mu.Unlock()

	s.logger.Debug("reset cluster state", "clusters", len(s.ids))
	notify(listeners, Change{Kind: ChangeReset})
}

// Collapsed reports whether id is in the collapsed set.
// Unknown ids are never collapsed.
func (s *Store) Collapsed(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collapsed[id]
	return ok
}

// Hidden reports whether id is in the hidden set.
func (s *Store) Hidden(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.hidden[id]
	return ok
}

// Known reports whether id is one of the store's clusters.
func (s *Store) Known(id string) bool {
	_, ok := s.known[id]
	return ok
}

// State returns the user-facing state of id.
func (s *Store) State(id string) (State, error) {
	if !s.Known(id) {
		return Expanded, unknown(id)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.hidden[id]; ok {
		return Hidden, nil
	}
	if _, ok := s.collapsed[id]; ok {
		return Collapsed, nil
	}
	return Expanded, nil
}

// Snapshot returns an immutable copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		collapsed: make(set, len(s.collapsed)),
		hidden:    make(set, len(s.hidden)),
	}
	for id := range s.collapsed {
		snap.collapsed[id] = struct{}{}
	}
	for id := range s.hidden {
		snap.hidden[id] = struct{}{}
	}
	return snap
}

func notify(listeners []Listener, c Change) {
	for _, l := range listeners {
		l(c)
	}
}

func unknown(id string) error {
	return errors.New(errors.ErrCodeUnknownCluster, "unknown cluster %q", id)
}
