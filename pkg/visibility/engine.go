// Package visibility derives which nodes and links of a clustered graph take
// part in rendering and layout.
//
// The [Engine] is a pure function of a [graph.Dataset] and a cluster
// [State]. It holds no mutable state of its own, so the same engine can be
// queried after every store mutation:
//
//	eng := visibility.New(dataset)
//	view := eng.Compute(store.Snapshot())
//
// # Rules
//
// A node is visible iff its cluster is not collapsed. Collapsing a cluster
// therefore hides its head node in the member layer as well; the head stays
// in the view so it remains clickable.
//
// A link is hidden when its source's cluster is collapsed and its target is
// not a cluster head, or when either endpoint's cluster is hidden.
// Otherwise it is visible.
//
// Nodes of hidden clusters are removed from [View.Nodes] entirely; nodes of
// collapsed clusters stay in the list and are only flagged invisible.
//
// # Degraded data
//
// A node whose cluster is not declared is never collapsed and so stays
// visible. A link with a missing endpoint node, or whose endpoint sits in an
// undeclared cluster, is always hidden. Both cases, and any other issue
// [graph.Dataset.Check] reports, are logged as warnings once, when the
// engine is built. Share one engine per dataset to keep it that way.
package visibility

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/clusterview/pkg/errors"
	"github.com/matzehuels/clusterview/pkg/graph"
)

// State answers cluster membership queries. Both *cluster.Store and
// cluster.Snapshot satisfy it.
type State interface {
	Collapsed(clusterID string) bool
	Hidden(clusterID string) bool
}

// Engine evaluates visibility predicates against a fixed dataset.
type Engine struct {
	data   *graph.Dataset
	logger *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for data-integrity warnings.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine for d and logs a warning for every dangling link
// endpoint and dangling cluster reference in it.
func New(d *graph.Dataset, opts ...Option) *Engine {
	e := &Engine{data: d, logger: log.Default()}
	for _, opt := range opts {
		opt(e)
	}
	e.warnIntegrity()
	return e
}

// Dataset returns the engine's dataset.
func (e *Engine) Dataset() *graph.Dataset { return e.data }

func (e *Engine) warnIntegrity() {
	for _, issue := range e.data.Check() {
		switch issue.Code {
		case errors.ErrCodeDanglingLinkEndpoint:
			e.logger.Warn("link endpoint missing, link stays hidden", "link", issue.Subject, "detail", issue.Message)
		case errors.ErrCodeDanglingClusterReference:
			e.logger.Warn("node references undeclared cluster, node stays visible", "node", issue.Subject, "detail", issue.Message)
		default:
			e.logger.Warn(issue.Message, "code", issue.Code, "subject", issue.Subject)
		}
	}
}

// NodeVisible reports whether n is drawn under s.
func (e *Engine) NodeVisible(n graph.Node, s State) bool {
	return !s.Collapsed(n.ClusterID)
}

// LinkVisible reports whether l is drawn under s.
func (e *Engine) LinkVisible(l graph.Link, s State) bool {
	src, ok := e.data.Node(l.Source)
	if !ok {
		return false
	}
	dst, ok := e.data.Node(l.Target)
	if !ok {
		return false
	}
	if !e.data.HasCluster(src.ClusterID) || !e.data.HasCluster(dst.ClusterID) {
		return false
	}

	if s.Collapsed(src.ClusterID) && !dst.IsClusterNode {
		return false
	}
	if s.Hidden(src.ClusterID) || s.Hidden(dst.ClusterID) {
		return false
	}
	return true
}

// Removed reports whether n is dropped from the node list because its
// cluster is hidden.
func (e *Engine) Removed(n graph.Node, s State) bool {
	return s.Hidden(n.ClusterID)
}
