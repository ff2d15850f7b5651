// Package session wires a dataset, a cluster state store, the visibility
// engine, and a render surface into one interactive view.
//
// A [Session] is what a user interacts with: clicks on nodes, hide toggles,
// and resets arrive as method calls, the store is mutated synchronously, and
// [Session.View] recomputes what should be drawn. The session also owns the
// two viewport rules of the interactive canvas: fit to content the first
// time the layout settles, and again after every reset.
//
//	s, err := session.New(dataset, session.WithViewport(canvas))
//	if err != nil {
//	    return err
//	}
//	_ = s.ClickNode("A")       // expand cluster A
//	_ = s.ToggleHidden("B")    // remove cluster B
//	view := s.View()
//
// Sessions live in memory only. A [Registry] keeps the live sessions of a
// server process, keyed by random UUIDs.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/clusterview/pkg/cluster"
	"github.com/matzehuels/clusterview/pkg/errors"
	"github.com/matzehuels/clusterview/pkg/graph"
	"github.com/matzehuels/clusterview/pkg/layout"
	"github.com/matzehuels/clusterview/pkg/observability"
	"github.com/matzehuels/clusterview/pkg/render/nodelink"
	"github.com/matzehuels/clusterview/pkg/visibility"
)

// Viewport is the camera of a render surface.
type Viewport interface {
	// FitToContent zooms and pans so the whole drawing is in view.
	FitToContent()
}

// NopViewport ignores fit requests.
type NopViewport struct{}

func (NopViewport) FitToContent() {}

// Session is one interactive view of a dataset.
type Session struct {
	ID        string
	CreatedAt time.Time

	data        *graph.Dataset
	fingerprint string
	store       *cluster.Store
	engine      *visibility.Engine
	renderer    *nodelink.Renderer
	render      nodelink.Options
	layout      *layout.Configurator
	viewport    Viewport
	logger      *log.Logger

	fitMu  sync.Mutex
	fitted bool
}

type options struct {
	params   layout.Params
	render   nodelink.Options
	viewport Viewport
	engine   *visibility.Engine
	logger   *log.Logger
}

// Option configures a Session.
type Option func(*options)

// WithParams overrides the default layout parameters.
func WithParams(p layout.Params) Option {
	return func(o *options) { o.params = p }
}

// WithRenderOptions sets the render surface options.
func WithRenderOptions(r nodelink.Options) Option {
	return func(o *options) { o.render = r }
}

// WithViewport attaches the viewport that receives fit requests.
func WithViewport(v Viewport) Option {
	return func(o *options) {
		if v != nil {
			o.viewport = v
		}
	}
}

// WithEngine shares a visibility engine built for the same dataset, so its
// integrity warnings are logged once rather than per session.
func WithEngine(e *visibility.Engine) Option {
	return func(o *options) { o.engine = e }
}

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates a session for d. The store is seeded with d's cluster ids, the
// layout parameters are applied to the render surface once, and resets are
// wired to re-fit the viewport.
func New(d *graph.Dataset, opts ...Option) (*Session, error) {
	if d == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "dataset is required")
	}
	o := options{
		params:   layout.DefaultParams(),
		viewport: NopViewport{},
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := layout.NewConfigurator(o.params)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "layout parameters")
	}

	id := uuid.NewString()
	logger := o.logger.With("session", id[:8])

	eng := o.engine
	if eng == nil {
		eng = visibility.New(d, visibility.WithLogger(logger))
	} else if eng.Dataset() != d {
		return nil, errors.New(errors.ErrCodeInvalidInput, "visibility engine belongs to another dataset")
	}

	s := &Session{
		ID:          id,
		CreatedAt:   time.Now(),
		data:        d,
		fingerprint: d.Fingerprint(),
		store:       cluster.NewStore(d.ClusterIDs(), cluster.WithLogger(logger)),
		engine:      eng,
		renderer:    nodelink.NewRenderer(o.render),
		render:      o.render,
		layout:      cfg,
		viewport:    o.viewport,
		logger:      logger,
	}
	if err := cfg.Configure(s.renderer); err != nil {
		return nil, err
	}
	s.store.Subscribe(s.onChange)
	return s, nil
}

func (s *Session) onChange(c cluster.Change) {
	ctx := context.Background()
	if c.Kind == cluster.ChangeReset {
		observability.State().OnReset(ctx)
		s.viewport.FitToContent()
		return
	}
	observability.State().OnToggle(ctx, c.Kind.String(), c.ClusterID)
}

// Dataset returns the session's dataset.
func (s *Session) Dataset() *graph.Dataset { return s.data }

// Store returns the session's cluster state.
func (s *Session) Store() *cluster.Store { return s.store }

// Renderer returns the configured render surface.
func (s *Session) Renderer() *nodelink.Renderer { return s.renderer }

// Params returns the layout parameters applied to the render surface.
func (s *Session) Params() layout.Params { return s.layout.Params() }

// ClickNode handles a click on a node: the node's cluster toggles between
// collapsed and expanded. Clicks on unknown nodes fail with UNKNOWN_NODE;
// a node whose cluster is not declared fails with UNKNOWN_CLUSTER.
func (s *Session) ClickNode(nodeID string) error {
	n, ok := s.data.Node(nodeID)
	if !ok {
		return errors.New(errors.ErrCodeUnknownNode, "unknown node %q", nodeID)
	}
	return s.ToggleCollapse(n.ClusterID)
}

// ToggleCollapse collapses or expands a cluster. Hidden clusters are
// rejected with CLUSTER_HIDDEN.
func (s *Session) ToggleCollapse(clusterID string) error {
	return s.store.ToggleCollapse(clusterID)
}

// State returns the current state of a cluster.
func (s *Session) State(clusterID string) (cluster.State, error) {
	return s.store.State(clusterID)
}

// ToggleHidden hides or unhides a cluster.
func (s *Session) ToggleHidden(clusterID string) error {
	return s.store.ToggleHidden(clusterID)
}

// Reset restores the initial state and re-fits the viewport.
func (s *Session) Reset() {
	s.store.Reset()
}

// EngineStopped is called when the layout settles. The viewport is fitted
// the first time only; later settles leave the camera where the user put it.
func (s *Session) EngineStopped() {
	s.fitMu.Lock()
	first := !s.fitted
	s.fitted = true
	s.fitMu.Unlock()
	if first {
		s.viewport.FitToContent()
	}
}

// View recomputes visibility from the current state.
func (s *Session) View() visibility.View {
	start := time.Now()
	v := s.engine.Compute(s.store.Snapshot())
	st := v.Stats()
	observability.State().OnRecompute(context.Background(), st.VisibleNodes, st.VisibleLinks, time.Since(start))
	return v
}

// ClusterState pairs a cluster with its current state.
type ClusterState struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	State   string `json:"state"`
	Members int    `json:"members"`
}

// Clusters lists every cluster with its state, in declaration order.
func (s *Session) Clusters() []ClusterState {
	ids := s.store.IDs()
	out := make([]ClusterState, 0, len(ids))
	for _, id := range ids {
		st, _ := s.store.State(id)
		name := id
		if c, ok := s.data.Cluster(id); ok && c.Name != "" {
			name = c.Name
		}
		out = append(out, ClusterState{
			ID:      id,
			Name:    name,
			State:   st.String(),
			Members: len(s.data.Members(id)),
		})
	}
	return out
}
