package session

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/clusterview/pkg/cluster"
	"github.com/matzehuels/clusterview/pkg/errors"
	"github.com/matzehuels/clusterview/pkg/graph"
	"github.com/matzehuels/clusterview/pkg/layout"
	"github.com/matzehuels/clusterview/pkg/observability"
	"github.com/matzehuels/clusterview/pkg/visibility"
)

func dataset() *graph.Dataset {
	return graph.New(
		[]graph.Node{
			{ID: "A", Name: "Alpha", ClusterID: "A", IsClusterNode: true},
			{ID: "a1", ClusterID: "A"},
			{ID: "B", ClusterID: "B", IsClusterNode: true},
			{ID: "b1", ClusterID: "B"},
		},
		[]graph.Link{{Source: "a1", Target: "B"}, {Source: "b1", Target: "a1"}},
		[]graph.Cluster{{ID: "A", Name: "Alpha"}, {ID: "B"}},
	)
}

type countingViewport struct{ fits int }

func (v *countingViewport) FitToContent() { v.fits++ }

func newSession(t *testing.T, opts ...Option) (*Session, *countingViewport) {
	t.Helper()
	vp := &countingViewport{}
	opts = append([]Option{WithViewport(vp), WithLogger(log.New(&bytes.Buffer{}))}, opts...)
	s, err := New(dataset(), opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return s, vp
}

func TestNewSeedsCollapsedState(t *testing.T) {
	s, _ := newSession(t)

	for _, id := range []string{"A", "B"} {
		if !s.Store().Collapsed(id) || s.Store().Hidden(id) {
			t.Errorf("cluster %s should start collapsed and visible", id)
		}
	}
	if s.ID == "" {
		t.Error("session should have an id")
	}
	if s.Params() != layout.DefaultParams() {
		t.Errorf("Params() = %+v, want defaults", s.Params())
	}
}

func TestNewRejectsInvalidInput(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("New(nil) error = %v, want INVALID_INPUT", err)
	}
	_, err := New(dataset(), WithParams(layout.Params{CollisionRadius: -1}))
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("New() with bad params error = %v, want INVALID_INPUT", err)
	}
}

func TestLayoutConfiguredOnce(t *testing.T) {
	s, _ := newSession(t)
	if !s.layout.Configured() {
		t.Fatal("layout should be configured at construction")
	}
	if err := s.layout.Configure(s.Renderer()); err != layout.ErrAlreadyConfigured {
		t.Errorf("second Configure() = %v, want ErrAlreadyConfigured", err)
	}

	_ = s.ClickNode("A")
	_ = s.ToggleHidden("B")
	s.Reset()
	if s.Params() != layout.DefaultParams() {
		t.Error("layout params must not change with cluster state")
	}
}

func TestClickNode(t *testing.T) {
	s, _ := newSession(t)

	if err := s.ClickNode("a1"); err != nil {
		t.Fatalf("ClickNode() error: %v", err)
	}
	if s.Store().Collapsed("A") {
		t.Error("clicking a member should toggle its cluster")
	}
	if err := s.ClickNode("A"); err != nil {
		t.Fatal(err)
	}
	if !s.Store().Collapsed("A") {
		t.Error("clicking the head again should collapse the cluster")
	}

	err := s.ClickNode("zz")
	if !errors.Is(err, errors.ErrCodeUnknownNode) {
		t.Errorf("ClickNode(unknown) = %v, want UNKNOWN_NODE", err)
	}
}

func TestClickNodeInHiddenCluster(t *testing.T) {
	s, _ := newSession(t)

	if err := s.ToggleHidden("A"); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"A", "a1"} {
		err := s.ClickNode(id)
		if !errors.Is(err, errors.ErrCodeClusterHidden) {
			t.Errorf("ClickNode(%s) on hidden cluster = %v, want CLUSTER_HIDDEN", id, err)
		}
	}
	if st, _ := s.State("A"); st != cluster.Hidden {
		t.Errorf("State(A) = %v, want hidden", st)
	}
	if !s.Store().Collapsed("A") {
		t.Error("hidden cluster must stay collapsed")
	}
	if st := s.View().Stats(); st.Nodes != 2 {
		t.Errorf("view nodes = %d, want 2 (cluster B only)", st.Nodes)
	}

	if err := s.ToggleHidden("A"); err != nil {
		t.Fatal(err)
	}
	if err := s.ClickNode("A"); err != nil {
		t.Fatalf("ClickNode after unhide: %v", err)
	}
	if st, _ := s.State("A"); st != cluster.Expanded {
		t.Errorf("State(A) = %v, want expanded", st)
	}
}

func TestClickNodeUndeclaredCluster(t *testing.T) {
	d := graph.New([]graph.Node{{ID: "x", ClusterID: "Z"}}, nil, nil)
	s, err := New(d, WithLogger(log.New(&bytes.Buffer{})))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.ClickNode("x"); !errors.Is(err, errors.ErrCodeUnknownCluster) {
		t.Errorf("ClickNode() = %v, want UNKNOWN_CLUSTER", err)
	}
}

func TestViewportFit(t *testing.T) {
	s, vp := newSession(t)

	s.EngineStopped()
	s.EngineStopped()
	if vp.fits != 1 {
		t.Errorf("fits after two settles = %d, want 1", vp.fits)
	}

	_ = s.ClickNode("A")
	if vp.fits != 1 {
		t.Error("toggles must not re-fit the viewport")
	}

	s.Reset()
	s.Reset()
	if vp.fits != 3 {
		t.Errorf("fits after two resets = %d, want 3", vp.fits)
	}
}

func TestView(t *testing.T) {
	s, _ := newSession(t)

	st := s.View().Stats()
	if st.Nodes != 4 || st.VisibleNodes != 0 || st.VisibleLinks != 1 {
		t.Errorf("initial stats = %+v", st)
	}

	_ = s.ClickNode("A")
	_ = s.ToggleHidden("B")
	v := s.View()
	if st := v.Stats(); st.Nodes != 2 || st.VisibleNodes != 2 || st.Links != 0 {
		t.Errorf("stats after expand A, hide B = %+v", st)
	}
}

func TestClusters(t *testing.T) {
	s, _ := newSession(t)
	_ = s.ClickNode("A")
	_ = s.ToggleHidden("B")

	got := s.Clusters()
	want := []ClusterState{
		{ID: "A", Name: "Alpha", State: cluster.Expanded.String(), Members: 2},
		{ID: "B", Name: "B", State: cluster.Hidden.String(), Members: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("Clusters() = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Clusters()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

type recordingHooks struct {
	observability.NoopStateHooks
	toggles    []string
	resets     int
	recomputes int
}

func (h *recordingHooks) OnToggle(_ context.Context, kind, id string) {
	h.toggles = append(h.toggles, kind+":"+id)
}
func (h *recordingHooks) OnReset(context.Context) { h.resets++ }
func (h *recordingHooks) OnRecompute(context.Context, int, int, time.Duration) {
	h.recomputes++
}

func TestStateHooks(t *testing.T) {
	observability.Reset()
	defer observability.Reset()
	hooks := &recordingHooks{}
	observability.SetStateHooks(hooks)

	s, _ := newSession(t)
	_ = s.ClickNode("A")
	_ = s.ToggleHidden("A")
	s.Reset()
	_ = s.View()

	want := []string{"collapse:A", "collapse:A", "hidden:A"}
	if len(hooks.toggles) != len(want) {
		t.Fatalf("toggles = %v, want %v", hooks.toggles, want)
	}
	for i := range want {
		if hooks.toggles[i] != want[i] {
			t.Errorf("toggles[%d] = %q, want %q", i, hooks.toggles[i], want[i])
		}
	}
	if hooks.resets != 1 || hooks.recomputes != 1 {
		t.Errorf("resets = %d, recomputes = %d", hooks.resets, hooks.recomputes)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(WithLogger(log.New(&bytes.Buffer{})))

	s, err := r.Create(dataset())
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}

	got, err := r.Get(s.ID)
	if err != nil || got != s {
		t.Errorf("Get() = %v, %v", got, err)
	}

	tests := []struct {
		name string
		id   string
		code errors.Code
	}{
		{"malformed", "not-a-uuid", errors.ErrCodeInvalidID},
		{"unknown", "6f1c2a7e-0000-4000-8000-000000000000", errors.ErrCodeSessionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Get(tt.id); !errors.Is(err, tt.code) {
				t.Errorf("Get(%q) = %v, want %s", tt.id, err, tt.code)
			}
		})
	}

	if err := r.Delete(s.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := r.Get(s.ID); !errors.IsNotFound(err) {
		t.Errorf("Get() after Delete = %v, want not found", err)
	}
	if err := r.Delete(s.ID); !errors.IsNotFound(err) {
		t.Errorf("second Delete() = %v, want not found", err)
	}
}

func TestRegistrySessionsAreIndependent(t *testing.T) {
	r := NewRegistry(WithLogger(log.New(&bytes.Buffer{})))
	s1, _ := r.Create(dataset())
	s2, _ := r.Create(dataset())

	_ = s1.ClickNode("A")
	if !s2.Store().Collapsed("A") {
		t.Error("sessions must not share cluster state")
	}
	if s1.ID == s2.ID {
		t.Error("session ids must be unique")
	}
}

func TestRegistrySharesEngine(t *testing.T) {
	d := graph.New(
		[]graph.Node{{ID: "A", ClusterID: "A", IsClusterNode: true}},
		[]graph.Link{{Source: "A", Target: "ghost"}},
		[]graph.Cluster{{ID: "A"}},
	)
	var logs bytes.Buffer
	r := NewRegistry(WithLogger(log.New(&logs)))

	s1, err := r.Create(d)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := r.Create(d)
	if err != nil {
		t.Fatal(err)
	}

	if s1.engine != s2.engine {
		t.Error("sessions over one dataset should share an engine")
	}
	if n := strings.Count(logs.String(), "link endpoint missing"); n != 1 {
		t.Errorf("dangling link warned %d times, want 1:\n%s", n, logs.String())
	}
}

func TestWithEngine(t *testing.T) {
	d := dataset()
	eng := visibility.New(d, visibility.WithLogger(log.New(&bytes.Buffer{})))

	if _, err := New(dataset(), WithEngine(eng)); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("engine for another dataset = %v, want INVALID_INPUT", err)
	}

	s, err := New(d, WithEngine(eng), WithLogger(log.New(&bytes.Buffer{})))
	if err != nil {
		t.Fatal(err)
	}
	if s.engine != eng {
		t.Error("WithEngine was ignored")
	}
}
