package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/clusterview/pkg/errors"
	"github.com/matzehuels/clusterview/pkg/graph"
	"github.com/matzehuels/clusterview/pkg/observability"
)

func dataset() *graph.Dataset {
	return graph.New(
		[]graph.Node{
			{ID: "A", ClusterID: "A", IsClusterNode: true},
			{ID: "a1", ClusterID: "A"},
			{ID: "B", ClusterID: "B", IsClusterNode: true},
			{ID: "b1", ClusterID: "B"},
		},
		[]graph.Link{{Source: "a1", Target: "B"}, {Source: "b1", Target: "a1"}},
		[]graph.Cluster{{ID: "A"}, {ID: "B"}},
	)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := New(dataset(), Options{
		Logger:   log.New(&bytes.Buffer{}),
		Gatherer: prometheus.NewRegistry(),
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeSession(t *testing.T, resp *http.Response) sessionResponse {
	t.Helper()
	var body sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body
}

func createSession(t *testing.T, ts *httptest.Server) sessionResponse {
	t.Helper()
	resp := do(t, http.MethodPost, ts.URL+"/sessions")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /sessions status = %d", resp.StatusCode)
	}
	return decodeSession(t, resp)
}

func clusterState(body sessionResponse, id string) string {
	for _, c := range body.Clusters {
		if c.ID == id {
			return c.State
		}
	}
	return ""
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	created := createSession(t, ts)

	if created.ID == "" {
		t.Fatal("created session has no id")
	}
	if clusterState(created, "A") != "collapsed" || created.Stats.VisibleNodes != 0 {
		t.Errorf("initial session = %+v", created)
	}

	base := ts.URL + "/sessions/" + created.ID

	resp := do(t, http.MethodPost, base+"/nodes/a1/click")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("click status = %d", resp.StatusCode)
	}
	if got := decodeSession(t, resp); clusterState(got, "A") != "expanded" {
		t.Errorf("after click A = %q, want expanded", clusterState(got, "A"))
	}

	resp = do(t, http.MethodPost, base+"/clusters/B/hide")
	got := decodeSession(t, resp)
	if clusterState(got, "B") != "hidden" || got.Stats.Nodes != 2 || got.Stats.Links != 0 {
		t.Errorf("after hide B = %+v", got)
	}

	resp = do(t, http.MethodGet, base)
	if got := decodeSession(t, resp); clusterState(got, "B") != "hidden" {
		t.Error("GET should return the current state")
	}

	resp = do(t, http.MethodPost, base+"/reset")
	got = decodeSession(t, resp)
	if clusterState(got, "A") != "collapsed" || clusterState(got, "B") != "collapsed" {
		t.Errorf("after reset = %+v", got.Clusters)
	}

	if resp := do(t, http.MethodDelete, base); resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE status = %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodGet, base); resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET after DELETE status = %d", resp.StatusCode)
	}
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts).ID

	tests := []struct {
		name   string
		method string
		path   string
		status int
		code   errors.Code
	}{
		{"unknown node", http.MethodPost, "/sessions/" + id + "/nodes/zz/click", http.StatusNotFound, errors.ErrCodeUnknownNode},
		{"unknown cluster", http.MethodPost, "/sessions/" + id + "/clusters/zz/hide", http.StatusNotFound, errors.ErrCodeUnknownCluster},
		{"unknown session", http.MethodGet, "/sessions/6f1c2a7e-0000-4000-8000-000000000000", http.StatusNotFound, errors.ErrCodeSessionNotFound},
		{"malformed session", http.MethodGet, "/sessions/abc", http.StatusBadRequest, errors.ErrCodeInvalidID},
		{"hide B", http.MethodPost, "/sessions/" + id + "/clusters/B/hide", http.StatusOK, ""},
		{"click in hidden cluster", http.MethodPost, "/sessions/" + id + "/nodes/b1/click", http.StatusConflict, errors.ErrCodeClusterHidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, tt.method, ts.URL+tt.path)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var body errorBody
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Error.Code != tt.code {
				t.Errorf("code = %s, want %s", body.Error.Code, tt.code)
			}
		})
	}
}

func TestUnknownClusterLeavesStateUnchanged(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts).ID

	_ = do(t, http.MethodPost, fmt.Sprintf("%s/sessions/%s/clusters/zz/hide", ts.URL, id))
	got := decodeSession(t, do(t, http.MethodGet, ts.URL+"/sessions/"+id))
	for _, c := range got.Clusters {
		if c.State != "collapsed" {
			t.Errorf("cluster %s = %s after rejected toggle", c.ID, c.State)
		}
	}
}

func TestSVG(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts).ID

	resp := do(t, http.MethodGet, ts.URL+"/sessions/"+id+"/svg")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), "<svg") {
		t.Error("response missing <svg> tag")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	hooks, err := observability.NewPrometheusHooks(reg)
	if err != nil {
		t.Fatal(err)
	}
	observability.Reset()
	defer observability.Reset()
	hooks.Install()

	s := New(dataset(), Options{Logger: log.New(&bytes.Buffer{}), Gatherer: reg})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	_ = createSession(t, ts)

	resp := do(t, http.MethodGet, ts.URL+"/healthz")
	var health struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "ok" || health.Sessions != 1 {
		t.Errorf("health = %+v", health)
	}

	resp = do(t, http.MethodGet, ts.URL+"/metrics")
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), `clusterview_http_requests_total{code="201",method="POST",route="/sessions`) {
		t.Errorf("metrics missing request counter:\n%s", buf.String())
	}
}
