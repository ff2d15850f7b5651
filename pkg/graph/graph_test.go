package graph

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/matzehuels/clusterview/pkg/errors"
)

const sampleJSON = `{
  "nodes": [
    {"id": "A", "name": "Alpha", "clusterId": "A", "isClusterNode": true},
    {"id": "a1", "name": "a-one", "clusterId": "A"},
    {"id": "B", "name": "Beta", "clusterId": "B", "isClusterNode": true},
    {"id": "b1", "clusterId": "B"}
  ],
  "links": [
    {"source": "a1", "target": "B"},
    {"source": {"id": "b1", "x": 1.5}, "target": {"id": "B"}}
  ],
  "clusters": [{"id": "A", "name": "Alpha"}, {"id": "B", "name": "Beta"}]
}`

const sampleTOML = `
[[nodes]]
id = "A"
name = "Alpha"
clusterId = "A"
isClusterNode = true

[[nodes]]
id = "a1"
clusterId = "A"

[[links]]
source = "a1"
target = "A"

[[clusters]]
id = "A"
name = "Alpha"
`

const sampleTOMLResolved = `
[[nodes]]
id = "A"
clusterId = "A"
isClusterNode = true

[[nodes]]
id = "a1"
clusterId = "A"

[[links]]
source = { id = "a1" }
target = { id = "A", x = 1.5 }

[[clusters]]
id = "A"
`

const sampleYAML = `
nodes:
  - {id: A, name: Alpha, clusterId: A, isClusterNode: true}
  - {id: a1, clusterId: A}
links:
  - source: a1
    target: {id: A}
clusters:
  - {id: A, name: Alpha}
`

func TestReadDatasetJSON(t *testing.T) {
	d, err := ReadDataset(strings.NewReader(sampleJSON), FormatJSON)
	if err != nil {
		t.Fatalf("ReadDataset: %v", err)
	}

	if len(d.Nodes) != 4 || len(d.Links) != 2 || len(d.Clusters) != 2 {
		t.Fatalf("got %d nodes, %d links, %d clusters", len(d.Nodes), len(d.Links), len(d.Clusters))
	}

	// resolved references decode to ids
	if got := d.Links[1]; got.Source != "b1" || got.Target != "B" {
		t.Errorf("resolved link = %+v, want b1->B", got)
	}

	n, ok := d.Node("a1")
	if !ok {
		t.Fatal("Node(a1) not found")
	}
	if n.ClusterID != "A" || n.IsClusterNode {
		t.Errorf("Node(a1) = %+v", n)
	}
	if n.DisplayName() != "a-one" {
		t.Errorf("DisplayName() = %q, want a-one", n.DisplayName())
	}
	if b1, _ := d.Node("b1"); b1.DisplayName() != "b1" {
		t.Errorf("DisplayName() fallback = %q, want b1", b1.DisplayName())
	}
}

func TestReadDatasetFormats(t *testing.T) {
	tests := []struct {
		name   string
		format string
		input  string
	}{
		{"toml", FormatTOML, sampleTOML},
		{"toml resolved endpoints", FormatTOML, sampleTOMLResolved},
		{"yaml", FormatYAML, sampleYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ReadDataset(strings.NewReader(tt.input), tt.format)
			if err != nil {
				t.Fatalf("ReadDataset: %v", err)
			}
			if len(d.Nodes) != 2 {
				t.Errorf("nodes = %d, want 2", len(d.Nodes))
			}
			if len(d.Links) != 1 || d.Links[0].Source != "a1" || d.Links[0].Target != "A" {
				t.Errorf("links = %+v, want [a1->A]", d.Links)
			}
			head, ok := d.Node("A")
			if !ok || !head.IsClusterNode {
				t.Errorf("head node = %+v, ok=%v", head, ok)
			}
			if issues := d.Check(); len(issues) != 0 {
				t.Errorf("Check() = %v, want none", issues)
			}
		})
	}
}

func TestReadDatasetErrors(t *testing.T) {
	tests := []struct {
		name   string
		format string
		input  string
	}{
		{"broken json", FormatJSON, `{"nodes": [`},
		{"broken toml", FormatTOML, `[[nodes]`},
		{"toml endpoint without id", FormatTOML, "[[links]]\nsource = { name = \"a1\" }\ntarget = \"A\"\n"},
		{"toml numeric endpoint", FormatTOML, "[[links]]\nsource = 3\ntarget = \"A\"\n"},
		{"broken yaml", FormatYAML, "nodes: [\n"},
		{"unknown format", "xml", `<nodes/>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDataset(strings.NewReader(tt.input), tt.format)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidFormat)
			}
		})
	}
}

func TestLinkUnmarshalBSON(t *testing.T) {
	tests := []struct {
		name string
		doc  bson.M
		want Link
	}{
		{"ids", bson.M{"source": "a1", "target": "B"}, Link{Source: "a1", Target: "B"}},
		{"resolved source", bson.M{"source": bson.M{"id": "a1", "x": 1.5}, "target": "B"}, Link{Source: "a1", Target: "B"}},
		{"resolved both", bson.M{"source": bson.M{"id": "b1"}, "target": bson.M{"id": "A"}}, Link{Source: "b1", Target: "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := bson.Marshal(tt.doc)
			if err != nil {
				t.Fatal(err)
			}
			var got Link
			if err := bson.Unmarshal(raw, &got); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReadDatasetFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	if err := os.WriteFile(path, []byte(sampleJSON), 0644); err != nil {
		t.Fatal(err)
	}

	d, err := ReadDatasetFile(path)
	if err != nil {
		t.Fatalf("ReadDatasetFile: %v", err)
	}
	if len(d.ClusterIDs()) != 2 {
		t.Errorf("ClusterIDs() = %v", d.ClusterIDs())
	}

	_, err = ReadDatasetFile(filepath.Join(dir, "missing.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want %v", err, errors.ErrCodeFileNotFound)
	}

	_, err = ReadDatasetFile(filepath.Join(dir, "graph.csv"))
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("bad extension error = %v, want %v", err, errors.ErrCodeInvalidFormat)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"g.json", FormatJSON, false},
		{"g.JSON", FormatJSON, false},
		{"g.toml", FormatTOML, false},
		{"g.yaml", FormatYAML, false},
		{"g.yml", FormatYAML, false},
		{"g.txt", "", true},
		{"g", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FormatFromPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FormatFromPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestWriteDatasetRoundTrip(t *testing.T) {
	d, err := ReadDataset(strings.NewReader(sampleJSON), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteDataset(d, &buf); err != nil {
		t.Fatalf("WriteDataset: %v", err)
	}

	back, err := ReadDataset(&buf, FormatJSON)
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if back.Fingerprint() != d.Fingerprint() {
		t.Error("fingerprint changed across write/read")
	}
}

func TestClusterIDsDeduplicates(t *testing.T) {
	d := New(nil, nil, []Cluster{{ID: "x"}, {ID: "y"}, {ID: "x"}})

	got := d.ClusterIDs()
	if len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("ClusterIDs() = %v, want [x y]", got)
	}
}

func TestMembers(t *testing.T) {
	d, _ := ReadDataset(strings.NewReader(sampleJSON), FormatJSON)

	members := d.Members("A")
	if len(members) != 2 {
		t.Fatalf("Members(A) = %v", members)
	}
	if len(d.Members("missing")) != 0 {
		t.Error("Members(missing) should be empty")
	}
}

func TestFingerprint(t *testing.T) {
	a := New([]Node{{ID: "n", ClusterID: "c"}}, nil, []Cluster{{ID: "c"}})
	b := New([]Node{{ID: "n", ClusterID: "c"}}, nil, []Cluster{{ID: "c"}})
	c := New([]Node{{ID: "m", ClusterID: "c"}}, nil, []Cluster{{ID: "c"}})

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical datasets should share a fingerprint")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("different datasets should not share a fingerprint")
	}
	if len(a.Fingerprint()) != 64 {
		t.Errorf("fingerprint length = %d, want 64", len(a.Fingerprint()))
	}
}

func TestCheck(t *testing.T) {
	d := New(
		[]Node{
			{ID: "A", ClusterID: "A", IsClusterNode: true},
			{ID: "a1", ClusterID: "A"},
			{ID: "a1", ClusterID: "A"},
			{ID: "z1", ClusterID: "Z"},
		},
		[]Link{
			{Source: "a1", Target: "A"},
			{Source: "a1", Target: "ghost"},
		},
		[]Cluster{{ID: "A"}, {ID: "E"}},
	)

	counts := map[errors.Code]int{}
	for _, issue := range d.Check() {
		counts[issue.Code]++
	}

	want := map[errors.Code]int{
		errors.ErrCodeDuplicateID:              1, // a1
		errors.ErrCodeDanglingClusterReference: 1, // z1 -> Z
		errors.ErrCodeDanglingLinkEndpoint:     1, // ghost
		errors.ErrCodeUnknownNode:              1, // E has no head
	}
	for code, n := range want {
		if counts[code] != n {
			t.Errorf("issues[%s] = %d, want %d", code, counts[code], n)
		}
	}
}

func TestIssueString(t *testing.T) {
	i := Issue{Code: errors.ErrCodeDanglingLinkEndpoint, Subject: "a->b", Message: "endpoint \"b\" does not exist"}
	want := `DANGLING_LINK_ENDPOINT a->b: endpoint "b" does not exist`
	if i.String() != want {
		t.Errorf("String() = %q, want %q", i.String(), want)
	}
}
