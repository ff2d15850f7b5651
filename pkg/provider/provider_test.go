package provider

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/matzehuels/clusterview/pkg/cache"
	"github.com/matzehuels/clusterview/pkg/errors"
	"github.com/matzehuels/clusterview/pkg/graph"
)

const sample = `{
  "nodes": [
    {"id": "A", "clusterId": "A", "isClusterNode": true},
    {"id": "a1", "clusterId": "A"}
  ],
  "links": [{"source": "a1", "target": "A"}],
  "clusters": [{"id": "A"}]
}`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := os.WriteFile(path, []byte(sample), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFile(t *testing.T) {
	path := writeSample(t)
	p, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile() error: %v", err)
	}
	defer p.Close(context.Background())

	d, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(d.Nodes) != 2 || len(d.Links) != 1 || len(d.Clusters) != 1 {
		t.Errorf("Load() = %d nodes, %d links, %d clusters", len(d.Nodes), len(d.Links), len(d.Clusters))
	}
	if p.Source() != path {
		t.Errorf("Source() = %q, want %q", p.Source(), path)
	}
}

func TestFileErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		code errors.Code
	}{
		{"empty", "", errors.ErrCodeInvalidInput},
		{"extension", "graph.csv", errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFile(tt.path); !errors.Is(err, tt.code) {
				t.Errorf("NewFile(%q) = %v, want %s", tt.path, err, tt.code)
			}
		})
	}

	p, err := NewFile(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Load(context.Background()); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load() of missing file = %v, want FILE_NOT_FOUND", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Load(ctx); err != context.Canceled {
		t.Errorf("Load() with canceled context = %v", err)
	}
}

func TestOpenSelectsFile(t *testing.T) {
	p, err := Open(context.Background(), writeSample(t), Config{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(*File); !ok {
		t.Errorf("Open() = %T, want *File", p)
	}
}

func TestSplitMongoPath(t *testing.T) {
	cfg := Config{MongoDatabase: "graphs", MongoCollection: "datasets"}
	tests := []struct {
		path           string
		db, coll, name   string
	}{
		{"/checkout", "graphs", "datasets", "checkout"},
		{"/services/checkout", "graphs", "services", "checkout"},
		{"/prod/services/checkout", "prod", "services", "checkout"},
		{"", "graphs", "datasets", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			db, coll, name := splitMongoPath(tt.path, cfg)
			if db != tt.db || coll != tt.coll || name != tt.name {
				t.Errorf("splitMongoPath(%q) = %q, %q, %q", tt.path, db, coll, name)
			}
		})
	}
}

func TestOpenMongoRequiresName(t *testing.T) {
	_, err := OpenMongo(context.Background(), "mongodb://localhost:27017", Config{})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("OpenMongo() without a dataset name = %v, want INVALID_INPUT", err)
	}
}

func TestMongoRoundTrip(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	name := uuid.NewString()
	p, err := OpenMongo(ctx, uri+"/clusterview_test/datasets/"+name, Config{})
	if err != nil {
		t.Fatalf("OpenMongo() error: %v", err)
	}
	defer p.Close(ctx)

	if _, err := p.Load(ctx); !errors.IsNotFound(err) {
		t.Fatalf("Load() before Save = %v, want not found", err)
	}

	want, _ := graph.ReadDataset(bytes.NewReader([]byte(sample)), graph.FormatJSON)
	if err := p.Save(ctx, want); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := p.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Fingerprint() != want.Fingerprint() {
		t.Error("loaded dataset differs from saved one")
	}
}

func TestDatasetDocResolvedEndpoints(t *testing.T) {
	tests := []struct {
		name  string
		links []bson.M
		want  []graph.Link
	}{
		{"ids", []bson.M{{"source": "a1", "target": "A"}}, []graph.Link{{Source: "a1", Target: "A"}}},
		{"resolved objects", []bson.M{{"source": bson.M{"id": "a1"}, "target": bson.M{"id": "A", "x": 3.0}}}, []graph.Link{{Source: "a1", Target: "A"}}},
		{"mixed", []bson.M{{"source": bson.M{"id": "a1"}, "target": "A"}, {"source": "A", "target": bson.M{"id": "a1"}}}, []graph.Link{{Source: "a1", Target: "A"}, {Source: "A", Target: "a1"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := bson.Marshal(bson.M{
				"_id":   "demo",
				"nodes": []bson.M{{"id": "A", "cluster_id": "A", "is_cluster_node": true}, {"id": "a1", "cluster_id": "A"}},
				"links": tt.links,
			})
			if err != nil {
				t.Fatal(err)
			}
			var doc datasetDoc
			if err := bson.Unmarshal(raw, &doc); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if len(doc.Links) != len(tt.want) {
				t.Fatalf("links = %v, want %v", doc.Links, tt.want)
			}
			for i, l := range doc.Links {
				if l != tt.want[i] {
					t.Errorf("link %d = %v, want %v", i, l, tt.want[i])
				}
			}
		})
	}
}

type countingProvider struct {
	Provider
	loads int
}

func (p *countingProvider) Load(ctx context.Context) (*graph.Dataset, error) {
	p.loads++
	return p.Provider.Load(ctx)
}

func TestCached(t *testing.T) {
	file, err := NewFile(writeSample(t))
	if err != nil {
		t.Fatal(err)
	}
	inner := &countingProvider{Provider: file}
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	p := NewCached(inner, fc, nil, time.Hour, log.New(&bytes.Buffer{}))
	ctx := context.Background()

	first, err := p.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if inner.loads != 1 {
		t.Errorf("inner loads = %d, want 1", inner.loads)
	}
	if first.Fingerprint() != second.Fingerprint() {
		t.Error("cached dataset differs from source")
	}
	if p.Source() != file.Source() {
		t.Error("Source() should delegate to the inner provider")
	}
}

func TestCachedCorruptEntry(t *testing.T) {
	file, err := NewFile(writeSample(t))
	if err != nil {
		t.Fatal(err)
	}
	inner := &countingProvider{Provider: file}
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	keyer := cache.NewDefaultKeyer()
	ctx := context.Background()
	_ = fc.Set(ctx, keyer.DatasetKey(file.Source()), []byte("{broken"), 0)

	var logs bytes.Buffer
	p := NewCached(inner, fc, keyer, 0, log.New(&logs))
	if _, err := p.Load(ctx); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if inner.loads != 1 {
		t.Errorf("corrupt entry should fall back to the source, loads = %d", inner.loads)
	}
	if !bytes.Contains(logs.Bytes(), []byte("corrupt cached dataset")) {
		t.Errorf("expected a warning, got %q", logs.String())
	}
}

func TestCachedReloadsEditedFile(t *testing.T) {
	path := writeSample(t)
	file, err := NewFile(path)
	if err != nil {
		t.Fatal(err)
	}
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	p := NewCached(file, fc, nil, time.Hour, log.New(&bytes.Buffer{}))
	ctx := context.Background()

	before, err := p.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}

	edited := `{
  "nodes": [
    {"id": "A", "clusterId": "A", "isClusterNode": true},
    {"id": "B", "clusterId": "B", "isClusterNode": true}
  ],
  "links": [],
  "clusters": [{"id": "A", "name": "Checkout"}, {"id": "B", "name": "Payments and billing"}]
}`
	if err := os.WriteFile(path, []byte(edited), 0644); err != nil {
		t.Fatal(err)
	}

	after, err := p.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(before.Clusters) != 1 || len(after.Clusters) != 2 {
		t.Errorf("clusters before edit = %d, after edit = %d, want 1 and 2", len(before.Clusters), len(after.Clusters))
	}
}

func TestFileVersion(t *testing.T) {
	ctx := context.Background()
	first, err := NewFile(writeSample(t))
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewFile(writeSample(t))
	if err != nil {
		t.Fatal(err)
	}

	v1, err := first.Version(ctx)
	if err != nil {
		t.Fatalf("Version() error: %v", err)
	}
	v2, err := second.Version(ctx)
	if err != nil {
		t.Fatalf("Version() error: %v", err)
	}
	if v1 == v2 {
		t.Errorf("files with the same name in different directories share version %q", v1)
	}
	if !filepath.IsAbs(v1[:strings.LastIndex(v1, "@")]) {
		t.Errorf("Version() = %q, want an absolute path", v1)
	}

	missing, _ := NewFile(filepath.Join(t.TempDir(), "gone.json"))
	if _, err := missing.Version(ctx); err == nil {
		t.Error("Version() of a missing file should fail")
	}
}

func TestCachedMissingFileBypassesCache(t *testing.T) {
	missing, err := NewFile(filepath.Join(t.TempDir(), "gone.json"))
	if err != nil {
		t.Fatal(err)
	}
	p := NewCached(missing, cache.NewNullCache(), nil, time.Hour, log.New(&bytes.Buffer{}))
	if _, err := p.Load(context.Background()); errors.GetCode(err) != errors.ErrCodeFileNotFound {
		t.Errorf("Load() error = %v, want FILE_NOT_FOUND", err)
	}
}
