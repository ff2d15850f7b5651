package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Node
// =============================================================================

// Node is a vertex of the graph.
type Node struct {
	ID            string `json:"id" toml:"id" yaml:"id" bson:"id"`
	Name          string `json:"name,omitempty" toml:"name" yaml:"name,omitempty" bson:"name,omitempty"`
	ClusterID     string `json:"clusterId" toml:"clusterId" yaml:"clusterId" bson:"cluster_id"`
	IsClusterNode bool   `json:"isClusterNode,omitempty" toml:"isClusterNode" yaml:"isClusterNode,omitempty" bson:"is_cluster_node,omitempty"`
}

// DisplayName returns the name if set, otherwise the ID.
func (n Node) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

// =============================================================================
// Link
// =============================================================================

// Link is a directed connection from Source to Target (node ids).
type Link struct {
	Source string `json:"source" toml:"source" yaml:"source" bson:"source"`
	Target string `json:"target" toml:"target" yaml:"target" bson:"target"`
}

// String renders the link as "source->target".
func (l Link) String() string { return l.Source + "->" + l.Target }

// endpoint decodes either a bare node id or a resolved node reference.
type endpoint string

func (e *endpoint) UnmarshalJSON(b []byte) error {
	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		*e = endpoint(id)
		return nil
	}
	var ref struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &ref); err != nil {
		return fmt.Errorf("link endpoint: %w", err)
	}
	*e = endpoint(ref.ID)
	return nil
}

func (e *endpoint) UnmarshalYAML(v *yaml.Node) error {
	if v.Kind == yaml.ScalarNode {
		*e = endpoint(v.Value)
		return nil
	}
	var ref struct {
		ID string `yaml:"id"`
	}
	if err := v.Decode(&ref); err != nil {
		return fmt.Errorf("link endpoint: %w", err)
	}
	*e = endpoint(ref.ID)
	return nil
}

func (e *endpoint) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	if id, ok := raw.StringValueOK(); ok {
		*e = endpoint(id)
		return nil
	}
	var ref struct {
		ID string `bson:"id"`
	}
	if err := raw.Unmarshal(&ref); err != nil {
		return fmt.Errorf("link endpoint: %w", err)
	}
	*e = endpoint(ref.ID)
	return nil
}

// endpointFromTOML converts a decoded TOML value: a string id or an
// inline table with an id key.
func endpointFromTOML(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case map[string]any:
		id, ok := x["id"].(string)
		if !ok {
			return "", fmt.Errorf("link endpoint: table without string id")
		}
		return id, nil
	}
	return "", fmt.Errorf("link endpoint: unsupported TOML value %T", v)
}

// UnmarshalJSON accepts endpoints as ids or as {"id": ...} objects.
func (l *Link) UnmarshalJSON(b []byte) error {
	var raw struct {
		Source endpoint `json:"source"`
		Target endpoint `json:"target"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	l.Source, l.Target = string(raw.Source), string(raw.Target)
	return nil
}

// UnmarshalYAML accepts endpoints as ids or as mappings with an id key.
func (l *Link) UnmarshalYAML(v *yaml.Node) error {
	var raw struct {
		Source endpoint `yaml:"source"`
		Target endpoint `yaml:"target"`
	}
	if err := v.Decode(&raw); err != nil {
		return err
	}
	l.Source, l.Target = string(raw.Source), string(raw.Target)
	return nil
}

// UnmarshalTOML accepts endpoints as ids or as inline tables with an id key.
func (l *Link) UnmarshalTOML(v any) error {
	table, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("link: expected table, got %T", v)
	}
	src, err := endpointFromTOML(table["source"])
	if err != nil {
		return err
	}
	dst, err := endpointFromTOML(table["target"])
	if err != nil {
		return err
	}
	l.Source, l.Target = src, dst
	return nil
}

// UnmarshalBSON accepts endpoints as ids or as embedded documents with an
// id field.
func (l *Link) UnmarshalBSON(data []byte) error {
	var raw struct {
		Source endpoint `bson:"source"`
		Target endpoint `bson:"target"`
	}
	if err := bson.Unmarshal(data, &raw); err != nil {
		return err
	}
	l.Source, l.Target = string(raw.Source), string(raw.Target)
	return nil
}

// =============================================================================
// Cluster
// =============================================================================

// Cluster is a named group of nodes. ID matches the ID of its head node.
type Cluster struct {
	ID   string `json:"id" toml:"id" yaml:"id" bson:"id"`
	Name string `json:"name,omitempty" toml:"name" yaml:"name,omitempty" bson:"name,omitempty"`
}

// =============================================================================
// Dataset
// =============================================================================

// Dataset is the immutable input of a session.
//
// The zero value is an empty dataset. Lookup indexes are built lazily on
// first use; callers must not mutate the slices after that.
type Dataset struct {
	Nodes    []Node    `json:"nodes" toml:"nodes" yaml:"nodes" bson:"nodes"`
	Links    []Link    `json:"links" toml:"links" yaml:"links" bson:"links"`
	Clusters []Cluster `json:"clusters" toml:"clusters" yaml:"clusters" bson:"clusters"`

	once      sync.Once
	nodeIdx   map[string]int
	clusterIx map[string]int
}

// New creates a dataset from its parts and builds the lookup indexes.
func New(nodes []Node, links []Link, clusters []Cluster) *Dataset {
	d := &Dataset{Nodes: nodes, Links: links, Clusters: clusters}
	d.index()
	return d
}

func (d *Dataset) index() {
	d.once.Do(func() {
		d.nodeIdx = make(map[string]int, len(d.Nodes))
		for i, n := range d.Nodes {
			if _, dup := d.nodeIdx[n.ID]; !dup {
				d.nodeIdx[n.ID] = i
			}
		}
		d.clusterIx = make(map[string]int, len(d.Clusters))
		for i, c := range d.Clusters {
			if _, dup := d.clusterIx[c.ID]; !dup {
				d.clusterIx[c.ID] = i
			}
		}
	})
}

// Node returns the node with the given id. For duplicated ids the first
// declaration wins.
func (d *Dataset) Node(id string) (Node, bool) {
	d.index()
	i, ok := d.nodeIdx[id]
	if !ok {
		return Node{}, false
	}
	return d.Nodes[i], true
}

// Cluster returns the cluster with the given id.
func (d *Dataset) Cluster(id string) (Cluster, bool) {
	d.index()
	i, ok := d.clusterIx[id]
	if !ok {
		return Cluster{}, false
	}
	return d.Clusters[i], true
}

// HasCluster reports whether id names a declared cluster.
func (d *Dataset) HasCluster(id string) bool {
	d.index()
	_, ok := d.clusterIx[id]
	return ok
}

// ClusterIDs returns every distinct cluster id in declaration order.
// It seeds the initial collapsed state of a session.
func (d *Dataset) ClusterIDs() []string {
	ids := make([]string, 0, len(d.Clusters))
	seen := make(map[string]struct{}, len(d.Clusters))
	for _, c := range d.Clusters {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		ids = append(ids, c.ID)
	}
	return ids
}

// Members returns the nodes belonging to cluster id, head node included.
func (d *Dataset) Members(id string) []Node {
	var out []Node
	for _, n := range d.Nodes {
		if n.ClusterID == id {
			out = append(out, n)
		}
	}
	return out
}

// Fingerprint returns a SHA-256 hex digest of the dataset content.
// Two datasets with identical lists produce the same fingerprint.
func (d *Dataset) Fingerprint() string {
	data, _ := json.Marshal(struct {
		N []Node    `json:"n"`
		L []Link    `json:"l"`
		C []Cluster `json:"c"`
	}{d.Nodes, d.Links, d.Clusters})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
