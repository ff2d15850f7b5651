package cache

import "github.com/matzehuels/clusterview/pkg/cluster"

// RenderKeyOpts holds the render options that affect output bytes.
type RenderKeyOpts struct {
	Format     string  `json:"format"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Background string  `json:"background"`
	Scale      float64 `json:"scale"`
	Params     any     `json:"params,omitempty"`

	NodeRelSize float64 `json:"node_rel_size,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// RenderKey returns the key of a rendered view of the dataset with the
	// given fingerprint, in the given cluster state.
	RenderKey(datasetHash string, state cluster.Snapshot, opts RenderKeyOpts) string

	// DatasetKey returns the key of a decoded dataset loaded from source.
	DatasetKey(source string) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// RenderKey implements [Keyer]. Snapshot ids come back sorted, so the key
// does not depend on toggle order.
func (DefaultKeyer) RenderKey(datasetHash string, state cluster.Snapshot, opts RenderKeyOpts) string {
	return hashKey("render", datasetHash, state.CollapsedIDs(), state.HiddenIDs(), opts)
}

// DatasetKey implements [Keyer].
func (DefaultKeyer) DatasetKey(source string) string {
	return hashKey("dataset", source)
}

// ScopedKeyer wraps a Keyer with a prefix, giving a shared backend such as
// Redis a separate namespace per deployment.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "clusterview:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// RenderKey generates a prefixed render key.
func (k *ScopedKeyer) RenderKey(datasetHash string, state cluster.Snapshot, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(datasetHash, state, opts)
}

// DatasetKey generates a prefixed dataset key.
func (k *ScopedKeyer) DatasetKey(source string) string {
	return k.prefix + k.inner.DatasetKey(source)
}
