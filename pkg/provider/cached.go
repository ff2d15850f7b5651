package provider

import (
	"bytes"
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/clusterview/pkg/cache"
	"github.com/matzehuels/clusterview/pkg/graph"
)

// Cached serves datasets from a cache, falling back to the inner provider
// and storing what it returns. Cache errors degrade to a direct load.
type Cached struct {
	inner  Provider
	cache  cache.Cache
	keyer  cache.Keyer
	ttl    time.Duration
	logger *log.Logger
}

// NewCached wraps inner. A nil keyer uses the default keyer.
func NewCached(inner Provider, c cache.Cache, keyer cache.Keyer, ttl time.Duration, logger *log.Logger) *Cached {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Cached{inner: inner, cache: c, keyer: keyer, ttl: ttl, logger: logger}
}

// Load serves the dataset from the cache when the source is unchanged.
// Sources implementing [Versioned] are keyed by their version; a source
// whose version cannot be read is loaded directly.
func (p *Cached) Load(ctx context.Context) (*graph.Dataset, error) {
	identity := p.inner.Source()
	if v, ok := p.inner.(Versioned); ok {
		version, err := v.Version(ctx)
		if err != nil {
			p.logger.Debug("dataset version unavailable, bypassing cache", "source", identity, "err", err)
			return p.inner.Load(ctx)
		}
		identity = version
	}
	key := p.keyer.DatasetKey(identity)

	data, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.Warn("dataset cache read failed", "source", p.inner.Source(), "err", err)
	}
	if ok {
		d, err := graph.ReadDataset(bytes.NewReader(data), graph.FormatJSON)
		if err == nil {
			p.logger.Debug("dataset cache hit", "source", p.inner.Source())
			return d, nil
		}
		p.logger.Warn("discarding corrupt cached dataset", "source", p.inner.Source(), "err", err)
	}

	d, err := p.inner.Load(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := graph.MarshalDataset(d); err == nil {
		if err := p.cache.Set(ctx, key, data, p.ttl); err != nil {
			p.logger.Warn("dataset cache write failed", "source", p.inner.Source(), "err", err)
		}
	}
	return d, nil
}

func (p *Cached) Source() string { return p.inner.Source() }

func (p *Cached) Close(ctx context.Context) error { return p.inner.Close(ctx) }

var _ Provider = (*Cached)(nil)
