// Package provider loads datasets from their backing sources.
//
// A [Provider] returns an immutable [graph.Dataset]. Two backends exist: a
// local file ([File]) in JSON, TOML, or YAML, and a MongoDB collection
// ([Mongo]) holding one document per dataset. [Cached] puts any provider
// behind a [cache.Cache] so repeated loads skip the source.
//
// [Open] picks the backend from a source string:
//
//	p, err := provider.Open(ctx, "graph.json", provider.Config{})
//	p, err := provider.Open(ctx, "mongodb://localhost:27017/graphs/services", provider.Config{})
package provider

import (
	"context"
	"strings"

	"github.com/matzehuels/clusterview/pkg/graph"
)

// Provider loads a dataset.
type Provider interface {
	// Load returns the dataset. Each call may hit the source again.
	Load(ctx context.Context) (*graph.Dataset, error)

	// Source identifies the dataset, for logs and cache keys.
	Source() string

	// Close releases connections held by the provider.
	Close(ctx context.Context) error
}

// Versioned is implemented by providers that can identify the current
// content of their source without loading it. [Cached] keys entries by the
// version, so an edited source is never served from a stale entry.
type Versioned interface {
	Version(ctx context.Context) (string, error)
}

// Config holds settings shared by providers created through [Open].
type Config struct {
	// MongoDatabase and MongoCollection apply when the source URI does not
	// name them.
	MongoDatabase   string
	MongoCollection string
}

// Open returns a provider for source. mongodb:// and mongodb+srv:// URIs
// select [Mongo]; anything else is a file path.
func Open(ctx context.Context, source string, cfg Config) (Provider, error) {
	if strings.HasPrefix(source, "mongodb://") || strings.HasPrefix(source, "mongodb+srv://") {
		return OpenMongo(ctx, source, cfg)
	}
	return NewFile(source)
}
