// Package pkg provides the core libraries for Clusterview, an interactive
// viewer for clustered node-link graphs.
//
// # Overview
//
// Every node of a dataset belongs to a cluster. A session keeps one state
// per cluster (expanded, collapsed, or hidden) and derives from it which
// nodes and links are drawn. The pkg directory is organized into four areas:
//
//  1. Domain - [graph], [cluster], [visibility], [layout]
//  2. Sessions - [session] ties the domain together per user
//  3. Output - [render] and [render/nodelink]
//  4. Infrastructure - [cache], [provider], [config], [observability], [server]
//
// # Architecture
//
// The data flow of one interaction:
//
//	click / hide / reset
//	         ↓
//	    [cluster] store (collapsed and hidden sets)
//	         ↓
//	    [visibility] engine (per-node and per-link visibility)
//	         ↓
//	    [render/nodelink] renderer (DOT, then SVG via Graphviz fdp)
//	         ↓
//	    SVG/PDF/PNG/DOT output
//
// # Quick Start
//
//	d, _ := graph.ReadDatasetFile("services.json")
//	s, _ := session.New(d)
//	_ = s.ClickNode("db")                       // expand the "db" cluster
//	svg, _ := s.Render(ctx, render.FormatSVG, nil)
//
// # Main Packages
//
// [graph] - Nodes, links, and clusters; JSON and YAML decoding; integrity checks.
//
// [cluster] - The per-session cluster state store. All clusters start
// collapsed; hiding a cluster also collapses it.
//
// [visibility] - Pure functions from a dataset and a state snapshot to the
// drawn view.
//
// [layout] - Force-simulation parameters, applied once per session.
//
// [cache] - Render and dataset caches with file, Redis, and null backends.
//
// [provider] - Dataset sources: local files and MongoDB.
//
// [server] - The HTTP API serving many independent sessions.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test -run Example ./pkg/...       # Examples only
//	REDIS_ADDR=localhost:6379 MONGO_URI=mongodb://localhost go test ./pkg/cache ./pkg/provider
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/clusterview/pkg/graph
// [cluster]: https://pkg.go.dev/github.com/matzehuels/clusterview/pkg/cluster
// [visibility]: https://pkg.go.dev/github.com/matzehuels/clusterview/pkg/visibility
// [layout]: https://pkg.go.dev/github.com/matzehuels/clusterview/pkg/layout
// [session]: https://pkg.go.dev/github.com/matzehuels/clusterview/pkg/session
// [render]: https://pkg.go.dev/github.com/matzehuels/clusterview/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/clusterview/pkg/render/nodelink
// [cache]: https://pkg.go.dev/github.com/matzehuels/clusterview/pkg/cache
// [provider]: https://pkg.go.dev/github.com/matzehuels/clusterview/pkg/provider
// [config]: https://pkg.go.dev/github.com/matzehuels/clusterview/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/clusterview/pkg/observability
// [server]: https://pkg.go.dev/github.com/matzehuels/clusterview/pkg/server
package pkg
