// Package graph provides the static dataset behind a clustered node-link view.
//
// A [Dataset] is immutable for the lifetime of a session: it holds the
// nodes, the links between them, and the cluster definitions. Cluster
// membership is supplied by the data, never inferred.
//
// # Core Types
//
//   - [Node]: a vertex with a display name, the cluster it belongs to, and a
//     flag marking it as that cluster's head node
//   - [Link]: an ordered (source, target) pair of node ids
//   - [Cluster]: a named group whose id equals its head node's id
//   - [Dataset]: the three lists plus O(1) lookup indexes
//
// # Wire Format
//
// Datasets are read from JSON, TOML or YAML. The JSON shape is:
//
//	{
//	  "nodes": [
//	    {"id": "A", "name": "Alpha", "clusterId": "A", "isClusterNode": true},
//	    {"id": "a1", "name": "a1", "clusterId": "A"}
//	  ],
//	  "links": [{"source": "a1", "target": "A"}],
//	  "clusters": [{"id": "A", "name": "Alpha"}]
//	}
//
// Link endpoints may be raw ids or already-resolved references of the form
// {"id": "a1", ...}; both decode to the id.
//
// # Integrity
//
// Decoding only fails on syntactically broken input. Semantic problems
// (links to missing nodes, nodes in undeclared clusters, duplicate ids) are
// reported by [Dataset.Check] as [Issue] values so that a partially broken
// dataset still renders and stays interactive.
package graph
