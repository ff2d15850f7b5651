package graph

import (
	"fmt"

	"github.com/matzehuels/clusterview/pkg/errors"
)

// Issue is a single data-integrity finding. Issues are warnings: the
// dataset stays usable and the affected elements degrade gracefully.
type Issue struct {
	Code    errors.Code // DANGLING_LINK_ENDPOINT, DANGLING_CLUSTER_REFERENCE, DUPLICATE_ID, ...
	Subject string      // offending node id, cluster id or link
	Message string
}

// String renders the issue for logs and CLI output.
func (i Issue) String() string {
	return fmt.Sprintf("%s %s: %s", i.Code, i.Subject, i.Message)
}

// Check validates the dataset against its invariants:
//
//  1. every node's cluster id names a declared cluster
//  2. every link endpoint names an existing node
//
// It also reports duplicate node or cluster ids, malformed ids, and
// clusters that have no head node. The returned slice is empty for a
// clean dataset.
func (d *Dataset) Check() []Issue {
	d.index()
	var issues []Issue

	seenNodes := make(map[string]struct{}, len(d.Nodes))
	for _, n := range d.Nodes {
		if err := errors.ValidateID(n.ID); err != nil {
			issues = append(issues, Issue{errors.ErrCodeInvalidID, n.ID, errors.UserMessage(err)})
		}
		if _, dup := seenNodes[n.ID]; dup {
			issues = append(issues, Issue{errors.ErrCodeDuplicateID, n.ID, "duplicate node id"})
		}
		seenNodes[n.ID] = struct{}{}

		if !d.HasCluster(n.ClusterID) {
			issues = append(issues, Issue{
				Code:    errors.ErrCodeDanglingClusterReference,
				Subject: n.ID,
				Message: fmt.Sprintf("cluster %q is not declared", n.ClusterID),
			})
		}
	}

	seenClusters := make(map[string]struct{}, len(d.Clusters))
	for _, c := range d.Clusters {
		if _, dup := seenClusters[c.ID]; dup {
			issues = append(issues, Issue{errors.ErrCodeDuplicateID, c.ID, "duplicate cluster id"})
		}
		seenClusters[c.ID] = struct{}{}

		if head, ok := d.Node(c.ID); !ok || !head.IsClusterNode {
			issues = append(issues, Issue{errors.ErrCodeUnknownNode, c.ID, "cluster has no head node"})
		}
	}

	for _, l := range d.Links {
		for _, id := range []string{l.Source, l.Target} {
			if _, ok := d.Node(id); !ok {
				issues = append(issues, Issue{
					Code:    errors.ErrCodeDanglingLinkEndpoint,
					Subject: l.String(),
					Message: fmt.Sprintf("endpoint %q does not exist", id),
				})
			}
		}
	}

	return issues
}
