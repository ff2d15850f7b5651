package visibility

import "github.com/matzehuels/clusterview/pkg/graph"

// View is the render input derived from a dataset and a cluster state.
type View struct {
	// Nodes excludes nodes of hidden clusters.
	Nodes []graph.Node
	// Links excludes links touching a removed or missing node.
	Links []graph.Link

	nodeVisible map[string]bool
	linkVisible []bool
}

// NodeVisible reports whether the node with the given id is drawn.
// Ids not in the view are not visible.
func (v View) NodeVisible(id string) bool {
	return v.nodeVisible[id]
}

// LinkVisible reports whether Links[i] is drawn.
func (v View) LinkVisible(i int) bool {
	if i < 0 || i >= len(v.linkVisible) {
		return false
	}
	return v.linkVisible[i]
}

// Stats summarizes a view.
type Stats struct {
	Nodes        int `json:"nodes"`
	VisibleNodes int `json:"visible_nodes"`
	Links        int `json:"links"`
	VisibleLinks int `json:"visible_links"`
}

// Stats counts the nodes and links in the view and how many are drawn.
func (v View) Stats() Stats {
	st := Stats{Nodes: len(v.Nodes), Links: len(v.Links)}
	for _, n := range v.Nodes {
		if v.nodeVisible[n.ID] {
			st.VisibleNodes++
		}
	}
	for _, ok := range v.linkVisible {
		if ok {
			st.VisibleLinks++
		}
	}
	return st
}

// Compute derives the view for state s.
//
// The result is independent of later state changes; call Compute again
// after every mutation.
func (e *Engine) Compute(s State) View {
	v := View{nodeVisible: make(map[string]bool, len(e.data.Nodes))}

	present := make(map[string]struct{}, len(e.data.Nodes))
	for _, n := range e.data.Nodes {
		if e.Removed(n, s) {
			continue
		}
		if _, dup := present[n.ID]; dup {
			continue
		}
		present[n.ID] = struct{}{}
		v.Nodes = append(v.Nodes, n)
		v.nodeVisible[n.ID] = e.NodeVisible(n, s)
	}

	for _, l := range e.data.Links {
		_, srcOK := present[l.Source]
		_, dstOK := present[l.Target]
		if !srcOK || !dstOK {
			continue
		}
		v.Links = append(v.Links, l)
		v.linkVisible = append(v.linkVisible, e.LinkVisible(l, s))
	}

	return v
}
