// Package nodelink renders a clustered view as a force-directed node-link
// diagram.
//
// # Overview
//
// A [Renderer] turns a [visibility.View] into Graphviz DOT and renders it
// to SVG with the fdp force-directed engine. The renderer also acts as the
// physics engine of a session: it implements [layout.Simulation], so the
// session's one-time layout configuration lands on it as graph attributes.
//
//	r := nodelink.NewRenderer(nodelink.Options{})
//	_ = configurator.Configure(r)
//	svg, err := r.RenderSVG(ctx, view)
//
// # Visibility
//
// Nodes flagged invisible by the view are emitted with style=invis so they
// keep their place in the layout and stay addressable; invisible links are
// left out. Nodes of hidden clusters are not in the view at all.
//
// # Labels
//
// [Label] is the per-node label callback: cluster heads are drawn as a
// centered label, members as a small dot with the label offset to the right.
// Font size scales inversely with the zoom factor.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
