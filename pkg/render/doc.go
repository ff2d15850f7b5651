// Package render holds output-format helpers shared by renderers.
//
// The [nodelink] subpackage draws a clustered view with Graphviz; this
// package converts the resulting SVG to PDF or PNG using the external
// rsvg-convert tool (from librsvg):
//
//	svg, err := renderer.RenderSVG(ctx, view)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// [nodelink]: github.com/matzehuels/clusterview/pkg/render/nodelink
package render
