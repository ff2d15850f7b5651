package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"maps"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/clusterview/pkg/graph"
	"github.com/matzehuels/clusterview/pkg/layout"
	"github.com/matzehuels/clusterview/pkg/render"
	"github.com/matzehuels/clusterview/pkg/visibility"
)

const (
	// DefaultWidth is the default frame width in pixels.
	DefaultWidth = 800.0
	// DefaultHeight is the default frame height in pixels.
	DefaultHeight = 600.0
	// DefaultBackground matches the interactive canvas.
	DefaultBackground = "lightgray"
	// DefaultNodeRelSize is the node radius in pixels.
	DefaultNodeRelSize = 1.0

	pointsPerInch = 72.0
	// stockCharge is the charge strength that maps to fdp's default
	// repulsive force of 1.
	stockCharge = -15.0
)

// Options configures node-link rendering.
type Options struct {
	Width       float64 // frame width in pixels
	Height      float64 // frame height in pixels
	Background  string  // Graphviz color name or #rrggbb
	Scale       float64 // zoom factor passed to the label callback
	NodeRelSize float64 // node radius in pixels
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Background == "" {
		o.Background = DefaultBackground
	}
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.NodeRelSize <= 0 {
		o.NodeRelSize = DefaultNodeRelSize
	}
	return o
}

// Renderer converts views to DOT and SVG. It implements [layout.Simulation]:
// tuning applied through a configurator becomes fdp graph attributes.
//
// A Renderer is not safe for concurrent configuration; rendering only reads.
type Renderer struct {
	opts  Options
	attrs map[string]string
	notes []string
}

// NewRenderer creates a renderer with Graphviz's default physics.
func NewRenderer(opts Options) *Renderer {
	return &Renderer{opts: opts.withDefaults(), attrs: make(map[string]string)}
}

var _ layout.Simulation = (*Renderer)(nil)

// SetCollide maps the collision radius to fdp's node separation margin.
func (r *Renderer) SetCollide(radius float64) {
	r.attrs["sep"] = strconv.Quote("+" + fmtFloat(radius))
}

// SetCharge maps the many-body strength to fdp's repulsive force, relative
// to the stock strength of -15. fdp has no distance cutoff, so distanceMax
// is recorded as a comment only.
func (r *Renderer) SetCharge(strength, distanceMax float64) {
	force := strength / stockCharge
	if force < 0.01 {
		force = 0.01
	}
	r.attrs["repulsiveforce"] = fmtFloat(force)
	r.notes = append(r.notes, fmt.Sprintf("charge cutoff %s has no fdp equivalent", fmtFloat(distanceMax)))
}

// SetLinkDistance maps the target link length (points) to fdp's K (inches).
func (r *Renderer) SetLinkDistance(distance float64) {
	r.attrs["K"] = fmtFloat(distance / pointsPerInch)
}

// ToDOT converts a view to an undirected Graphviz DOT document.
func (r *Renderer) ToDOT(v visibility.View) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	fmt.Fprintf(&buf, "  bgcolor=%q;\n", r.opts.Background)
	fmt.Fprintf(&buf, "  size=\"%s,%s\";\n", fmtFloat(r.opts.Width/pointsPerInch), fmtFloat(r.opts.Height/pointsPerInch))
	buf.WriteString("  outputorder=edgesfirst;\n")
	for _, k := range slices.Sorted(maps.Keys(r.attrs)) {
		fmt.Fprintf(&buf, "  %s=%s;\n", k, r.attrs[k])
	}
	for _, note := range r.notes {
		fmt.Fprintf(&buf, "  // %s\n", note)
	}
	diameter := fmtFloat(math.Round(2*r.opts.NodeRelSize/pointsPerInch*1000) / 1000)
	fmt.Fprintf(&buf, "  node [shape=circle, width=%s, height=%s, fixedsize=true, label=\"\", style=filled, fillcolor=black, fontname=\"Sans-Serif\"];\n", diameter, diameter)
	buf.WriteString("  edge [color=\"#00000066\"];\n")
	buf.WriteString("\n")

	for _, n := range v.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(r.fmtAttrs(n, v.NodeVisible(n.ID)), ", "))
	}

	buf.WriteString("\n")
	for i, l := range v.Links {
		if !v.LinkVisible(i) {
			continue
		}
		fmt.Fprintf(&buf, "  %q -- %q;\n", l.Source, l.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func (r *Renderer) fmtAttrs(n graph.Node, visible bool) []string {
	if !visible {
		return []string{"style=invis"}
	}
	spec := Label(n, r.opts.Scale)
	size := "fontsize=" + fmtFloat(spec.FontSize)
	if spec.Align == AlignCenter {
		return []string{"shape=plaintext", "fixedsize=false", "style=\"\"", fmt.Sprintf("label=%q", spec.Text), size}
	}
	return []string{"xlabel=" + memberLabel(spec), size}
}

// memberLabel renders a member's external label. Graphviz chooses which side
// of the node an xlabel sits on, so the offset is drawn as a blank leading
// cell of OffsetX points between the node and the text.
func memberLabel(spec LabelSpec) string {
	offset := int(math.Round(spec.OffsetX))
	if offset <= 0 {
		return strconv.Quote(spec.Text)
	}
	return fmt.Sprintf(`<<TABLE BORDER="0" CELLBORDER="0" CELLSPACING="0" CELLPADDING="0"><TR><TD FIXEDSIZE="TRUE" WIDTH="%d" HEIGHT="1"></TD><TD>%s</TD></TR></TABLE>>`,
		offset, html.EscapeString(spec.Text))
}

// RenderSVG lays out and renders v to SVG.
func (r *Renderer) RenderSVG(ctx context.Context, v visibility.View) ([]byte, error) {
	return RenderSVG(ctx, r.ToDOT(v))
}

// RenderPNG renders v to PNG via SVG conversion at the given scale.
// Requires librsvg (rsvg-convert).
func (r *Renderer) RenderPNG(ctx context.Context, v visibility.View, scale float64) ([]byte, error) {
	svg, err := r.RenderSVG(ctx, v)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}

// RenderPDF renders v to PDF via SVG conversion. Requires librsvg.
func (r *Renderer) RenderPDF(ctx context.Context, v visibility.View) ([]byte, error) {
	svg, err := r.RenderSVG(ctx, v)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderSVG renders a DOT graph to SVG with the fdp force-directed engine.
// The viewBox is normalized so the drawing is fitted to its content.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.FDP)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
