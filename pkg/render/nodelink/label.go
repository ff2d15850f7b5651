package nodelink

import "github.com/matzehuels/clusterview/pkg/graph"

// Align is the horizontal anchor of a label relative to its node.
type Align string

const (
	AlignCenter Align = "center"
	AlignLeft   Align = "left"
)

const (
	baseFontSize = 10.0
	memberOffset = 4.0
)

// LabelSpec describes how one node label is drawn.
type LabelSpec struct {
	Text     string
	FontSize float64
	Align    Align
	OffsetX  float64 // horizontal offset from the node center
}

// Label returns the label for n at zoom factor scale. Labels keep a constant
// on-screen size, so the font shrinks as the view zooms in.
// Non-positive scales are treated as 1.
func Label(n graph.Node, scale float64) LabelSpec {
	if scale <= 0 {
		scale = 1
	}
	spec := LabelSpec{
		Text:     n.DisplayName(),
		FontSize: baseFontSize / scale,
	}
	if n.IsClusterNode {
		spec.Align = AlignCenter
	} else {
		spec.Align = AlignLeft
		spec.OffsetX = memberOffset
	}
	return spec
}
