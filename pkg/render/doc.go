// Package render holds output helpers shared by the diagram renderers.
//
// The [nodelink] subpackage draws workflow graphs with Graphviz and
// produces SVG in-process. [ToPDF] and [ToPNG] convert that SVG further
// with the external rsvg-convert tool:
//
//	dot := nodelink.ToDOT(snap, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(svg)
//
// [nodelink]: github.com/matzehuels/flowgraph/pkg/render/nodelink
package render
