// Package nodelink draws workflow graphs as Graphviz node-link diagrams.
//
// [ToDOT] produces DOT source in which each node takes its type's color,
// decisions are diamonds, approvals hexagons and start and end nodes ovals.
// Edges are colored by condition: success and approval green, failure and
// rejection red and dashed, conditional branches purple.
//
//	dot := nodelink.ToDOT(snap, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Nodes named in [Options].Highlight are outlined in red, which is how the
// CLI marks validation violations.
//
// SVG rendering runs Graphviz in-process through
// [github.com/goccy/go-graphviz]; PDF and PNG additionally need librsvg.
package nodelink
