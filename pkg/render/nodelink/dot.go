package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowgraph/pkg/catalog"
	"github.com/matzehuels/flowgraph/pkg/render"
	"github.com/matzehuels/flowgraph/pkg/workflow"
)

// Options configures diagram generation.
type Options struct {
	// Direction is the Graphviz rankdir: "LR" (default) or "TB".
	Direction string
	// Detailed adds the node type and non-empty configuration to labels.
	Detailed bool
	// Highlight outlines the given node ids in red; the values become
	// tooltips. Typically filled from validation violations.
	Highlight map[string]string
}

var shapes = map[catalog.Category]string{
	catalog.CategoryStart:    "oval",
	catalog.CategoryEnd:      "oval",
	catalog.CategoryDecision: "diamond",
	catalog.CategoryApproval: "hexagon",
}

var edgeColors = map[workflow.ConditionKind]string{
	workflow.ConditionOnSuccess:   "#28a745",
	workflow.ConditionApprovalYes: "#28a745",
	workflow.ConditionOnFailure:   "#dc3545",
	workflow.ConditionApprovalNo:  "#dc3545",
	workflow.ConditionConditional: "#6f42c1",
}

// ToDOT converts a workflow graph to Graphviz DOT source. Nodes are filled
// with their type's color and shaped by category; optional nodes are
// dashed. Edge labels show the condition (except always) and the edge's
// own label.
func ToDOT(snap *workflow.Snapshot, opts Options) string {
	dir := opts.Direction
	if dir == "" {
		dir = "LR"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph workflow {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", dir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=11];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	for _, n := range snap.Nodes() {
		d, _ := snap.Descriptor(n.ID)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n, d, opts), ", "))
	}

	buf.WriteString("\n")
	for _, e := range snap.Edges() {
		attrs := edgeAttrs(e)
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n workflow.Node, d *catalog.Descriptor, opts Options) []string {
	attrs := []string{fmt.Sprintf("label=%q", nodeLabel(n, d, opts.Detailed))}
	style := "rounded,filled"
	if d != nil {
		if shape, ok := shapes[d.Category]; ok {
			attrs = append(attrs, "shape="+shape)
			style = "filled"
		}
		if d.Category == catalog.CategoryEnd {
			attrs = append(attrs, "peripheries=2")
		}
		if d.Color != "" {
			attrs = append(attrs, fmt.Sprintf("fillcolor=%q", d.Color), "fontcolor=white")
		}
	}
	if !n.Required {
		style += ",dashed"
	}
	attrs = append(attrs, fmt.Sprintf("style=%q", style))
	if tip, ok := opts.Highlight[n.ID]; ok {
		attrs = append(attrs, "color=red", "penwidth=3", fmt.Sprintf("tooltip=%q", tip))
	}
	return attrs
}

func nodeLabel(n workflow.Node, d *catalog.Descriptor, detailed bool) string {
	if !detailed {
		return n.Name
	}
	lines := []string{n.Name}
	if d != nil {
		lines = append(lines, "("+d.Name+")")
	}
	for _, k := range slices.Sorted(maps.Keys(n.Config)) {
		if v := n.Config[k]; !catalog.IsEmpty(v) {
			lines = append(lines, fmt.Sprintf("%s: %v", k, v))
		}
	}
	return strings.Join(lines, "\n")
}

func edgeAttrs(e workflow.Edge) []string {
	var parts []string
	if e.Condition != workflow.ConditionAlways {
		parts = append(parts, string(e.Condition))
	}
	if e.Label != "" {
		parts = append(parts, e.Label)
	}
	var attrs []string
	if len(parts) > 0 {
		attrs = append(attrs, fmt.Sprintf("label=%q", strings.Join(parts, ": ")))
	}
	if c, ok := edgeColors[e.Condition]; ok {
		attrs = append(attrs, fmt.Sprintf("color=%q", c), fmt.Sprintf("fontcolor=%q", c))
	}
	if e.Condition == workflow.ConditionOnFailure || e.Condition == workflow.ConditionApprovalNo {
		attrs = append(attrs, "style=dashed")
	}
	return attrs
}

// RenderSVG lays out and renders DOT source to SVG in-process.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

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

// normalizeViewBox replaces Graphviz's point-based svg header with one
// whose width and height match the viewBox, so the diagram scales cleanly
// when embedded.
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
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders DOT source to PDF through SVG; requires rsvg-convert.
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders DOT source to PNG through SVG; requires rsvg-convert.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
