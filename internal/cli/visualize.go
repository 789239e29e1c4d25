package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowgraph/pkg/cache"
	"github.com/matzehuels/flowgraph/pkg/render"
	"github.com/matzehuels/flowgraph/pkg/render/nodelink"
	"github.com/matzehuels/flowgraph/pkg/validate"
)

// Diagram output formats.
const (
	formatDOT = "dot"
	formatSVG = "svg"
	formatPDF = "pdf"
	formatPNG = "png"
)

var diagramFormats = []string{formatDOT, formatSVG, formatPDF, formatPNG}

type visualizeOptions struct {
	format    string
	output    string
	direction string
	detailed  bool
	highlight bool
	scale     float64
	noCache   bool
}

// visualizeCommand creates the visualize command for rendering workflow diagrams.
func (c *CLI) visualizeCommand() *cobra.Command {
	opts := visualizeOptions{format: formatSVG, direction: "LR", scale: 2}

	cmd := &cobra.Command{
		Use:   "visualize <file>",
		Short: "Render a workflow as a diagram",
		Long: `Render a workflow as a diagram.

Nodes are drawn in their type's color and shaped by category: ovals for start
and end, diamonds for decisions, hexagons for approvals. Optional nodes are
dashed; failure and rejection edges are dashed red.

With --highlight, nodes that violate activation rules are outlined in red and
carry the violation as tooltip, which makes the SVG a review aid.

SVG is rendered in-process. PDF and PNG additionally need rsvg-convert.
Rendered SVG is cached locally.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.format = strings.ToLower(opts.format)
			if !slices.Contains(diagramFormats, opts.format) {
				return fmt.Errorf("--format: unknown format %q (want %s)", opts.format, strings.Join(diagramFormats, ", "))
			}
			opts.direction = strings.ToUpper(opts.direction)
			if opts.direction != "LR" && opts.direction != "TB" {
				return fmt.Errorf("--direction: want LR or TB, got %q", opts.direction)
			}
			return c.runVisualize(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: dot, svg, pdf, png")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default <input>.<format>)")
	cmd.Flags().StringVar(&opts.direction, "direction", opts.direction, "layout direction: LR or TB")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show node types and configuration in labels")
	cmd.Flags().BoolVar(&opts.highlight, "highlight", false, "outline nodes that violate activation rules")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runVisualize(ctx context.Context, input string, opts visualizeOptions) error {
	logger := loggerFromContext(ctx)
	cat, err := c.catalog()
	if err != nil {
		return err
	}
	doc, err := c.load(input, cat)
	if err != nil {
		return err
	}

	dotOpts := nodelink.Options{Direction: opts.direction, Detailed: opts.detailed}
	if opts.highlight {
		dotOpts.Highlight = violationsByNode(validate.Validate(doc.Snapshot, cat))
		logger.Debug("highlighting", "nodes", len(dotOpts.Highlight))
	}
	dot := nodelink.ToDOT(doc.Snapshot, dotOpts)

	output := opts.output
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + "." + opts.format
	}

	var data []byte
	if opts.format == formatDOT {
		data = []byte(dot)
	} else {
		spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", opts.format))
		spinner.Start()
		data, err = c.renderDiagram(ctx, dot, opts)
		if err != nil {
			spinner.StopWithError("Rendering failed")
			return err
		}
		spinner.Stop()
	}

	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printSuccess("Rendered %s", plural(doc.Snapshot.NodeCount(), "node"))
	printFile(output)
	return nil
}

// renderDiagram renders DOT source, going through the cache for SVG.
func (c *CLI) renderDiagram(ctx context.Context, dot string, opts visualizeOptions) ([]byte, error) {
	backend := ""
	if opts.noCache {
		backend = backendNone
	}
	store, err := c.newCache(ctx, backend)
	if err != nil {
		c.Logger.Warn("cache unavailable, rendering without it", "err", err)
		store = cache.NewNullCache()
	}
	defer store.Close()

	key := cache.DefaultKeyer{}.RenderKey([]byte(dot), cache.RenderKeyOpts{
		Format:    formatSVG,
		Direction: opts.direction,
		Detailed:  opts.detailed,
	})
	svg, hit, err := cache.Memo(ctx, store, key, "render", c.cacheTTL(), func() ([]byte, error) {
		return nodelink.RenderSVG(ctx, dot)
	})
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("svg ready", "cached", hit, "bytes", len(svg))

	switch opts.format {
	case formatPDF:
		return render.ToPDF(svg)
	case formatPNG:
		return render.ToPNG(svg, opts.scale)
	}
	return svg, nil
}

// violationsByNode joins the messages of node-level violations per node.
func violationsByNode(vs validate.Violations) map[string]string {
	out := make(map[string]string)
	for _, v := range vs {
		if v.Location.Kind != validate.AtNode {
			continue
		}
		if prev, ok := out[v.Location.ID]; ok {
			out[v.Location.ID] = prev + "; " + v.Message
		} else {
			out[v.Location.ID] = v.Message
		}
	}
	return out
}
