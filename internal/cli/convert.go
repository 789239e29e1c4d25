package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	flowio "github.com/matzehuels/flowgraph/pkg/io"
	"github.com/matzehuels/flowgraph/pkg/workflow"
)

func (c *CLI) convertCommand() *cobra.Command {
	var (
		to     string
		output string
		meta   flowio.CanvasMeta
		status string
	)
	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert between the definition and canvas forms",
		Long: `Convert between the definition and canvas forms.

Definitions are what the backend stores; canvases are what the editor loads.
Converting a canvas to a definition drops presentation data (icons, colors,
edge ids). Converting a definition to a canvas fills in defaults and catalog
metadata; --name, --id and --status set the workflow record fields, which
otherwise keep the input's values (or draft for definitions).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := flowio.Format(to)
			if !format.Valid() {
				return fmt.Errorf("--to: unknown format %q (want definition or canvas)", to)
			}
			if status != "" {
				meta.Status = workflow.Status(status)
				if !meta.Status.Valid() {
					return fmt.Errorf("--status: unknown status %q", status)
				}
			}
			return c.runConvert(cmd.Context(), args[0], format, meta, output)
		},
	}
	cmd.Flags().StringVar(&to, "to", string(flowio.FormatCanvas), "target form: definition or canvas")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&meta.ID, "id", "", "workflow id (canvas only)")
	cmd.Flags().StringVar(&meta.Name, "name", "", "workflow name (canvas only)")
	cmd.Flags().StringVar(&meta.Description, "description", "", "workflow description (canvas only)")
	cmd.Flags().StringVar(&status, "status", "", "workflow status (canvas only)")
	return cmd
}

func (c *CLI) runConvert(ctx context.Context, input string, to flowio.Format, override flowio.CanvasMeta, output string) error {
	cat, err := c.catalog()
	if err != nil {
		return err
	}
	doc, err := c.load(input, cat)
	if err != nil {
		return err
	}
	meta := doc.Meta
	if override.ID != "" {
		meta.ID = override.ID
	}
	if override.Name != "" {
		meta.Name = override.Name
	}
	if override.Description != "" {
		meta.Description = override.Description
	}
	if override.Status != "" {
		meta.Status = override.Status
	}
	v, err := flowio.Encode(doc.Snapshot, to, cat, meta)
	if err != nil {
		return err
	}
	loggerFromContext(ctx).Debug("converted", "from", doc.Format, "to", to)
	return writeOutput(v, output)
}

func (c *CLI) migrateCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "migrate <file>",
		Short: "Upgrade a definition to the current format version",
		Long: fmt.Sprintf(`Upgrade a definition to the current format version (%d).

Legacy definitions without a version name node types by category or by the
backend's node_type key and spell conditions with underscores (on_success,
approval_yes). Migration resolves both. Current definitions are re-encoded
unchanged.`, flowio.CurrentVersion),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.catalog()
			if err != nil {
				return err
			}
			doc, err := c.load(args[0], cat)
			if err != nil {
				return err
			}
			return writeOutput(flowio.ToDefinition(doc.Snapshot), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

// writeOutput writes v as JSON to path, or to stdout when path is empty.
func writeOutput(v any, path string) error {
	if path == "" {
		return flowio.WriteJSON(stdout, v)
	}
	if err := flowio.ExportFile(path, v); err != nil {
		return err
	}
	printSuccess("Wrote")
	printFile(path)
	return nil
}
