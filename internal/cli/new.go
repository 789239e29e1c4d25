package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	flowio "github.com/matzehuels/flowgraph/pkg/io"
)

func (c *CLI) newCommand() *cobra.Command {
	var (
		template string
		to       string
		output   string
		list     bool
		meta     flowio.CanvasMeta
	)
	cmd := &cobra.Command{
		Use:   "new --template <id>",
		Short: "Start a draft workflow from a template",
		Long: `Start a draft workflow from one of the builtin templates.

The draft is named "<template> - <name>" (just the template's name without
--name) and always starts in the draft status. Use --list to see the
templates.`,
		Example: `  flowgraph new --list
  flowgraph new --template invoice_processing --name "Accounts Payable" -o invoices.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := flowio.BuiltinTemplates()
			if err != nil {
				return err
			}
			if list {
				printTemplates(flowio.FilterTemplates(templates, "", ""))
				return nil
			}
			if template == "" {
				return fmt.Errorf("--template is required (see --list)")
			}
			format := flowio.Format(to)
			if !format.Valid() {
				return fmt.Errorf("--to: unknown format %q (want definition or canvas)", to)
			}
			t, err := flowio.FindTemplate(templates, template)
			if err != nil {
				return err
			}
			cat, err := c.catalog()
			if err != nil {
				return err
			}
			canvas, snap, err := flowio.Instantiate(t, cat, meta)
			if err != nil {
				printLoadError("template "+t.ID, err)
				return errReported
			}
			loggerFromContext(cmd.Context()).Debug("instantiated template", "template", t.ID, "nodes", snap.NodeCount())

			var v any = canvas
			if format == flowio.FormatDefinition {
				v = flowio.ToDefinition(snap)
			}
			if err := writeOutput(v, output); err != nil {
				return err
			}
			if output != "" {
				printStats(snap.NodeCount(), snap.EdgeCount())
				printNextStep("Fill in approvers and recipients", "flowgraph edit "+output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&template, "template", "t", "", "template id")
	cmd.Flags().BoolVar(&list, "list", false, "list the available templates")
	cmd.Flags().StringVar(&to, "to", string(flowio.FormatCanvas), "output form: definition or canvas")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&meta.ID, "id", "", "workflow id")
	cmd.Flags().StringVar(&meta.Name, "name", "", "appended to the template's name")
	cmd.Flags().StringVar(&meta.Description, "description", "", "workflow description (default names the template)")
	_ = cmd.RegisterFlagCompletionFunc("template", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		templates, err := flowio.BuiltinTemplates()
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		ids := make([]string, 0, len(templates))
		for _, t := range templates {
			ids = append(ids, t.ID+"\t"+t.Name)
		}
		return ids, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// printTemplates prints templates as a table.
func printTemplates(ts []flowio.Template) {
	rows := make([][]string, len(ts))
	for i, t := range ts {
		rows[i] = []string{t.ID, t.Name, t.Category, strconv.Itoa(t.ComplexityLevel), fmt.Sprintf("%d min", t.SetupTimeMinutes), strings.Join(t.Tags, ", ")}
	}
	fmt.Fprintln(stdout, renderTable([]string{"ID", "Name", "Category", "Complexity", "Setup", "Tags"}, rows))
	printDetail("%s", plural(len(ts), "template"))
}
