package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowgraph/pkg/catalog"
	flowio "github.com/matzehuels/flowgraph/pkg/io"
	"github.com/matzehuels/flowgraph/pkg/workflow"
)

// catalogCommand creates the catalog inspection command.
func (c *CLI) catalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the node type catalog",
	}
	cmd.AddCommand(c.catalogListCommand())
	cmd.AddCommand(c.catalogShowCommand())
	return cmd
}

func (c *CLI) catalogListCommand() *cobra.Command {
	var (
		query  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List node types grouped by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.catalog()
			if err != nil {
				return err
			}
			matches := cat.Search(query)
			if asJSON {
				return flowio.WriteJSON(stdout, matches)
			}
			if len(matches) == 0 {
				printInfo("No node types match %q", query)
				return nil
			}
			printCatalog(matches)
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "only show node types whose id, name or category contains this")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print descriptors as JSON")
	return cmd
}

// printCatalog prints descriptors as a table in palette order.
func printCatalog(ds []*catalog.Descriptor) {
	byCat := make(map[catalog.Category][]*catalog.Descriptor)
	for _, d := range ds {
		byCat[d.Category] = append(byCat[d.Category], d)
	}
	var rows [][]string
	for _, cat := range catalog.Categories {
		for _, d := range byCat[cat] {
			outputs := "single"
			if d.AllowsMultipleOutputs {
				outputs = "multiple"
			}
			rows = append(rows, []string{string(cat), string(d.ID), d.Name, outputs, d.Description})
		}
	}
	fmt.Fprintln(stdout, renderTable([]string{"Category", "ID", "Name", "Outputs", "Description"}, rows))
	printDetail("%s", plural(len(ds), "node type"))
}

func (c *CLI) catalogShowCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <type-id>",
		Short: "Show one node type with its configuration schema and defaults",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			cat, err := c.catalog()
			if err != nil || len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			var ids []string
			for _, d := range cat.All() {
				ids = append(ids, string(d.ID))
			}
			return ids, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.catalog()
			if err != nil {
				return err
			}
			d, err := cat.Lookup(catalog.TypeID(args[0]))
			if err != nil {
				return err
			}
			if asJSON {
				return flowio.WriteJSON(stdout, d)
			}
			printDescriptor(d)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the descriptor as JSON")
	return cmd
}

func printDescriptor(d *catalog.Descriptor) {
	fmt.Fprintln(stdout, StyleTitle.Render(d.Name)+" "+StyleDim.Render(string(d.ID)))
	if d.Description != "" {
		printDetail("%s", d.Description)
	}
	printNewline()
	printKeyValue("Category", string(d.Category))
	printKeyValue("Icon", d.Icon)
	printKeyValue("Color", d.Color)
	printKeyValue("User action", yesNo(d.RequiresUserAction))
	printKeyValue("Outputs", yesNo(d.AllowsMultipleOutputs))
	conds := workflow.AllowedConditions(d.Category)
	names := make([]string, len(conds))
	for i, k := range conds {
		names[i] = string(k)
	}
	if len(names) == 0 {
		names = []string{"none"}
	}
	printKeyValue("Conditions", strings.Join(names, ", "))

	fields := d.FieldNames()
	if len(fields) == 0 {
		return
	}
	printNewline()
	rows := make([][]string, 0, len(fields))
	for _, name := range fields {
		f, _ := d.Field(name)
		spec := f.Spec()
		def := ""
		if v, ok := f.Default(); ok {
			def = formatValue(v)
		}
		rows = append(rows, []string{name, string(f.Kind()), yesNo(f.Required()), def, constraints(spec)})
	}
	fmt.Fprintln(stdout, renderTable([]string{"Field", "Type", "Required", "Default", "Constraints"}, rows))
}

// constraints summarizes a field's bounds and options.
func constraints(spec catalog.FieldSpec) string {
	var parts []string
	if spec.Min != nil {
		parts = append(parts, fmt.Sprintf("min %g", *spec.Min))
	}
	if spec.Max != nil {
		parts = append(parts, fmt.Sprintf("max %g", *spec.Max))
	}
	if spec.Step != nil {
		parts = append(parts, fmt.Sprintf("step %g", *spec.Step))
	}
	if len(spec.Options) > 0 {
		parts = append(parts, strings.Join(spec.Options, "|"))
	}
	return strings.Join(parts, ", ")
}

// formatValue renders a config value compactly.
func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
