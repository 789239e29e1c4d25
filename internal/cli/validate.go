package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowgraph/pkg/catalog"
	flowio "github.com/matzehuels/flowgraph/pkg/io"
	"github.com/matzehuels/flowgraph/pkg/validate"
	"github.com/matzehuels/flowgraph/pkg/workflow"
)

// ErrNotActivatable is returned by validate when the workflow has violations.
var ErrNotActivatable = errors.New("workflow is not activatable")

// errReported marks an error already shown to the user.
var errReported = errors.New("invalid workflow file")

func (c *CLI) validateCommand() *cobra.Command {
	var (
		transition string
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check whether a workflow may be activated",
		Long: `Check whether a workflow may be activated.

The file may hold a definition or a canvas payload; the shape is detected.
Every violated activation rule is listed. The command exits non-zero when the
workflow is not activatable, so it can gate CI pipelines.

With --to the status transition is checked as well, e.g. --to active for a
paused workflow stored in a canvas file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd.Context(), args[0], workflow.Status(transition), asJSON)
		},
	}
	cmd.Flags().StringVar(&transition, "to", "", "also check moving the workflow to this status")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print violations as JSON")
	return cmd
}

func (c *CLI) runValidate(ctx context.Context, path string, to workflow.Status, asJSON bool) error {
	logger := loggerFromContext(ctx)
	cat, err := c.catalog()
	if err != nil {
		return err
	}
	prog := newProgress(logger)
	doc, err := c.load(path, cat)
	if err != nil {
		return err
	}
	snap := doc.Snapshot

	vs := validate.Validate(snap, cat)
	prog.done(fmt.Sprintf("Validated %s", plural(snap.NodeCount(), "node")))

	if asJSON {
		if vs == nil {
			vs = validate.Violations{}
		}
		if err := flowio.WriteJSON(stdout, vs); err != nil {
			return err
		}
	} else if len(vs) == 0 {
		printSuccess("%s is activatable", path)
		printStats(snap.NodeCount(), snap.EdgeCount())
	} else {
		printError("%s has %s", path, plural(len(vs), "violation"))
		printViolations(vs)
		printNextStep("See them on the diagram", appName+" visualize --highlight "+path)
	}

	if to != "" {
		from := doc.Meta.Status
		if from == "" {
			from = workflow.StatusDraft
		}
		if err := validate.CheckTransition(from, to, snap, cat); err != nil {
			return fmt.Errorf("%s -> %s: %w", from, to, err)
		}
		if !asJSON {
			printSuccess("%s -> %s allowed", from, to)
		}
		return nil
	}
	if len(vs) > 0 {
		return ErrNotActivatable
	}
	return nil
}

// load imports a workflow file, printing payload issues when it fails.
func (c *CLI) load(path string, cat *catalog.Catalog) (*flowio.Document, error) {
	doc, err := flowio.ImportFile(path, cat)
	if err != nil {
		var de *flowio.DeserializeError
		if errors.As(err, &de) {
			printLoadError(path, err)
			return nil, errReported
		}
		return nil, err
	}
	c.Logger.Debug("loaded workflow", "path", path, "format", doc.Format,
		"nodes", doc.Snapshot.NodeCount(), "edges", doc.Snapshot.EdgeCount())
	return doc, nil
}
