package workflow

import (
	"github.com/matzehuels/flowgraph/pkg/catalog"
	ferrors "github.com/matzehuels/flowgraph/pkg/errors"
)

// Builder assembles a graph from nodes and edges that already carry their
// identifiers, as they arrive from a stored definition. It enforces the same
// invariants as [Store]; a rejected node or edge is simply not added.
//
// Node configurations passed to AddNode may omit fields: declared defaults
// are filled in, mirroring what [Store.AddNode] does for new nodes.
type Builder struct {
	g         *graph
	newEdgeID func() string
}

// NewBuilder starts an empty graph governed by cat.
func NewBuilder(cat *catalog.Catalog, opts ...Option) *Builder {
	o := buildOptions(opts)
	return &Builder{g: newGraph(cat), newEdgeID: o.newEdgeID}
}

// AddNode adds n. Every problem with the node is reported; when there are
// several the error joins them (see errors.Issues). Fields of returned
// issues name the offending attribute ("name", "config.threshold").
func (b *Builder) AddNode(n Node) error {
	c := n.Clone()
	if c.Name != "" {
		c.Name = trimName(c.Name)
	}
	if issues := b.g.checkNode(&c); len(issues) > 0 {
		return ferrors.Join(issues...)
	}
	b.g.insertNode(&c)
	return nil
}

// AddEdge adds e and returns its id. An empty e.ID is replaced by a fresh one.
func (b *Builder) AddEdge(e Edge) (string, error) {
	c := e.Clone()
	if c.ID == "" {
		c.ID = b.newEdgeID()
	} else if _, dup := b.g.edges[c.ID]; dup {
		return "", ferrors.NewField(ferrors.ErrCodeDuplicateID, "id", "edge %q already exists", c.ID)
	}
	if err := b.g.checkEdge(&c, ""); err != nil {
		return "", err
	}
	b.g.insertEdge(&c)
	return c.ID, nil
}

// HasNode reports whether a node with the id was added.
func (b *Builder) HasNode(id string) bool {
	_, ok := b.g.nodes[id]
	return ok
}

// Snapshot returns the assembled graph at version 0.
func (b *Builder) Snapshot() *Snapshot { return newSnapshot(b.g, 0) }
