package io

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/flowgraph/pkg/catalog"
	ferrors "github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/observability"
	"github.com/matzehuels/flowgraph/pkg/workflow"
)

// CurrentVersion is the definition format version written by [ToDefinition].
const CurrentVersion = 1

// Definition is the compact persisted form of a workflow graph.
type Definition struct {
	Version int              `json:"version"`
	Nodes   []DefinitionNode `json:"nodes"`
	Edges   []DefinitionEdge `json:"edges"`
}

// DefinitionNode is a node in a [Definition]. Pointer fields are omitted
// when they hold their default and read back as the default when absent.
type DefinitionNode struct {
	NodeID         string             `json:"node_id"`
	TypeID         catalog.TypeID     `json:"type_id"`
	Name           string             `json:"name"`
	Description    string             `json:"description,omitempty"`
	Position       *workflow.Position `json:"position,omitempty"`
	Config         map[string]any     `json:"config"`
	IsRequired     *bool              `json:"is_required,omitempty"`
	TimeoutSeconds *int               `json:"timeout_seconds,omitempty"`
	RetryCount     *int               `json:"retry_count,omitempty"`
}

// DefinitionEdge is an edge in a [Definition]. Edge ids are not persisted.
type DefinitionEdge struct {
	Source          string                 `json:"source"`
	Target          string                 `json:"target"`
	ConditionType   workflow.ConditionKind `json:"condition_type,omitempty"`
	ConditionConfig map[string]any         `json:"condition_config,omitempty"`
	Label           string                 `json:"label,omitempty"`
}

// ToDefinition encodes snap in the compact form. Configuration entries
// equal to their schema default are left out, as are default positions,
// flags and limits; [FromDefinition] restores them.
func ToDefinition(snap *workflow.Snapshot) Definition {
	def := Definition{
		Version: CurrentVersion,
		Nodes:   make([]DefinitionNode, 0, snap.NodeCount()),
		Edges:   make([]DefinitionEdge, 0, snap.EdgeCount()),
	}
	for _, n := range snap.Nodes() {
		d, _ := snap.Descriptor(n.ID)
		def.Nodes = append(def.Nodes, compactNode(n, d))
	}
	for _, e := range snap.Edges() {
		def.Edges = append(def.Edges, DefinitionEdge{
			Source:          e.Source,
			Target:          e.Target,
			ConditionType:   e.Condition,
			ConditionConfig: e.ConditionConfig,
			Label:           e.Label,
		})
	}
	observability.Serializer().OnEncode("definition", snap.NodeCount())
	return def
}

func compactNode(n workflow.Node, d *catalog.Descriptor) DefinitionNode {
	out := DefinitionNode{
		NodeID:      n.ID,
		TypeID:      n.TypeID,
		Name:        n.Name,
		Description: n.Description,
		Config:      make(map[string]any, len(n.Config)),
	}
	for k, v := range n.Config {
		if d != nil {
			if f, ok := d.Field(k); ok {
				if def, ok := f.Default(); ok && catalog.EqualValues(def, v) {
					continue
				}
			}
		}
		out.Config[k] = v
	}
	if !n.Position.IsZero() {
		pos := n.Position
		out.Position = &pos
	}
	if !n.Required {
		out.IsRequired = &n.Required
	}
	if n.TimeoutSeconds != workflow.DefaultTimeoutSeconds {
		out.TimeoutSeconds = &n.TimeoutSeconds
	}
	if n.RetryCount != workflow.DefaultRetryCount {
		out.RetryCount = &n.RetryCount
	}
	return out
}

// node expands a persisted node, filling absent attributes with defaults.
// A blank name falls back to the node type's name.
func (dn DefinitionNode) node(cat *catalog.Catalog) workflow.Node {
	n := workflow.Node{
		ID:             dn.NodeID,
		TypeID:         dn.TypeID,
		Name:           dn.Name,
		Description:    dn.Description,
		Config:         dn.Config,
		Required:       true,
		TimeoutSeconds: workflow.DefaultTimeoutSeconds,
		RetryCount:     workflow.DefaultRetryCount,
	}
	if strings.TrimSpace(n.Name) == "" {
		if d, ok := cat.Get(dn.TypeID); ok {
			n.Name = d.Name
		}
	}
	if dn.Position != nil {
		n.Position = *dn.Position
	}
	if dn.IsRequired != nil {
		n.Required = *dn.IsRequired
	}
	if dn.TimeoutSeconds != nil {
		n.TimeoutSeconds = *dn.TimeoutSeconds
	}
	if dn.RetryCount != nil {
		n.RetryCount = *dn.RetryCount
	}
	return n
}

// edge converts a persisted edge; a missing condition means always.
func (de DefinitionEdge) edge() workflow.Edge {
	kind := de.ConditionType
	if kind == "" {
		kind = workflow.ConditionAlways
	}
	return workflow.Edge{
		Source:          de.Source,
		Target:          de.Target,
		Condition:       kind,
		ConditionConfig: de.ConditionConfig,
		Label:           de.Label,
	}
}

// FromDefinition rebuilds a graph from a definition that is already in the
// current format. Every node and edge is checked against cat and the graph
// invariants; all problems are returned together as a [*DeserializeError].
// Use [ParseDefinition] for raw payloads of any format version.
func FromDefinition(def Definition, cat *catalog.Catalog, opts ...workflow.Option) (*workflow.Snapshot, error) {
	return buildDefinition(def, nil, nil, cat, opts)
}

// buildDefinition assembles def, skipping the node and edge indexes that
// already failed to decode.
func buildDefinition(def Definition, badNodes, badEdges map[int]string, cat *catalog.Catalog, opts []workflow.Option) (*workflow.Snapshot, error) {
	a := newAssembler(cat, opts)
	if def.Version > CurrentVersion {
		a.issue(ferrors.NewField(ferrors.ErrCodeUnsupportedVersion, "version",
			"definition version %d is newer than supported version %d", def.Version, CurrentVersion))
		return nil, a.err()
	}
	for i, dn := range def.Nodes {
		path := fmt.Sprintf("nodes[%d]", i)
		if id, bad := badNodes[i]; bad {
			a.skip(id)
			continue
		}
		a.node(path, dn.node(cat))
	}
	for i, de := range def.Edges {
		if _, bad := badEdges[i]; bad {
			continue
		}
		a.edge(fmt.Sprintf("edges[%d]", i), de.edge())
	}
	return a.result()
}

// assembler feeds decoded nodes and edges into a builder and collects
// every rejection under its payload path.
type assembler struct {
	b       *workflow.Builder
	skipped map[string]bool
	issues  []*ferrors.Error
}

func newAssembler(cat *catalog.Catalog, opts []workflow.Option) *assembler {
	return &assembler{
		b:       workflow.NewBuilder(cat, opts...),
		skipped: make(map[string]bool),
	}
}

func (a *assembler) issue(issues ...*ferrors.Error) {
	a.issues = append(a.issues, issues...)
}

// fail records err under path.
func (a *assembler) fail(path string, err error) {
	for _, e := range ferrors.Issues(err) {
		a.issue(e.WithPrefix(path))
	}
}

// skip marks a node id whose definition was rejected; edges touching it
// are dropped without further reports.
func (a *assembler) skip(id string) {
	if id != "" && !a.b.HasNode(id) {
		a.skipped[id] = true
	}
}

func (a *assembler) node(path string, n workflow.Node) {
	if err := a.b.AddNode(n); err != nil {
		a.fail(path, err)
		a.skip(n.ID)
	}
}

func (a *assembler) edge(path string, e workflow.Edge) {
	if a.skipped[e.Source] || a.skipped[e.Target] {
		return
	}
	if _, err := a.b.AddEdge(e); err != nil {
		a.fail(path, err)
	}
}

func (a *assembler) err() error {
	if len(a.issues) == 0 {
		return nil
	}
	return &DeserializeError{Issues: slices.Clone(a.issues)}
}

func (a *assembler) result() (*workflow.Snapshot, error) {
	if err := a.err(); err != nil {
		return nil, err
	}
	return a.b.Snapshot(), nil
}
