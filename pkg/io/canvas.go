package io

import (
	"fmt"

	"github.com/matzehuels/flowgraph/pkg/catalog"
	ferrors "github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/observability"
	"github.com/matzehuels/flowgraph/pkg/workflow"
)

// Canvas is the editor-facing form of a workflow. Nodes always carry a
// position and are decorated with their type's presentation; edges keep
// their ids. Definition holds the same graph in compact form.
type Canvas struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Status      workflow.Status `json:"status"`
	Nodes       []CanvasNode    `json:"nodes"`
	Edges       []CanvasEdge    `json:"edges"`
	Definition  *Definition     `json:"definition,omitempty"`
}

// CanvasNode is a node as the editor draws it. The presentation fields are
// derived from the catalog on output and ignored on input.
type CanvasNode struct {
	NodeID         string             `json:"node_id"`
	TypeID         catalog.TypeID     `json:"type_id"`
	Name           string             `json:"name"`
	Description    string             `json:"description,omitempty"`
	Position       *workflow.Position `json:"position"`
	Config         map[string]any     `json:"config"`
	IsRequired     *bool              `json:"is_required"`
	TimeoutSeconds *int               `json:"timeout_seconds"`
	RetryCount     *int               `json:"retry_count"`

	Category              catalog.Category `json:"type,omitempty"`
	TypeName              string           `json:"type_name,omitempty"`
	Icon                  string           `json:"icon,omitempty"`
	Color                 string           `json:"color,omitempty"`
	RequiresUserAction    bool             `json:"requires_user_action"`
	AllowsMultipleOutputs bool             `json:"allows_multiple_outputs"`
}

// CanvasEdge is an edge as the editor draws it.
type CanvasEdge struct {
	ID              string                 `json:"id"`
	Source          string                 `json:"source"`
	Target          string                 `json:"target"`
	ConditionType   workflow.ConditionKind `json:"condition_type,omitempty"`
	ConditionConfig map[string]any         `json:"condition_config,omitempty"`
	Label           string                 `json:"label,omitempty"`
}

// CanvasMeta is the workflow record a canvas belongs to.
type CanvasMeta struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Status      workflow.Status `json:"status"`
}

// ToCanvas encodes snap for the editor. cat decorates the nodes; nil means
// the snapshot's own catalog. An empty meta.Status is written as draft.
func ToCanvas(snap *workflow.Snapshot, cat *catalog.Catalog, meta CanvasMeta) Canvas {
	if cat == nil {
		cat = snap.Catalog()
	}
	status := meta.Status
	if status == "" {
		status = workflow.StatusDraft
	}
	def := ToDefinition(snap)
	c := Canvas{
		ID:          meta.ID,
		Name:        meta.Name,
		Description: meta.Description,
		Status:      status,
		Nodes:       make([]CanvasNode, 0, snap.NodeCount()),
		Edges:       make([]CanvasEdge, 0, snap.EdgeCount()),
		Definition:  &def,
	}
	for _, n := range snap.Nodes() {
		c.Nodes = append(c.Nodes, canvasNode(n, cat))
	}
	for _, e := range snap.Edges() {
		c.Edges = append(c.Edges, CanvasEdge{
			ID:              e.ID,
			Source:          e.Source,
			Target:          e.Target,
			ConditionType:   e.Condition,
			ConditionConfig: e.ConditionConfig,
			Label:           e.Label,
		})
	}
	observability.Serializer().OnEncode("canvas", snap.NodeCount())
	return c
}

func canvasNode(n workflow.Node, cat *catalog.Catalog) CanvasNode {
	pos := n.Position
	out := CanvasNode{
		NodeID:         n.ID,
		TypeID:         n.TypeID,
		Name:           n.Name,
		Description:    n.Description,
		Position:       &pos,
		Config:         n.Config,
		IsRequired:     &n.Required,
		TimeoutSeconds: &n.TimeoutSeconds,
		RetryCount:     &n.RetryCount,
	}
	if out.Config == nil {
		out.Config = map[string]any{}
	}
	if d, ok := cat.Get(n.TypeID); ok {
		out.Category = d.Category
		out.TypeName = d.Name
		out.Icon = d.Icon
		out.Color = d.Color
		out.RequiresUserAction = d.RequiresUserAction
		out.AllowsMultipleOutputs = d.AllowsMultipleOutputs
	}
	return out
}

// definitionNode drops the presentation fields.
func (cn CanvasNode) definitionNode() DefinitionNode {
	return DefinitionNode{
		NodeID:         cn.NodeID,
		TypeID:         cn.TypeID,
		Name:           cn.Name,
		Description:    cn.Description,
		Position:       cn.Position,
		Config:         cn.Config,
		IsRequired:     cn.IsRequired,
		TimeoutSeconds: cn.TimeoutSeconds,
		RetryCount:     cn.RetryCount,
	}
}

func (ce CanvasEdge) edge() workflow.Edge {
	e := DefinitionEdge{
		Source:          ce.Source,
		Target:          ce.Target,
		ConditionType:   ce.ConditionType,
		ConditionConfig: ce.ConditionConfig,
		Label:           ce.Label,
	}.edge()
	e.ID = ce.ID
	return e
}

// FromCanvas rebuilds a graph from the editor form. Every node must carry a
// position. Edge ids are kept; edges without one get a fresh id. The nested
// Definition is not consulted.
func FromCanvas(c Canvas, cat *catalog.Catalog, opts ...workflow.Option) (*workflow.Snapshot, CanvasMeta, error) {
	return buildCanvas(c, nil, nil, cat, opts)
}

func buildCanvas(c Canvas, badNodes, badEdges map[int]string, cat *catalog.Catalog, opts []workflow.Option) (*workflow.Snapshot, CanvasMeta, error) {
	a := newAssembler(cat, opts)
	meta := CanvasMeta{ID: c.ID, Name: c.Name, Description: c.Description, Status: c.Status}
	if meta.Status == "" {
		meta.Status = workflow.StatusDraft
	}
	if !meta.Status.Valid() {
		a.issue(ferrors.NewField(ferrors.ErrCodeInvalidInput, "status", "unknown status %q", c.Status))
	}
	for i, cn := range c.Nodes {
		path := fmt.Sprintf("nodes[%d]", i)
		if id, bad := badNodes[i]; bad {
			a.skip(id)
			continue
		}
		if cn.Position == nil {
			a.issue(ferrors.NewField(ferrors.ErrCodeInvalidPayload, path+".position", "canvas nodes need a position"))
			a.skip(cn.NodeID)
			continue
		}
		a.node(path, cn.definitionNode().node(cat))
	}
	for i, ce := range c.Edges {
		if _, bad := badEdges[i]; bad {
			continue
		}
		a.edge(fmt.Sprintf("edges[%d]", i), ce.edge())
	}
	snap, err := a.result()
	return snap, meta, err
}
