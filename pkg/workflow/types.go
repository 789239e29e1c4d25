package workflow

import (
	"math"

	"github.com/matzehuels/flowgraph/pkg/catalog"
)

// Node attribute bounds and defaults.
const (
	DefaultTimeoutSeconds = 300
	MinTimeoutSeconds     = 1
	MaxTimeoutSeconds     = 3600
	DefaultRetryCount     = 3
	MaxRetryCount         = 10
)

// Position is a canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// IsZero reports whether p is the origin.
func (p Position) IsZero() bool { return p.X == 0 && p.Y == 0 }

// Finite reports whether both coordinates are neither NaN nor infinite.
func (p Position) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Node is a placed instance of a node type.
//
// Nodes handed out by a [Snapshot] are copies; changing them has no effect
// on the graph. Use the [Store] operations to edit.
type Node struct {
	ID          string
	TypeID      catalog.TypeID
	Name        string
	Description string
	Position    Position

	// Config holds canonical values keyed by declared field name.
	// It is never nil on nodes obtained from a Store or Snapshot.
	Config map[string]any

	Required       bool
	TimeoutSeconds int
	RetryCount     int
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	n.Config = catalog.CloneConfig(n.Config)
	if n.Config == nil {
		n.Config = map[string]any{}
	}
	return n
}

// Edge is a directed transition between two nodes.
type Edge struct {
	ID        string
	Source    string
	Target    string
	Condition ConditionKind
	Label     string

	// ConditionConfig is opaque to the model and only copied around.
	ConditionConfig map[string]any
}

// Clone returns a deep copy of e.
func (e Edge) Clone() Edge {
	e.ConditionConfig = catalog.CloneConfig(e.ConditionConfig)
	return e
}

type edgeKey struct {
	source, target string
	kind           ConditionKind
}

func (e *Edge) key() edgeKey { return edgeKey{e.Source, e.Target, e.Condition} }

// SelectionKind says what the selection cursor points at.
type SelectionKind int

const (
	SelectNone SelectionKind = iota
	SelectNode
	SelectEdge
)

// Selection is the editor's cursor: at most one node or one edge.
// It is editor state and not part of the versioned graph.
type Selection struct {
	Kind SelectionKind
	ID   string
}

// Node returns the selected node id, if a node is selected.
func (s Selection) Node() (string, bool) { return s.ID, s.Kind == SelectNode }

// Edge returns the selected edge id, if an edge is selected.
func (s Selection) Edge() (string, bool) { return s.ID, s.Kind == SelectEdge }

// IsEmpty reports whether nothing is selected.
func (s Selection) IsEmpty() bool { return s.Kind == SelectNone }
