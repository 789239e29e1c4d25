package workflow

import (
	"github.com/matzehuels/flowgraph/pkg/catalog"
)

// Snapshot is an immutable view of a graph at one version. It owns deep
// copies of every node and edge, so later edits to the Store are never
// visible through it, and accessors hand out further copies.
//
// Snapshots are safe for concurrent use.
type Snapshot struct {
	version uint64
	cat     *catalog.Catalog

	nodes   []Node
	edges   []Edge
	nodeIdx map[string]int
	edgeIdx map[string]int
	out     map[string][]int // node id -> indexes into edges
	in      map[string][]int
}

func newSnapshot(g *graph, version uint64) *Snapshot {
	s := &Snapshot{
		version: version,
		cat:     g.cat,
		nodes:   make([]Node, 0, len(g.nodeOrder)),
		edges:   make([]Edge, 0, len(g.edgeOrder)),
		nodeIdx: make(map[string]int, len(g.nodeOrder)),
		edgeIdx: make(map[string]int, len(g.edgeOrder)),
		out:     make(map[string][]int),
		in:      make(map[string][]int),
	}
	for _, id := range g.nodeOrder {
		s.nodeIdx[id] = len(s.nodes)
		s.nodes = append(s.nodes, g.nodes[id].Clone())
	}
	for _, id := range g.edgeOrder {
		e := g.edges[id]
		i := len(s.edges)
		s.edgeIdx[id] = i
		s.edges = append(s.edges, e.Clone())
		s.out[e.Source] = append(s.out[e.Source], i)
		s.in[e.Target] = append(s.in[e.Target], i)
	}
	return s
}

// Version returns the graph version the snapshot was taken at.
func (s *Snapshot) Version() uint64 { return s.version }

// Catalog returns the catalog governing the graph.
func (s *Snapshot) Catalog() *catalog.Catalog { return s.cat }

// NodeCount returns the number of nodes.
func (s *Snapshot) NodeCount() int { return len(s.nodes) }

// EdgeCount returns the number of edges.
func (s *Snapshot) EdgeCount() int { return len(s.edges) }

// Nodes returns copies of all nodes in insertion order.
func (s *Snapshot) Nodes() []Node {
	out := make([]Node, len(s.nodes))
	for i, n := range s.nodes {
		out[i] = n.Clone()
	}
	return out
}

// Edges returns copies of all edges in insertion order.
func (s *Snapshot) Edges() []Edge {
	out := make([]Edge, len(s.edges))
	for i, e := range s.edges {
		out[i] = e.Clone()
	}
	return out
}

// NodeIDs returns node ids in insertion order.
func (s *Snapshot) NodeIDs() []string {
	ids := make([]string, len(s.nodes))
	for i, n := range s.nodes {
		ids[i] = n.ID
	}
	return ids
}

// Node returns a copy of the node with the given id.
func (s *Snapshot) Node(id string) (Node, bool) {
	i, ok := s.nodeIdx[id]
	if !ok {
		return Node{}, false
	}
	return s.nodes[i].Clone(), true
}

// Edge returns a copy of the edge with the given id.
func (s *Snapshot) Edge(id string) (Edge, bool) {
	i, ok := s.edgeIdx[id]
	if !ok {
		return Edge{}, false
	}
	return s.edges[i].Clone(), true
}

// HasNode reports whether the node exists.
func (s *Snapshot) HasNode(id string) bool {
	_, ok := s.nodeIdx[id]
	return ok
}

// Outgoing returns copies of the edges leaving a node, in insertion order.
func (s *Snapshot) Outgoing(id string) []Edge { return s.pick(s.out[id]) }

// Incoming returns copies of the edges entering a node, in insertion order.
func (s *Snapshot) Incoming(id string) []Edge { return s.pick(s.in[id]) }

func (s *Snapshot) pick(idx []int) []Edge {
	if len(idx) == 0 {
		return nil
	}
	out := make([]Edge, len(idx))
	for i, j := range idx {
		out[i] = s.edges[j].Clone()
	}
	return out
}

// Successors returns the targets of a node's outgoing edges. A target
// reached by several edges is listed once.
func (s *Snapshot) Successors(id string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, j := range s.out[id] {
		t := s.edges[j].Target
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// Predecessors returns the sources of a node's incoming edges, each once.
func (s *Snapshot) Predecessors(id string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, j := range s.in[id] {
		src := s.edges[j].Source
		if !seen[src] {
			seen[src] = true
			out = append(out, src)
		}
	}
	return out
}

// OutDegree returns the number of edges leaving a node.
func (s *Snapshot) OutDegree(id string) int { return len(s.out[id]) }

// InDegree returns the number of edges entering a node.
func (s *Snapshot) InDegree(id string) int { return len(s.in[id]) }

// Descriptor returns the type of a node.
func (s *Snapshot) Descriptor(nodeID string) (*catalog.Descriptor, bool) {
	i, ok := s.nodeIdx[nodeID]
	if !ok {
		return nil, false
	}
	return s.cat.Get(s.nodes[i].TypeID)
}

// Category returns the category of a node's type, or "" if unknown.
func (s *Snapshot) Category(nodeID string) catalog.Category {
	if d, ok := s.Descriptor(nodeID); ok {
		return d.Category
	}
	return ""
}

// OutputLimit returns how many more outgoing edges a node accepts:
// -1 for multi-output nodes, otherwise 0 or 1.
func (s *Snapshot) OutputLimit(nodeID string) int {
	d, ok := s.Descriptor(nodeID)
	switch {
	case !ok || d.Category == catalog.CategoryEnd:
		return 0
	case d.AllowsMultipleOutputs:
		return -1
	case s.OutDegree(nodeID) == 0:
		return 1
	}
	return 0
}
