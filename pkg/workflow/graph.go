package workflow

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/flowgraph/pkg/catalog"
	ferrors "github.com/matzehuels/flowgraph/pkg/errors"
)

// graph is the arena shared by Store and Builder. It owns nodes and edges
// keyed by id and keeps the adjacency and triple indexes in step. Every
// check* method is read-only, so callers validate first and mutate after.
type graph struct {
	cat *catalog.Catalog

	nodes     map[string]*Node
	edges     map[string]*Edge
	nodeOrder []string
	edgeOrder []string

	out     map[string][]string // node id -> outgoing edge ids
	in      map[string][]string // node id -> incoming edge ids
	triples map[edgeKey]string  // (source, target, kind) -> edge id
}

func newGraph(cat *catalog.Catalog) *graph {
	if cat == nil {
		cat = &catalog.Catalog{}
	}
	return &graph{
		cat:     cat,
		nodes:   make(map[string]*Node),
		edges:   make(map[string]*Edge),
		out:     make(map[string][]string),
		in:      make(map[string][]string),
		triples: make(map[edgeKey]string),
	}
}

// graphFromSnapshot rebuilds an arena from a snapshot's copies.
func graphFromSnapshot(s *Snapshot) *graph {
	g := newGraph(s.cat)
	for _, n := range s.nodes {
		c := n.Clone()
		g.insertNode(&c)
	}
	for _, e := range s.edges {
		c := e.Clone()
		g.insertEdge(&c)
	}
	return g
}

func (g *graph) node(id string) (*Node, *ferrors.Error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, ferrors.New(ferrors.ErrCodeUnknownNode, "node %q does not exist", id)
	}
	return n, nil
}

func (g *graph) edge(id string) (*Edge, *ferrors.Error) {
	e, ok := g.edges[id]
	if !ok {
		return nil, ferrors.New(ferrors.ErrCodeUnknownEdge, "edge %q does not exist", id)
	}
	return e, nil
}

// descriptor returns the type of a node already in the graph. Node types are
// checked on insertion, so a miss means the catalog was swapped underneath.
func (g *graph) descriptor(n *Node) *catalog.Descriptor {
	d, ok := g.cat.Get(n.TypeID)
	if !ok {
		return &catalog.Descriptor{ID: n.TypeID, Name: string(n.TypeID), Category: catalog.CategoryProcess}
	}
	return d
}

func (g *graph) insertNode(n *Node) {
	if n.Config == nil {
		n.Config = map[string]any{}
	}
	g.nodes[n.ID] = n
	g.nodeOrder = append(g.nodeOrder, n.ID)
}

func (g *graph) insertEdge(e *Edge) {
	g.edges[e.ID] = e
	g.edgeOrder = append(g.edgeOrder, e.ID)
	g.out[e.Source] = append(g.out[e.Source], e.ID)
	g.in[e.Target] = append(g.in[e.Target], e.ID)
	g.triples[e.key()] = e.ID
}

func (g *graph) deleteEdge(id string) {
	e := g.edges[id]
	if e == nil {
		return
	}
	isID := func(s string) bool { return s == id }
	g.out[e.Source] = slices.DeleteFunc(g.out[e.Source], isID)
	g.in[e.Target] = slices.DeleteFunc(g.in[e.Target], isID)
	g.edgeOrder = slices.DeleteFunc(g.edgeOrder, isID)
	delete(g.triples, e.key())
	delete(g.edges, id)
}

// deleteNode removes a node and every incident edge, returning the removed
// edge ids.
func (g *graph) deleteNode(id string) []string {
	incident := slices.Concat(g.out[id], g.in[id])
	for _, eid := range incident {
		g.deleteEdge(eid)
	}
	delete(g.out, id)
	delete(g.in, id)
	delete(g.nodes, id)
	g.nodeOrder = slices.DeleteFunc(g.nodeOrder, func(s string) bool { return s == id })
	return incident
}

// rekeyEdge updates the triple index after an edge's condition changed.
func (g *graph) rekeyEdge(e *Edge, old edgeKey) {
	delete(g.triples, old)
	g.triples[e.key()] = e.ID
}

// checkEdge validates a prospective edge against the graph. except names an
// existing edge to ignore, used when an edge is being modified in place.
// Checks run in a fixed order so that callers see the most basic problem.
// On success the condition config is replaced by its canonical JSON form.
func (g *graph) checkEdge(e *Edge, except string) *ferrors.Error {
	src, ok := g.nodes[e.Source]
	if !ok {
		return ferrors.NewField(ferrors.ErrCodeUnknownNode, "source", "node %q does not exist", e.Source)
	}
	dst, ok := g.nodes[e.Target]
	if !ok {
		return ferrors.NewField(ferrors.ErrCodeUnknownNode, "target", "node %q does not exist", e.Target)
	}
	if e.Source == e.Target {
		return ferrors.New(ferrors.ErrCodeSelfLoop, "node %q cannot connect to itself", e.Source)
	}

	srcType, dstType := g.descriptor(src), g.descriptor(dst)
	if srcType.Category == catalog.CategoryEnd {
		return ferrors.NewField(ferrors.ErrCodeInvalidEndpoint, "source", "end node %q has no outputs", e.Source)
	}
	if dstType.Category == catalog.CategoryStart {
		return ferrors.NewField(ferrors.ErrCodeInvalidEndpoint, "target", "start node %q has no inputs", e.Target)
	}

	if !e.Condition.Valid() {
		return ferrors.NewField(ferrors.ErrCodeInvalidCondition, "condition_type", "unknown condition %q", e.Condition)
	}
	if !ConditionAllowed(srcType.Category, e.Condition) {
		return ferrors.NewField(ferrors.ErrCodeInvalidCondition, "condition_type",
			"%s edges cannot leave %s node %q", e.Condition, srcType.Category, e.Source)
	}

	if id, dup := g.triples[e.key()]; dup && id != except {
		return ferrors.New(ferrors.ErrCodeDuplicateEdge, "%s edge %s -> %s already exists", e.Condition, e.Source, e.Target)
	}

	if !srcType.AllowsMultipleOutputs {
		for _, id := range g.out[e.Source] {
			if id != except {
				return ferrors.New(ferrors.ErrCodeSecondOutgoing, "%s node %q allows a single outgoing edge", srcType.Name, e.Source)
			}
		}
	}

	if err := checkLabel(e.Label); err != nil {
		return err
	}
	cfg, ok := catalog.CanonicalConfig(e.ConditionConfig)
	if !ok {
		return ferrors.NewField(ferrors.ErrCodeInvalidInput, "condition_config", "condition config must be JSON data")
	}
	if len(cfg) == 0 {
		cfg = nil // {} and absent mean the same and serialize the same
	}
	e.ConditionConfig = cfg
	return nil
}

// checkNode validates every attribute of a node that is about to be inserted
// and normalizes its configuration in place. All problems are reported.
func (g *graph) checkNode(n *Node) []*ferrors.Error {
	var issues []*ferrors.Error
	if err := ferrors.ValidateNodeID(n.ID); err != nil {
		issues = append(issues, ferrors.NewField(ferrors.GetCode(err), "node_id", "%s", ferrors.UserMessage(err)))
	} else if _, dup := g.nodes[n.ID]; dup {
		issues = append(issues, ferrors.NewField(ferrors.ErrCodeDuplicateNode, "node_id", "node %q already exists", n.ID))
	}

	for _, err := range []*ferrors.Error{
		checkName(n.Name),
		checkDescription(n.Description),
		checkPosition(n.Position),
		checkTimeout(n.TimeoutSeconds),
		checkRetry(n.RetryCount),
	} {
		if err != nil {
			issues = append(issues, err)
		}
	}

	d, ok := g.cat.Get(n.TypeID)
	if !ok {
		return append(issues, ferrors.NewField(ferrors.ErrCodeUnknownType, "type_id", "unknown node type %q", n.TypeID))
	}
	cfg, cfgIssues := normalizeConfig(d, n.Config)
	for _, e := range cfgIssues {
		issues = append(issues, e.WithPrefix("config"))
	}
	n.Config = cfg
	return issues
}

// normalizeConfig checks a full configuration against a type's schema and
// fills in defaults for fields that are absent.
func normalizeConfig(d *catalog.Descriptor, cfg map[string]any) (map[string]any, []*ferrors.Error) {
	out := d.DefaultConfig()
	var issues []*ferrors.Error

	keys := make([]string, 0, len(cfg))
	for k := range cfg {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		v, err := normalizeField(d, k, cfg[k])
		if err != nil {
			issues = append(issues, err)
			continue
		}
		out[k] = v
	}
	return out, issues
}

func normalizeField(d *catalog.Descriptor, name string, v any) (any, *ferrors.Error) {
	f, ok := d.Field(name)
	if !ok {
		return nil, ferrors.NewField(ferrors.ErrCodeUnknownField, name, "%s does not declare field %q", d.Name, name)
	}
	norm, err := f.Normalize(v)
	if err != nil {
		return nil, ferrors.NewField(ferrors.ErrCodeFieldConstraint, name, "%s", ferrors.UserMessage(err))
	}
	return norm, nil
}

func checkName(name string) *ferrors.Error {
	if err := ferrors.ValidateName(name); err != nil {
		return ferrors.NewField(ferrors.ErrCodeOutOfRange, "name", "%s", ferrors.UserMessage(err))
	}
	return nil
}

func checkDescription(desc string) *ferrors.Error {
	if utf8.RuneCountInString(desc) > ferrors.MaxDescriptionLength {
		return ferrors.NewField(ferrors.ErrCodeOutOfRange, "description",
			"description too long (max %d characters)", ferrors.MaxDescriptionLength)
	}
	return nil
}

func checkPosition(pos Position) *ferrors.Error {
	if !pos.Finite() {
		return ferrors.NewField(ferrors.ErrCodeOutOfRange, "position", "coordinates must be finite, got (%g, %g)", pos.X, pos.Y)
	}
	return nil
}

func checkTimeout(seconds int) *ferrors.Error {
	if seconds < MinTimeoutSeconds || seconds > MaxTimeoutSeconds {
		return ferrors.NewField(ferrors.ErrCodeOutOfRange, "timeout_seconds",
			"must be between %d and %d, got %d", MinTimeoutSeconds, MaxTimeoutSeconds, seconds)
	}
	return nil
}

func checkRetry(count int) *ferrors.Error {
	if count < 0 || count > MaxRetryCount {
		return ferrors.NewField(ferrors.ErrCodeOutOfRange, "retry_count",
			"must be between 0 and %d, got %d", MaxRetryCount, count)
	}
	return nil
}

func checkLabel(label string) *ferrors.Error {
	if utf8.RuneCountInString(label) > ferrors.MaxLabelLength {
		return ferrors.NewField(ferrors.ErrCodeOutOfRange, "label",
			"label too long (max %d characters)", ferrors.MaxLabelLength)
	}
	return nil
}

func trimName(name string) string { return strings.TrimSpace(name) }
