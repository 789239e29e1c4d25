// Package validate decides whether a workflow graph may be activated.
//
// The graph store keeps a graph well-formed edit by edit; activation needs
// whole-graph properties on top of that. [Validate] evaluates every rule and
// returns all violations together so an editor can show them at once:
//
//	violations := validate.Validate(store.Snapshot(), cat)
//	if len(violations) == 0 {
//	    // ready to go live
//	}
//
// Rules are evaluated in a fixed order (see [Rules]) and, within a rule, in
// node insertion order, so results are deterministic.
//
// Nodes whose required flag is false are optional: they are exempt from the
// reachability and termination rules, and only required nodes must lie on a
// start-to-end path.
package validate

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/flowgraph/pkg/catalog"
	"github.com/matzehuels/flowgraph/pkg/observability"
	"github.com/matzehuels/flowgraph/pkg/workflow"
)

// Rule names an activation rule.
type Rule string

const (
	RuleHasStart               Rule = "has_start"
	RuleHasEnd                 Rule = "has_end"
	RuleReachability           Rule = "reachability"
	RuleTermination            Rule = "termination"
	RuleNoOrphanApproval       Rule = "no_orphan_approval"
	RuleNoOrphanDecision       Rule = "no_orphan_decision"
	RuleRequiredConfigComplete Rule = "required_config_complete"
	RuleNoDanglingRequired     Rule = "no_dangling_required"
)

// Rules lists every rule in evaluation order.
var Rules = []Rule{
	RuleHasStart,
	RuleHasEnd,
	RuleReachability,
	RuleTermination,
	RuleNoOrphanApproval,
	RuleNoOrphanDecision,
	RuleRequiredConfigComplete,
	RuleNoDanglingRequired,
}

// LocationKind says what a violation points at.
type LocationKind string

const (
	AtGraph LocationKind = "graph"
	AtNode  LocationKind = "node"
	AtEdge  LocationKind = "edge"
)

// Location identifies where a violation applies.
type Location struct {
	Kind LocationKind `json:"kind"`
	ID   string       `json:"id,omitempty"`
}

func (l Location) String() string {
	if l.Kind == AtGraph {
		return "graph"
	}
	return string(l.Kind) + " " + l.ID
}

// Violation is one failed activation rule.
type Violation struct {
	Rule     Rule     `json:"rule"`
	Location Location `json:"location"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s at %s: %s", v.Rule, v.Location, v.Message)
}

// Violations is a list of violations usable as an error.
type Violations []Violation

func (vs Violations) Error() string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, "; ")
}

// Has reports whether any violation of rule applies to the location id
// ("" matches the graph).
func (vs Violations) Has(rule Rule, id string) bool {
	return slices.ContainsFunc(vs, func(v Violation) bool {
		return v.Rule == rule && v.Location.ID == id
	})
}

// Validate returns every activation violation of snap. cat may be nil, in
// which case the snapshot's own catalog is used. The result is empty iff the
// graph is activatable.
func Validate(snap *workflow.Snapshot, cat *catalog.Catalog) Violations {
	start := time.Now()
	if cat == nil {
		cat = snap.Catalog()
	}
	c := newChecker(snap, cat)
	c.run()
	observability.Validation().OnValidate(snap.NodeCount(), len(c.out), time.Since(start))
	return c.out
}

// Activatable reports whether Validate finds nothing.
func Activatable(snap *workflow.Snapshot, cat *catalog.Catalog) bool {
	return len(Validate(snap, cat)) == 0
}

// checker holds the per-run indexes shared by the rules.
type checker struct {
	snap  *workflow.Snapshot
	nodes []workflow.Node
	types map[string]*catalog.Descriptor

	starts, ends []string
	forward      map[string]bool // reachable from some start
	backward     map[string]bool // reaches some end

	out Violations
}

func newChecker(snap *workflow.Snapshot, cat *catalog.Catalog) *checker {
	c := &checker{
		snap:  snap,
		nodes: snap.Nodes(),
		types: make(map[string]*catalog.Descriptor),
	}
	for _, n := range c.nodes {
		d, ok := cat.Get(n.TypeID)
		if !ok {
			continue
		}
		c.types[n.ID] = d
		switch d.Category {
		case catalog.CategoryStart:
			c.starts = append(c.starts, n.ID)
		case catalog.CategoryEnd:
			c.ends = append(c.ends, n.ID)
		}
	}
	c.forward = c.reach(c.starts, snap.Successors)
	c.backward = c.reach(c.ends, snap.Predecessors)
	return c
}

// reach returns every node reachable from roots by following next.
func (c *checker) reach(roots []string, next func(string) []string) map[string]bool {
	seen := make(map[string]bool, len(c.nodes))
	queue := slices.Clone(roots)
	for _, r := range roots {
		seen[r] = true
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, n := range next(id) {
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	return seen
}

func (c *checker) category(id string) catalog.Category {
	if d, ok := c.types[id]; ok {
		return d.Category
	}
	return ""
}

func (c *checker) add(rule Rule, loc Location, field, format string, args ...any) {
	c.out = append(c.out, Violation{
		Rule:     rule,
		Location: loc,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (c *checker) run() {
	graph := Location{Kind: AtGraph}
	if len(c.starts) == 0 {
		c.add(RuleHasStart, graph, "", "workflow has no start node")
	}
	if len(c.ends) == 0 {
		c.add(RuleHasEnd, graph, "", "workflow has no end node")
	}

	for _, n := range c.nodes {
		if n.Required && c.category(n.ID) != catalog.CategoryStart && !c.forward[n.ID] {
			c.add(RuleReachability, node(n.ID), "", "%s is not reachable from a start node", n.Name)
		}
	}
	for _, n := range c.nodes {
		if n.Required && !c.backward[n.ID] {
			c.add(RuleTermination, node(n.ID), "", "no path leads from %s to an end node", n.Name)
		}
	}
	for _, n := range c.nodes {
		c.checkApproval(n)
	}
	for _, n := range c.nodes {
		c.checkDecision(n)
	}
	for _, n := range c.nodes {
		c.checkRequiredConfig(n)
	}
	for _, n := range c.nodes {
		if n.Required && !(c.forward[n.ID] && c.backward[n.ID]) {
			c.add(RuleNoDanglingRequired, node(n.ID), "", "required node %s is not on a start-to-end path", n.Name)
		}
	}
}

func node(id string) Location { return Location{Kind: AtNode, ID: id} }

func (c *checker) outgoingKinds(id string) map[workflow.ConditionKind]bool {
	kinds := make(map[workflow.ConditionKind]bool)
	for _, e := range c.snap.Outgoing(id) {
		kinds[e.Condition] = true
	}
	return kinds
}

// checkApproval requires multi-output approval nodes to route both outcomes,
// or to continue unconditionally.
func (c *checker) checkApproval(n workflow.Node) {
	d, ok := c.types[n.ID]
	if !ok || d.Category != catalog.CategoryApproval || !d.AllowsMultipleOutputs {
		return
	}
	kinds := c.outgoingKinds(n.ID)
	if kinds[workflow.ConditionAlways] {
		return
	}
	var missing []string
	for _, k := range []workflow.ConditionKind{workflow.ConditionApprovalYes, workflow.ConditionApprovalNo} {
		if !kinds[k] {
			missing = append(missing, string(k))
		}
	}
	if len(missing) > 0 {
		c.add(RuleNoOrphanApproval, node(n.ID), "", "approval %s has no %s branch", n.Name, strings.Join(missing, " or "))
	}
}

// checkDecision requires multi-output decision nodes to branch on at least
// two distinct condition kinds.
func (c *checker) checkDecision(n workflow.Node) {
	d, ok := c.types[n.ID]
	if !ok || d.Category != catalog.CategoryDecision || !d.AllowsMultipleOutputs {
		return
	}
	if kinds := c.outgoingKinds(n.ID); len(kinds) < 2 {
		c.add(RuleNoOrphanDecision, node(n.ID), "", "decision %s needs at least two branches with distinct conditions, has %d", n.Name, len(kinds))
	}
}

func (c *checker) checkRequiredConfig(n workflow.Node) {
	d, ok := c.types[n.ID]
	if !ok {
		return
	}
	for _, name := range d.FieldNames() {
		f, _ := d.Field(name)
		if !f.Required() {
			continue
		}
		v, set := n.Config[name]
		if set && !catalog.IsEmpty(v) {
			continue
		}
		// A default stands in for an absent key, never for a stored empty value.
		if _, hasDefault := f.Default(); hasDefault && !set {
			continue
		}
		c.add(RuleRequiredConfigComplete, node(n.ID), name, "%s requires a value for %s", n.Name, name)
	}
}
