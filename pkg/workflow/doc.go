// Package workflow holds the editable state of a workflow graph.
//
// # Overview
//
// A workflow is a directed graph of [Node] values connected by [Edge] values.
// Each node instantiates a node type from a [catalog.Catalog]; the type's
// category decides how the node may be wired (start nodes take no inputs, end
// nodes produce no outputs, only decision nodes emit conditional edges, ...).
//
// The [Store] owns the graph. All edits go through its methods, which either
// succeed and bump the version or fail with a structured error and change
// nothing:
//
//	s := workflow.NewStore(catalog.MustBuiltin())
//	start, _ := s.AddNode("start", workflow.Position{})
//	end, _ := s.AddNode("end", workflow.Position{X: 200})
//	if _, err := s.AddEdge(start, end, workflow.ConditionAlways, nil); err != nil {
//	    // err is an *errors.Error; the graph is unchanged
//	}
//
// # Invariants
//
// The store guarantees at all times that:
//   - every edge connects two existing, distinct nodes
//   - at most one edge exists per (source, target, condition) triple
//   - single-output nodes have at most one outgoing edge
//   - start nodes have no incoming and end nodes no outgoing edges
//   - node configurations hold only declared fields with valid values
//
// Whole-graph properties needed for activation (reachability, termination,
// approval branches) are not invariants; they are checked by package validate.
//
// # Snapshots
//
// [Store.Snapshot] returns an immutable deep copy tagged with the version it
// was taken at. Snapshots are memoized per version and safe to share across
// goroutines. [Store.Watch] delivers a snapshot after every successful edit.
//
// # Condition Matrix
//
// [ConditionAllowed] is the single table deciding which condition kinds may
// leave a node of a given category:
//
//	always, on-success, on-failure   any category except end
//	conditional                      decision
//	approval-yes, approval-no        approval
package workflow
