// Package pkg provides the core libraries for Flowgraph workflow graphs.
//
// # Overview
//
// A workflow is a directed graph of typed nodes (start, document processing,
// approvals, decisions, notifications, end) joined by conditional edges. The
// pkg directory is organized around the life of such a graph:
//
//  1. [catalog] - Node types, their configuration schemas and defaults
//  2. [workflow] - The graph store: versioned edits, snapshots, selection
//  3. [validate] - Activation rules and status transitions
//  4. [io] - Definition and canvas payloads, legacy migration, templates
//  5. [render] - DOT, SVG, PDF and PNG diagrams
//
// # Architecture
//
// The typical data flow:
//
//	definition.json / canvas.json
//	         ↓
//	    [io] package (detect, migrate, decode against the catalog)
//	         ↓
//	    [workflow] package (snapshot, or a store for editing)
//	         ↓
//	    [validate] package (violations, activation verdict)
//	         ↓
//	    definition / canvas / diagram output
//
// # Quick Start
//
// Load a workflow and check whether it may be activated:
//
//	import (
//	    "github.com/matzehuels/flowgraph/pkg/catalog"
//	    flowio "github.com/matzehuels/flowgraph/pkg/io"
//	    "github.com/matzehuels/flowgraph/pkg/validate"
//	)
//
//	cat := catalog.MustBuiltin()
//	doc, err := flowio.ImportFile("invoice.json", cat)
//	if err != nil {
//	    return err // a *flowio.DeserializeError lists every payload issue
//	}
//	for _, v := range validate.Validate(doc.Snapshot, cat) {
//	    fmt.Println(v)
//	}
//
// Build a graph through the store:
//
//	store := workflow.NewStore(cat)
//	start, _ := store.AddNode("start", workflow.Position{})
//	end, _ := store.AddNode("end", workflow.Position{X: 200})
//	store.AddEdge(start, end, workflow.ConditionAlways, nil)
//	def := flowio.ToDefinition(store.Snapshot())
//
// # Infrastructure
//
// [errors] - Coded errors shared by every package, with field paths and
// user-facing messages.
//
// [cache] - File, Redis and null caches with content-addressed keys, used to
// memoize validation reports and rendered diagrams.
//
// [observability] - Hooks for edits, validation, serialization, caching and
// HTTP. No-op by default.
//
// [api] - The HTTP surface served by "flowgraph serve".
//
// [catalog]: https://pkg.go.dev/github.com/matzehuels/flowgraph/pkg/catalog
// [workflow]: https://pkg.go.dev/github.com/matzehuels/flowgraph/pkg/workflow
// [validate]: https://pkg.go.dev/github.com/matzehuels/flowgraph/pkg/validate
// [io]: https://pkg.go.dev/github.com/matzehuels/flowgraph/pkg/io
// [render]: https://pkg.go.dev/github.com/matzehuels/flowgraph/pkg/render
// [errors]: https://pkg.go.dev/github.com/matzehuels/flowgraph/pkg/errors
// [cache]: https://pkg.go.dev/github.com/matzehuels/flowgraph/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/flowgraph/pkg/observability
// [api]: https://pkg.go.dev/github.com/matzehuels/flowgraph/pkg/api
package pkg
