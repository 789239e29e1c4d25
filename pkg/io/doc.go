// Package io converts workflow graphs to and from their JSON payloads.
//
// # Formats
//
// A graph has two serialized shapes. The definition is the compact form the
// backend persists; values equal to their defaults are left out:
//
//	{
//	  "version": 1,
//	  "nodes": [
//	    {"node_id": "start_1", "type_id": "start", "name": "Start", "config": {}},
//	    {"node_id": "end_1", "type_id": "end", "name": "End", "config": {},
//	     "position": {"x": 200, "y": 0}}
//	  ],
//	  "edges": [
//	    {"source": "start_1", "target": "end_1", "condition_type": "always"}
//	  ]
//	}
//
// The canvas is what the editor loads: the workflow record (id, name,
// status), nodes with mandatory positions and their type's icon and color,
// edges with ids, and the definition alongside.
//
// # Decoding
//
// [ParseDefinition] and [ParseCanvas] never stop at the first problem. JSON
// type errors, unknown node types, schema violations and graph invariant
// violations are all collected into a [*DeserializeError] whose issues carry
// payload paths:
//
//	snap, err := io.ParseDefinition(data, cat)
//	var de *io.DeserializeError
//	if errors.As(err, &de) {
//	    for _, issue := range de.Issues {
//	        fmt.Println(issue.Field, issue.Message) // nodes[2].config.timeout_hours ...
//	    }
//	}
//
// An edge whose endpoint node was rejected is skipped silently, so one bad
// node produces one issue.
//
// # Versions
//
// Definitions carry a format version. [Migrate] upgrades older payloads one
// version at a time before decoding; version 0 is the legacy editor format,
// which referenced node types by category and spelled conditions with
// underscores. Payloads newer than [CurrentVersion] are rejected with
// UNSUPPORTED_VERSION.
//
// # Round trips
//
// For any snapshot s, ParseDefinition(ToDefinition(s)) rebuilds the same
// nodes and edges except for edge ids, which definitions do not persist.
// Canvas round trips keep edge ids as well.
//
// # Templates
//
// [BuiltinTemplates] returns the prebuilt workflows the platform ships.
// [Instantiate] turns one into a draft canvas:
//
//	ts, _ := io.BuiltinTemplates()
//	t, _ := io.FindTemplate(ts, "invoice_processing")
//	canvas, snap, err := io.Instantiate(t, cat, io.CanvasMeta{Name: "Accounts Payable"})
//	// canvas.Name == "Invoice Processing Workflow - Accounts Payable"
package io
