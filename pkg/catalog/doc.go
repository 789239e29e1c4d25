// Package catalog holds the node-type descriptors that govern which nodes a
// workflow graph may contain.
//
// # Overview
//
// A [Descriptor] declares a node type's category (start, decision, approval,
// ...), its display metadata, whether it may fan out to several successors,
// and a configuration schema. The schema maps field names to a [FieldSpec],
// the JSON shape served by the backend catalog endpoint. During [Load] every
// spec is compiled into a [Field], a small sum type with one variant per field
// kind (text, integer, enumeration, real-in-range, e-mail list, ...). The same
// Field drives both the editor's input widgets and value validation.
//
// # Loading
//
// Catalogs are built once and are read-only afterwards:
//
//	cat, err := catalog.Load(descriptors)
//	cat, err := catalog.LoadFile("node_types.toml")
//	cat := catalog.MustBuiltin()
//
// [Load] rejects repeated identifiers with DUPLICATE_ID and malformed schemas
// (enumerations without options, sliders with min > max, defaults that
// violate their own field) with INVALID_SCHEMA.
//
// # Values
//
// Configuration values are JSON-shaped. [Field.Normalize] checks a value and
// converts it to a canonical Go representation (string, int64, float64,
// []string, or an opaque cloned JSON value), so values compare equal whether
// they were set programmatically or decoded from JSON or TOML.
//
// # Concurrency
//
// A loaded [Catalog] is immutable and safe for concurrent use.
package catalog
