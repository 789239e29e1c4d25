package catalog

import (
	"bytes"
	_ "embed"
	"sync"
)

//go:embed builtin.json
var builtinJSON []byte

var builtin = sync.OnceValues(func() (*Catalog, error) {
	return ReadJSON(bytes.NewReader(builtinJSON))
})

// Builtin returns the catalog of node types the platform ships with:
// Start, End, Document Processing, Human Approval, Decision,
// Data Processing, Email Notification and CRM Integration.
// The catalog is loaded once and shared.
func Builtin() (*Catalog, error) { return builtin() }

// MustBuiltin is like [Builtin] but panics if the embedded catalog is invalid.
func MustBuiltin() *Catalog {
	c, err := builtin()
	if err != nil {
		panic("catalog: invalid builtin catalog: " + err.Error())
	}
	return c
}

// BuiltinJSON returns the raw embedded catalog.
func BuiltinJSON() []byte { return bytes.Clone(builtinJSON) }

//go:embed templates.json
var templatesJSON []byte

// BuiltinTemplatesJSON returns the raw embedded workflow templates. Their
// definitions reference this package's builtin node types; package io
// decodes them.
func BuiltinTemplatesJSON() []byte { return bytes.Clone(templatesJSON) }
