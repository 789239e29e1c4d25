package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/flowgraph/pkg/catalog"
	"github.com/matzehuels/flowgraph/pkg/workflow"
)

// Encode returns the payload for snap in the requested format. cat and meta
// only matter for the canvas form.
func Encode(snap *workflow.Snapshot, format Format, cat *catalog.Catalog, meta CanvasMeta) (any, error) {
	switch format {
	case FormatDefinition:
		return ToDefinition(snap), nil
	case FormatCanvas:
		return ToCanvas(snap, cat, meta), nil
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

// WriteJSON encodes v as indented JSON and writes it to w.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportFile writes v as indented JSON to a file at path.
func ExportFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(f, v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
