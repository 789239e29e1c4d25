package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/flowgraph/pkg/catalog"
	ferrors "github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/workflow"
)

// Format names one of the two payload shapes.
type Format string

const (
	FormatDefinition Format = "definition"
	FormatCanvas     Format = "canvas"
)

// Valid reports whether f is a known format.
func (f Format) Valid() bool { return f == FormatDefinition || f == FormatCanvas }

// canvasKeys are top-level members only the canvas form has.
var canvasKeys = []string{"definition", "status", "name", "id"}

// DetectFormat guesses the shape of a payload: canvas payloads carry the
// workflow record's fields, definitions only version, nodes and edges.
func DetectFormat(data []byte) (Format, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return "", &DeserializeError{Issues: []*ferrors.Error{payloadIssue("", err)}}
	}
	for _, k := range canvasKeys {
		if _, ok := top[k]; ok {
			return FormatCanvas, nil
		}
	}
	return FormatDefinition, nil
}

// Document is a decoded payload together with its shape. Meta is only
// populated for canvas payloads.
type Document struct {
	Format   Format
	Snapshot *workflow.Snapshot
	Meta     CanvasMeta
}

// Parse decodes a payload of either shape, detecting which it is.
func Parse(data []byte, cat *catalog.Catalog, opts ...workflow.Option) (*Document, error) {
	format, err := DetectFormat(data)
	if err != nil {
		return nil, err
	}
	doc := &Document{Format: format}
	switch format {
	case FormatCanvas:
		doc.Snapshot, doc.Meta, err = ParseCanvas(data, cat, opts...)
	default:
		doc.Snapshot, err = ParseDefinition(data, cat, opts...)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ReadDocument reads a payload of either shape from r. It does not close r.
func ReadDocument(r io.Reader, cat *catalog.Catalog, opts ...workflow.Option) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return Parse(data, cat, opts...)
}

// ImportFile reads the workflow file at path. Decoding errors are returned
// unchanged so callers can list the individual issues.
func ImportFile(path string, cat *catalog.Catalog, opts ...workflow.Option) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDocument(f, cat, opts...)
}
