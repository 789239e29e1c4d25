package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	ferrors "github.com/matzehuels/flowgraph/pkg/errors"
)

// catalogFile is the on-disk shape of a catalog. JSON files may also hold
// a bare array of descriptors, as served by the backend endpoint.
type catalogFile struct {
	NodeTypes []Descriptor `json:"node_types" toml:"node_types"`
}

// ReadJSON decodes descriptors from r and loads them.
func ReadJSON(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var descriptors []Descriptor
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &descriptors)
	} else {
		var f catalogFile
		err = json.Unmarshal(data, &f)
		descriptors = f.NodeTypes
	}
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidPayload, err, "decode catalog")
	}
	return Load(descriptors)
}

// ReadTOML decodes a [[node_types]] array from r and loads it.
//
//	[[node_types]]
//	id = "start"
//	name = "Start"
//	type = "start"
//	allows_multiple_outputs = true
//
//	[node_types.config_schema.trigger_type]
//	type = "select"
//	options = ["manual", "schedule"]
//	default = "manual"
func ReadTOML(r io.Reader) (*Catalog, error) {
	var f catalogFile
	if _, err := toml.NewDecoder(r).Decode(&f); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidPayload, err, "decode catalog")
	}
	return Load(f.NodeTypes)
}

// LoadFile reads a catalog from path. Files ending in .toml are decoded as
// TOML, everything else as JSON.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ReadTOML(f)
	}
	return ReadJSON(f)
}
