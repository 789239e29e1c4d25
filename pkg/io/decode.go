package io

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/flowgraph/pkg/catalog"
	ferrors "github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/observability"
	"github.com/matzehuels/flowgraph/pkg/workflow"
)

// DeserializeError lists every problem found in a payload. Each issue's
// Field is a path into the payload such as "nodes[3].config.timeout_hours".
type DeserializeError struct {
	Issues []*ferrors.Error
}

func (e *DeserializeError) Error() string {
	if len(e.Issues) == 1 {
		return e.Issues[0].Error()
	}
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.Error()
	}
	return fmt.Sprintf("%d issues: %s", len(e.Issues), strings.Join(parts, "; "))
}

// Unwrap exposes the issues to errors.Is and errors.As.
func (e *DeserializeError) Unwrap() []error {
	out := make([]error, len(e.Issues))
	for i, issue := range e.Issues {
		out[i] = issue
	}
	return out
}

// Has reports whether any issue carries code.
func (e *DeserializeError) Has(code ferrors.Code) bool {
	for _, issue := range e.Issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}

// issueCount is the number of issues err carries, for hooks.
func issueCount(err error) int {
	var de *DeserializeError
	if errors.As(err, &de) {
		return len(de.Issues)
	}
	if err != nil {
		return 1
	}
	return 0
}

// ParseDefinition decodes a definition payload of any supported version.
// Older payloads are migrated first (see [Migrate]); a payload newer than
// [CurrentVersion] fails with UNSUPPORTED_VERSION. Decoding, type and graph
// errors are all collected into one [*DeserializeError].
func ParseDefinition(data []byte, cat *catalog.Catalog, opts ...workflow.Option) (*workflow.Snapshot, error) {
	start := time.Now()
	snap, err := parseDefinition(data, cat, opts)
	observability.Serializer().OnDecode("definition", nodeCount(snap), issueCount(err), time.Since(start))
	return snap, err
}

func parseDefinition(data []byte, cat *catalog.Catalog, opts []workflow.Option) (*workflow.Snapshot, error) {
	payload, err := decodeObject(data)
	if err != nil {
		return nil, err
	}
	payload, err = Migrate(payload, cat)
	if err != nil {
		return nil, asDeserializeError(err)
	}
	top, err := reencode(payload)
	if err != nil {
		return nil, err
	}

	d := &decoder{}
	var def Definition
	d.decode("version", top["version"], &def.Version)
	badNodes := d.list(top, "nodes", func(path string, raw json.RawMessage) (string, bool) {
		var n DefinitionNode
		ok := d.decode(path, raw, &n)
		def.Nodes = append(def.Nodes, n)
		return n.NodeID, ok
	})
	badEdges := d.list(top, "edges", func(path string, raw json.RawMessage) (string, bool) {
		var e DefinitionEdge
		ok := d.decode(path, raw, &e)
		def.Edges = append(def.Edges, e)
		return path, ok
	})

	snap, err := buildDefinition(def, badNodes, badEdges, cat, opts)
	return d.merge(snap, err)
}

// ParseCanvas decodes an editor payload. Legacy node and edge spellings
// are upgraded in place before decoding.
func ParseCanvas(data []byte, cat *catalog.Catalog, opts ...workflow.Option) (*workflow.Snapshot, CanvasMeta, error) {
	start := time.Now()
	snap, meta, err := parseCanvas(data, cat, opts)
	observability.Serializer().OnDecode("canvas", nodeCount(snap), issueCount(err), time.Since(start))
	return snap, meta, err
}

func parseCanvas(data []byte, cat *catalog.Catalog, opts []workflow.Option) (*workflow.Snapshot, CanvasMeta, error) {
	payload, err := decodeObject(data)
	if err != nil {
		return nil, CanvasMeta{}, err
	}
	upgradeLegacy(payload, cat)
	top, err := reencode(payload)
	if err != nil {
		return nil, CanvasMeta{}, err
	}

	d := &decoder{}
	var c Canvas
	d.decode("id", top["id"], &c.ID)
	d.decode("name", top["name"], &c.Name)
	d.decode("description", top["description"], &c.Description)
	d.decode("status", top["status"], &c.Status)
	badNodes := d.list(top, "nodes", func(path string, raw json.RawMessage) (string, bool) {
		var n CanvasNode
		ok := d.decode(path, raw, &n)
		c.Nodes = append(c.Nodes, n)
		return n.NodeID, ok
	})
	badEdges := d.list(top, "edges", func(path string, raw json.RawMessage) (string, bool) {
		var e CanvasEdge
		ok := d.decode(path, raw, &e)
		c.Edges = append(c.Edges, e)
		return path, ok
	})

	snap, meta, err := buildCanvas(c, badNodes, badEdges, cat, opts)
	snap, err = d.merge(snap, err)
	return snap, meta, err
}

func nodeCount(snap *workflow.Snapshot) int {
	if snap == nil {
		return 0
	}
	return snap.NodeCount()
}

// decodeObject parses data as a JSON object.
func decodeObject(data []byte) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &DeserializeError{Issues: []*ferrors.Error{payloadIssue("", err)}}
	}
	if payload == nil {
		return nil, &DeserializeError{Issues: []*ferrors.Error{
			ferrors.New(ferrors.ErrCodeInvalidPayload, "payload must be a JSON object"),
		}}
	}
	return payload, nil
}

// reencode turns a generic payload into raw members so each part can be
// decoded on its own.
func reencode(payload map[string]any) (map[string]json.RawMessage, error) {
	top := make(map[string]json.RawMessage, len(payload))
	for k, v := range payload {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, &DeserializeError{Issues: []*ferrors.Error{payloadIssue(k, err)}}
		}
		top[k] = raw
	}
	return top, nil
}

func asDeserializeError(err error) error {
	var de *DeserializeError
	if errors.As(err, &de) {
		return err
	}
	return &DeserializeError{Issues: ferrors.Issues(err)}
}

// decoder decodes payload members and keeps going after a failure.
type decoder struct {
	issues []*ferrors.Error
}

// decode unmarshals raw into v, recording a failure under path. An absent
// member leaves v untouched.
func (d *decoder) decode(path string, raw json.RawMessage, v any) bool {
	if raw == nil {
		return true
	}
	if err := json.Unmarshal(raw, v); err != nil {
		d.issues = append(d.issues, payloadIssue(path, err))
		return false
	}
	return true
}

// list decodes the array under key element by element. each reports
// whether an element decoded, along with a marker (the node id for nodes);
// the markers of failed elements are returned by element index.
func (d *decoder) list(top map[string]json.RawMessage, key string, each func(path string, raw json.RawMessage) (string, bool)) map[int]string {
	var items []json.RawMessage
	if !d.decode(key, top[key], &items) {
		return nil
	}
	bad := make(map[int]string)
	for i, raw := range items {
		if mark, ok := each(fmt.Sprintf("%s[%d]", key, i), raw); !ok {
			bad[i] = mark
		}
	}
	return bad
}

// merge prepends the decoder's own issues to those of err.
func (d *decoder) merge(snap *workflow.Snapshot, err error) (*workflow.Snapshot, error) {
	if len(d.issues) == 0 {
		return snap, err
	}
	issues := d.issues
	if err != nil {
		issues = append(issues, ferrors.Issues(err)...)
	}
	return nil, &DeserializeError{Issues: issues}
}

// payloadIssue describes a JSON decoding failure at path.
func payloadIssue(path string, err error) *ferrors.Error {
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		field := path
		if te.Field != "" {
			field = joinPath(path, te.Field)
		}
		return ferrors.NewField(ferrors.ErrCodeInvalidPayload, field, "expected %s, got %s", te.Type, te.Value)
	}
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return ferrors.Wrap(ferrors.ErrCodeInvalidPayload, err, "malformed JSON at offset %d", se.Offset).WithPrefix(path)
	}
	return ferrors.Wrap(ferrors.ErrCodeInvalidPayload, err, "cannot decode").WithPrefix(path)
}

func joinPath(prefix, field string) string {
	if prefix == "" {
		return field
	}
	return prefix + "." + field
}
