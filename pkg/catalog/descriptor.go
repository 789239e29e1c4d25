package catalog

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// Category is the tag that decides how the graph store and the validator
// treat nodes of a type.
type Category string

const (
	CategoryStart        Category = "start"
	CategoryEnd          Category = "end"
	CategoryProcess      Category = "process"
	CategoryDocument     Category = "document"
	CategoryDecision     Category = "decision"
	CategoryApproval     Category = "approval"
	CategoryIntegration  Category = "integration"
	CategoryNotification Category = "notification"
)

// Categories lists every category in palette order.
var Categories = []Category{
	CategoryStart,
	CategoryEnd,
	CategoryProcess,
	CategoryDocument,
	CategoryDecision,
	CategoryApproval,
	CategoryIntegration,
	CategoryNotification,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool { return slices.Contains(Categories, c) }

// TypeID identifies a node type. The backend serves integer primary keys,
// so TypeID decodes from either a JSON string or a JSON number.
type TypeID string

// UnmarshalJSON accepts "document_processing" as well as 7.
func (id *TypeID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = TypeID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("type id must be a string or an integer: %s", data)
	}
	if _, err := n.Int64(); err != nil {
		return fmt.Errorf("type id must be a string or an integer: %s", data)
	}
	*id = TypeID(n.String())
	return nil
}

// UnmarshalTOML accepts string and integer ids in TOML catalog files.
func (id *TypeID) UnmarshalTOML(v any) error {
	switch x := v.(type) {
	case string:
		*id = TypeID(x)
	case int64:
		*id = TypeID(strconv.FormatInt(x, 10))
	default:
		return fmt.Errorf("type id must be a string or an integer, got %T", v)
	}
	return nil
}

// Descriptor is an immutable node-type template. The exported fields mirror
// the backend's JSON shape; the compiled schema is available through
// [Descriptor.Field] once the descriptor has passed through [Load].
//
// Descriptors returned by a [Catalog] are shared and must be treated as read-only.
type Descriptor struct {
	ID                    TypeID               `json:"id" toml:"id"`
	Name                  string               `json:"name" toml:"name"`
	Category              Category             `json:"type" toml:"type"`
	Icon                  string               `json:"icon,omitempty" toml:"icon"`
	Color                 string               `json:"color,omitempty" toml:"color"`
	Description           string               `json:"description,omitempty" toml:"description"`
	ConfigSchema          map[string]FieldSpec `json:"config_schema" toml:"config_schema"`
	RequiresUserAction    bool                 `json:"requires_user_action" toml:"requires_user_action"`
	AllowsMultipleOutputs bool                 `json:"allows_multiple_outputs" toml:"allows_multiple_outputs"`

	fields     map[string]Field
	fieldNames []string
}

// Field returns the compiled schema of a configuration field.
func (d *Descriptor) Field(name string) (Field, bool) {
	f, ok := d.fields[name]
	return f, ok
}

// FieldNames returns the declared configuration fields in sorted order.
func (d *Descriptor) FieldNames() []string { return slices.Clone(d.fieldNames) }

// DefaultConfig returns a fresh configuration containing every field that
// declares a default. Fields without a default are omitted.
func (d *Descriptor) DefaultConfig() map[string]any {
	cfg := make(map[string]any)
	for _, name := range d.fieldNames {
		if v, ok := d.fields[name].Default(); ok {
			cfg[name] = v
		}
	}
	return cfg
}

// compile validates the descriptor and builds its field index.
// The returned descriptor shares nothing mutable with d.
func (d Descriptor) compile() (*Descriptor, error) {
	out := d
	out.ConfigSchema = maps.Clone(d.ConfigSchema)
	if out.ConfigSchema == nil {
		out.ConfigSchema = map[string]FieldSpec{}
	}
	out.fields = make(map[string]Field, len(out.ConfigSchema))
	out.fieldNames = slices.Sorted(maps.Keys(out.ConfigSchema))

	for _, name := range out.fieldNames {
		f, err := compileField(name, out.ConfigSchema[name])
		if err != nil {
			return nil, err
		}
		out.fields[name] = f
	}
	return &out, nil
}
