package catalog

import (
	"fmt"
	"slices"
	"strings"

	ferrors "github.com/matzehuels/flowgraph/pkg/errors"
)

// Catalog is an indexed, read-only collection of node-type descriptors.
//
// The zero value is an empty catalog. Use [Load] to build a populated one.
type Catalog struct {
	byID       map[TypeID]*Descriptor
	order      []*Descriptor
	byCategory map[Category][]*Descriptor
}

// Load compiles and indexes descriptors. Every descriptor is checked before
// the catalog is returned; the first problem found is reported with the
// offending descriptor's position, e.g. "node_types[2].config_schema.x".
//
// Load returns DUPLICATE_ID when two descriptors share an identifier and
// INVALID_SCHEMA for malformed descriptors or field schemas.
func Load(descriptors []Descriptor) (*Catalog, error) {
	c := &Catalog{
		byID:       make(map[TypeID]*Descriptor, len(descriptors)),
		order:      make([]*Descriptor, 0, len(descriptors)),
		byCategory: make(map[Category][]*Descriptor),
	}

	for i, d := range descriptors {
		path := fmt.Sprintf("node_types[%d]", i)

		if err := checkDescriptor(d); err != nil {
			return nil, prefixed(err, path)
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, ferrors.NewField(ferrors.ErrCodeDuplicateID, path+".id", "duplicate node type id %q", d.ID)
		}

		compiled, err := d.compile()
		if err != nil {
			return nil, prefixed(err, path+".config_schema")
		}

		c.byID[compiled.ID] = compiled
		c.order = append(c.order, compiled)
		c.byCategory[compiled.Category] = append(c.byCategory[compiled.Category], compiled)
	}
	return c, nil
}

func checkDescriptor(d Descriptor) error {
	if err := ferrors.ValidateNodeID(string(d.ID)); err != nil {
		return ferrors.NewField(ferrors.ErrCodeInvalidSchema, "id", "%s", ferrors.UserMessage(err))
	}
	if err := ferrors.ValidateName(d.Name); err != nil {
		return ferrors.NewField(ferrors.ErrCodeInvalidSchema, "name", "%s", ferrors.UserMessage(err))
	}
	if !d.Category.Valid() {
		return ferrors.NewField(ferrors.ErrCodeInvalidSchema, "type", "unknown category %q", d.Category)
	}
	if d.Color != "" {
		if err := ferrors.ValidateColor(d.Color); err != nil {
			return ferrors.NewField(ferrors.ErrCodeInvalidSchema, "color", "%s", ferrors.UserMessage(err))
		}
	}
	if d.Category == CategoryEnd && d.AllowsMultipleOutputs {
		return ferrors.NewField(ferrors.ErrCodeInvalidSchema, "allows_multiple_outputs", "end nodes have no outputs")
	}
	return nil
}

func prefixed(err error, path string) error {
	if e, ok := ferrors.As(err); ok {
		return e.WithPrefix(path)
	}
	return ferrors.Wrap(ferrors.ErrCodeInvalidSchema, err, "%s", path)
}

// Get returns the descriptor with the given id. A nil catalog is empty.
func (c *Catalog) Get(id TypeID) (*Descriptor, bool) {
	if c == nil {
		return nil, false
	}
	d, ok := c.byID[id]
	return d, ok
}

// Lookup is like [Catalog.Get] but reports a missing type as UNKNOWN_TYPE.
func (c *Catalog) Lookup(id TypeID) (*Descriptor, error) {
	if d, ok := c.Get(id); ok {
		return d, nil
	}
	return nil, ferrors.New(ferrors.ErrCodeUnknownType, "unknown node type %q", id)
}

// All returns every descriptor in load order.
func (c *Catalog) All() []*Descriptor { return slices.Clone(c.order) }

// Len returns the number of descriptors.
func (c *Catalog) Len() int { return len(c.order) }

// ByCategory groups descriptors by category. Within a category the load
// order is preserved. Categories without descriptors are omitted.
func (c *Catalog) ByCategory() map[Category][]*Descriptor {
	out := make(map[Category][]*Descriptor, len(c.byCategory))
	for cat, ds := range c.byCategory {
		out[cat] = slices.Clone(ds)
	}
	return out
}

// FirstOfCategory returns the first loaded descriptor of a category.
func (c *Catalog) FirstOfCategory(cat Category) (*Descriptor, bool) {
	if c == nil {
		return nil, false
	}
	ds := c.byCategory[cat]
	if len(ds) == 0 {
		return nil, false
	}
	return ds[0], true
}

// DefaultConfig returns a fresh configuration holding the defaults of the
// type's fields. It fails with UNKNOWN_TYPE for ids not in the catalog.
func (c *Catalog) DefaultConfig(id TypeID) (map[string]any, error) {
	d, err := c.Lookup(id)
	if err != nil {
		return nil, err
	}
	return d.DefaultConfig(), nil
}

// Search returns descriptors whose id, name or category contains q,
// ignoring case. An empty query matches everything.
func (c *Catalog) Search(q string) []*Descriptor {
	q = strings.ToLower(strings.TrimSpace(q))
	var out []*Descriptor
	for _, d := range c.order {
		if q == "" ||
			strings.Contains(strings.ToLower(string(d.ID)), q) ||
			strings.Contains(strings.ToLower(d.Name), q) ||
			strings.Contains(string(d.Category), q) {
			out = append(out, d)
		}
	}
	return out
}
