package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/matzehuels/flowgraph/pkg/catalog"
	ferrors "github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/workflow"
)

// Template is a prebuilt workflow that new drafts start from. Definition is
// a definition payload of any supported version; it is migrated and checked
// against the catalog only when the template is instantiated.
type Template struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	Category         string          `json:"category,omitempty"`
	ComplexityLevel  int             `json:"complexity_level,omitempty"`
	SetupTimeMinutes int             `json:"setup_time_minutes,omitempty"`
	Tags             []string        `json:"tags,omitempty"`
	Definition       json.RawMessage `json:"definition,omitempty"`
}

// Summary returns t without its definition, for listings.
func (t Template) Summary() Template {
	t.Definition = nil
	return t
}

// ReadTemplates decodes a {"templates": [...]} document. Every template
// needs an id, a name and a definition, and ids must be unique.
func ReadTemplates(r io.Reader) ([]Template, error) {
	var doc struct {
		Templates []Template `json:"templates"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}
	var issues []*ferrors.Error
	seen := make(map[string]bool, len(doc.Templates))
	for i, t := range doc.Templates {
		path := fmt.Sprintf("templates[%d]", i)
		switch {
		case strings.TrimSpace(t.ID) == "":
			issues = append(issues, ferrors.NewField(ferrors.ErrCodeInvalidInput, path+".id", "template id is empty"))
		case seen[t.ID]:
			issues = append(issues, ferrors.NewField(ferrors.ErrCodeDuplicateID, path+".id", "duplicate template id %q", t.ID))
		}
		seen[t.ID] = true
		if strings.TrimSpace(t.Name) == "" {
			issues = append(issues, ferrors.NewField(ferrors.ErrCodeInvalidInput, path+".name", "template name is empty"))
		}
		if len(t.Definition) == 0 {
			issues = append(issues, ferrors.NewField(ferrors.ErrCodeInvalidInput, path+".definition", "template has no definition"))
		}
	}
	if len(issues) > 0 {
		return nil, ferrors.Join(issues...)
	}
	return doc.Templates, nil
}

var builtinTemplates = sync.OnceValues(func() ([]Template, error) {
	return ReadTemplates(bytes.NewReader(catalog.BuiltinTemplatesJSON()))
})

// BuiltinTemplates returns the templates the platform ships with. They are
// written against [catalog.Builtin].
func BuiltinTemplates() ([]Template, error) {
	ts, err := builtinTemplates()
	if err != nil {
		return nil, err
	}
	return slices.Clone(ts), nil
}

// FindTemplate returns the template with the given id.
func FindTemplate(ts []Template, id string) (Template, error) {
	for _, t := range ts {
		if t.ID == id {
			return t, nil
		}
	}
	return Template{}, ferrors.NewField(ferrors.ErrCodeNotFound, "template", "unknown template %q", id)
}

// FilterTemplates returns the templates in category (any when empty) whose
// name, description or tags contain query, ignoring case, sorted by name.
func FilterTemplates(ts []Template, category, query string) []Template {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Template
	for _, t := range ts {
		if category != "" && t.Category != category {
			continue
		}
		if q != "" && !t.matches(q) {
			continue
		}
		out = append(out, t)
	}
	slices.SortStableFunc(out, func(a, b Template) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func (t Template) matches(q string) bool {
	if strings.Contains(strings.ToLower(t.Name), q) || strings.Contains(strings.ToLower(t.Description), q) {
		return true
	}
	return slices.ContainsFunc(t.Tags, func(tag string) bool { return strings.Contains(strings.ToLower(tag), q) })
}

// Instantiate turns a template into a new draft workflow. The draft is
// named "<template> - <meta.Name>", or after the template alone when
// meta.Name is blank; a blank description records the template it came
// from. The status is always draft. Definition problems are returned as a
// [*DeserializeError].
func Instantiate(t Template, cat *catalog.Catalog, meta CanvasMeta) (Canvas, *workflow.Snapshot, error) {
	snap, err := ParseDefinition(t.Definition, cat)
	if err != nil {
		return Canvas{}, nil, err
	}
	meta.Name = instanceName(t.Name, meta.Name)
	if strings.TrimSpace(meta.Description) == "" {
		meta.Description = "Created from template: " + t.Description
	}
	meta.Status = workflow.StatusDraft
	return ToCanvas(snap, cat, meta), snap, nil
}

func instanceName(template, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return template
	}
	return template + " - " + name
}
