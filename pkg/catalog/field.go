package catalog

import (
	"fmt"
	"slices"
	"strconv"

	ferrors "github.com/matzehuels/flowgraph/pkg/errors"
)

// FieldKind is the wire name of a field schema's type.
type FieldKind string

const (
	KindText       FieldKind = "text"
	KindLongText   FieldKind = "textarea"
	KindInteger    FieldKind = "number"
	KindEnum       FieldKind = "select"
	KindMultiEnum  FieldKind = "multiselect"
	KindRange      FieldKind = "slider"
	KindEmailList  FieldKind = "email_list"
	KindStructured FieldKind = "structured"
)

// FieldSpec is the JSON/TOML shape of one configuration field schema.
type FieldSpec struct {
	Type        FieldKind `json:"type" toml:"type"`
	Default     any       `json:"default,omitempty" toml:"default,omitempty"`
	Required    bool      `json:"required,omitempty" toml:"required,omitempty"`
	Min         *float64  `json:"min,omitempty" toml:"min,omitempty"`
	Max         *float64  `json:"max,omitempty" toml:"max,omitempty"`
	Step        *float64  `json:"step,omitempty" toml:"step,omitempty"`
	Options     []string  `json:"options,omitempty" toml:"options,omitempty"`
	Placeholder string    `json:"placeholder,omitempty" toml:"placeholder,omitempty"`
	Description string    `json:"description,omitempty" toml:"description,omitempty"`
}

// Field is a compiled field schema. Each [FieldKind] has its own variant.
type Field interface {
	// Kind returns the field's wire type.
	Kind() FieldKind
	// Spec returns the schema the field was compiled from.
	Spec() FieldSpec
	// Required reports whether activation needs a value for the field.
	Required() bool
	// Default returns a fresh copy of the canonical default, if one is declared.
	Default() (any, bool)
	// Normalize checks v against the schema and returns its canonical form.
	// Failures are FIELD_CONSTRAINT errors carrying a short diagnostic
	// ("must be ≤ 1") and no field name.
	Normalize(v any) (any, error)
}

type fieldBase struct {
	spec   FieldSpec
	def    any
	hasDef bool
}

func (b *fieldBase) base() *fieldBase { return b }
func (b *fieldBase) Required() bool   { return b.spec.Required }

func (b *fieldBase) Spec() FieldSpec {
	s := b.spec
	s.Options = slices.Clone(s.Options)
	s.Default = CloneValue(s.Default)
	return s
}
func (b *fieldBase) Default() (any, bool) {
	if !b.hasDef {
		return nil, false
	}
	return CloneValue(b.def), true
}

func violation(format string, args ...any) error {
	return ferrors.New(ferrors.ErrCodeFieldConstraint, format, args...)
}

// textField covers both single-line text and textarea.
type textField struct {
	fieldBase
	kind FieldKind
}

func (f *textField) Kind() FieldKind { return f.kind }

func (f *textField) Normalize(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, violation("must be a string")
	}
	return s, nil
}

type integerField struct {
	fieldBase
	min, max *int64
}

func (f *integerField) Kind() FieldKind { return KindInteger }

func (f *integerField) Normalize(v any) (any, error) {
	n, ok := toInt(v)
	if !ok {
		return nil, violation("must be an integer")
	}
	if f.min != nil && n < *f.min {
		return nil, violation("must be ≥ %d", *f.min)
	}
	if f.max != nil && n > *f.max {
		return nil, violation("must be ≤ %d", *f.max)
	}
	return n, nil
}

type enumField struct {
	fieldBase
}

func (f *enumField) Kind() FieldKind { return KindEnum }

func (f *enumField) Normalize(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, violation("must be a string")
	}
	if !slices.Contains(f.spec.Options, s) {
		return nil, violation("must be one of %v", f.spec.Options)
	}
	return s, nil
}

type multiEnumField struct {
	fieldBase
}

func (f *multiEnumField) Kind() FieldKind { return KindMultiEnum }

func (f *multiEnumField) Normalize(v any) (any, error) {
	items, ok := toStrings(v)
	if !ok {
		return nil, violation("must be a list of strings")
	}
	for i, s := range items {
		if !slices.Contains(f.spec.Options, s) {
			return nil, violation("unknown option %q", s)
		}
		if slices.Contains(items[:i], s) {
			return nil, violation("duplicate option %q", s)
		}
	}
	return items, nil
}

type rangeField struct {
	fieldBase
	min, max float64
}

func (f *rangeField) Kind() FieldKind { return KindRange }

func (f *rangeField) Normalize(v any) (any, error) {
	x, ok := toFloat(v)
	if !ok {
		return nil, violation("must be a number")
	}
	if x < f.min {
		return nil, violation("must be ≥ %s", fmtFloat(f.min))
	}
	if x > f.max {
		return nil, violation("must be ≤ %s", fmtFloat(f.max))
	}
	return x, nil
}

type emailListField struct {
	fieldBase
}

func (f *emailListField) Kind() FieldKind { return KindEmailList }

func (f *emailListField) Normalize(v any) (any, error) {
	items, ok := toStrings(v)
	if !ok {
		return nil, violation("must be a list of e-mail addresses")
	}
	for i, addr := range items {
		if err := ferrors.ValidateEmail(addr); err != nil {
			return nil, violation("entry %d: %s", i, ferrors.UserMessage(err))
		}
	}
	return items, nil
}

// structuredField carries opaque JSON, kept in its canonical decoded form.
type structuredField struct {
	fieldBase
}

func (f *structuredField) Kind() FieldKind { return KindStructured }

func (f *structuredField) Normalize(v any) (any, error) {
	c, ok := CanonicalJSON(v)
	if !ok {
		return nil, violation("must be a JSON value")
	}
	return c, nil
}

// compileField turns a FieldSpec into its Field variant, validating the
// schema itself along the way.
func compileField(name string, spec FieldSpec) (Field, error) {
	if err := ferrors.ValidateFieldName(name); err != nil {
		return nil, ferrors.NewField(ferrors.ErrCodeInvalidSchema, name, "%s", ferrors.UserMessage(err))
	}
	invalid := func(format string, args ...any) error {
		return ferrors.NewField(ferrors.ErrCodeInvalidSchema, name, format, args...)
	}

	if spec.Min != nil && spec.Max != nil && *spec.Min > *spec.Max {
		return nil, invalid("min %s is greater than max %s", fmtFloat(*spec.Min), fmtFloat(*spec.Max))
	}

	base := fieldBase{spec: spec}
	var f Field

	switch spec.Type {
	case KindText, KindLongText:
		f = &textField{fieldBase: base, kind: spec.Type}
	case KindInteger:
		intf := &integerField{fieldBase: base}
		if spec.Min != nil {
			n, err := integralBound(*spec.Min)
			if err != nil {
				return nil, invalid("min: %v", err)
			}
			intf.min = &n
		}
		if spec.Max != nil {
			n, err := integralBound(*spec.Max)
			if err != nil {
				return nil, invalid("max: %v", err)
			}
			intf.max = &n
		}
		f = intf
	case KindEnum, KindMultiEnum:
		if len(spec.Options) == 0 {
			return nil, invalid("%s requires at least one option", spec.Type)
		}
		for i, opt := range spec.Options {
			if opt == "" {
				return nil, invalid("option %d is empty", i)
			}
			if slices.Contains(spec.Options[:i], opt) {
				return nil, invalid("duplicate option %q", opt)
			}
		}
		base.spec.Options = slices.Clone(spec.Options)
		if spec.Type == KindEnum {
			f = &enumField{fieldBase: base}
		} else {
			f = &multiEnumField{fieldBase: base}
		}
	case KindRange:
		if spec.Min == nil || spec.Max == nil {
			return nil, invalid("slider requires both min and max")
		}
		if spec.Step != nil && *spec.Step <= 0 {
			return nil, invalid("step must be positive")
		}
		f = &rangeField{fieldBase: base, min: *spec.Min, max: *spec.Max}
	case KindEmailList:
		f = &emailListField{fieldBase: base}
	case KindStructured:
		f = &structuredField{fieldBase: base}
	case "":
		return nil, invalid("missing field type")
	default:
		return nil, invalid("unknown field type %q", spec.Type)
	}

	if spec.Default != nil {
		def, err := f.Normalize(spec.Default)
		if err != nil {
			return nil, invalid("default %s", ferrors.UserMessage(err))
		}
		setDefault(f, def)
	}
	return f, nil
}

func setDefault(f Field, def any) {
	b := f.(interface{ base() *fieldBase }).base()
	b.def, b.hasDef = def, true
}

func integralBound(x float64) (int64, error) {
	n := int64(x)
	if float64(n) != x {
		return 0, fmt.Errorf("%s is not an integer", fmtFloat(x))
	}
	return n, nil
}

func fmtFloat(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }
