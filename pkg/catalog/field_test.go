package catalog

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"

	ferrors "github.com/matzehuels/flowgraph/pkg/errors"
)

func TestFieldNormalize(t *testing.T) {
	tests := []struct {
		name    string
		spec    FieldSpec
		in      any
		want    any
		wantErr string
	}{
		{name: "text", spec: FieldSpec{Type: KindText}, in: "hi", want: "hi"},
		{name: "text rejects number", spec: FieldSpec{Type: KindText}, in: 3.0, wantErr: "must be a string"},
		{name: "textarea", spec: FieldSpec{Type: KindLongText}, in: "a\nb", want: "a\nb"},
		{name: "integer from float", spec: FieldSpec{Type: KindInteger}, in: 24.0, want: int64(24)},
		{name: "integer from int", spec: FieldSpec{Type: KindInteger}, in: 7, want: int64(7)},
		{name: "integer from json.Number", spec: FieldSpec{Type: KindInteger}, in: json.Number("12"), want: int64(12)},
		{name: "integer rejects fraction", spec: FieldSpec{Type: KindInteger}, in: 1.5, wantErr: "must be an integer"},
		{name: "integer below min", spec: FieldSpec{Type: KindInteger, Min: ptr(1), Max: ptr(168)}, in: 0, wantErr: "must be ≥ 1"},
		{name: "integer above max", spec: FieldSpec{Type: KindInteger, Min: ptr(1), Max: ptr(168)}, in: 169, wantErr: "must be ≤ 168"},
		{name: "select", spec: FieldSpec{Type: KindEnum, Options: []string{"a", "b"}}, in: "b", want: "b"},
		{name: "select unknown", spec: FieldSpec{Type: KindEnum, Options: []string{"a", "b"}}, in: "c", wantErr: "must be one of [a b]"},
		{name: "multiselect from []any", spec: FieldSpec{Type: KindMultiEnum, Options: []string{"a", "b"}}, in: []any{"a", "b"}, want: []string{"a", "b"}},
		{name: "multiselect unknown", spec: FieldSpec{Type: KindMultiEnum, Options: []string{"a"}}, in: []string{"z"}, wantErr: `unknown option "z"`},
		{name: "multiselect duplicate", spec: FieldSpec{Type: KindMultiEnum, Options: []string{"a"}}, in: []string{"a", "a"}, wantErr: `duplicate option "a"`},
		{name: "multiselect empty", spec: FieldSpec{Type: KindMultiEnum, Options: []string{"a"}}, in: []any{}, want: []string{}},
		{name: "slider", spec: FieldSpec{Type: KindRange, Min: ptr(0), Max: ptr(1)}, in: 0.25, want: 0.25},
		{name: "slider int input", spec: FieldSpec{Type: KindRange, Min: ptr(0), Max: ptr(1)}, in: 1, want: 1.0},
		{name: "slider above max", spec: FieldSpec{Type: KindRange, Min: ptr(0), Max: ptr(1)}, in: 1.5, wantErr: "must be ≤ 1"},
		{name: "slider below min", spec: FieldSpec{Type: KindRange, Min: ptr(0.5), Max: ptr(1)}, in: 0.1, wantErr: "must be ≥ 0.5"},
		{name: "email list", spec: FieldSpec{Type: KindEmailList}, in: []any{"a@b.co"}, want: []string{"a@b.co"}},
		{name: "email list bad entry", spec: FieldSpec{Type: KindEmailList}, in: []string{"a@b.co", "nope"}, wantErr: `entry 1: invalid e-mail address: "nope"`},
		{name: "structured", spec: FieldSpec{Type: KindStructured}, in: map[string]any{"k": []any{1.0}}, want: map[string]any{"k": []any{1.0}}},
		{name: "structured typed map", spec: FieldSpec{Type: KindStructured}, in: map[string]string{"a": "b"}, want: map[string]any{"a": "b"}},
		{name: "structured typed slice", spec: FieldSpec{Type: KindStructured}, in: []map[string]any{{"a": 1}}, want: []any{map[string]any{"a": 1.0}}},
		{name: "structured rejects NaN", spec: FieldSpec{Type: KindStructured}, in: map[string]float64{"x": math.NaN()}, wantErr: "must be a JSON value"},
		{name: "structured rejects channel", spec: FieldSpec{Type: KindStructured}, in: make(chan int), wantErr: "must be a JSON value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := compileField("f", tt.spec)
			if err != nil {
				t.Fatalf("compileField: %v", err)
			}
			got, err := f.Normalize(tt.in)
			if tt.wantErr != "" {
				if !ferrors.Is(err, ferrors.ErrCodeFieldConstraint) {
					t.Fatalf("err = %v, want FIELD_CONSTRAINT", err)
				}
				if msg := ferrors.UserMessage(err); msg != tt.wantErr {
					t.Errorf("message = %q, want %q", msg, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestStructuredNormalizeCopies(t *testing.T) {
	f, _ := compileField("rules", FieldSpec{Type: KindStructured})
	in := map[string]any{"list": []any{"a"}}
	out, _ := f.Normalize(in)
	in["list"].([]any)[0] = "changed"
	if out.(map[string]any)["list"].([]any)[0] != "a" {
		t.Error("Normalize should deep-copy structured values")
	}
}

func TestCompileFieldName(t *testing.T) {
	if _, err := compileField("bad name", FieldSpec{Type: KindText}); !ferrors.Is(err, ferrors.ErrCodeInvalidSchema) {
		t.Errorf("err = %v, want INVALID_SCHEMA", err)
	}
	if _, err := compileField("x", FieldSpec{Type: KindInteger, Min: ptr(0.5)}); !ferrors.Is(err, ferrors.ErrCodeInvalidSchema) {
		t.Errorf("fractional integer bound: err = %v, want INVALID_SCHEMA", err)
	}
	if _, err := compileField("x", FieldSpec{Type: KindRange, Min: ptr(0), Max: ptr(1), Step: ptr(0)}); err == nil {
		t.Error("zero step should be rejected")
	}
}

func TestIsEmpty(t *testing.T) {
	for _, v := range []any{nil, "", []string{}, []any{}} {
		if !IsEmpty(v) {
			t.Errorf("IsEmpty(%#v) = false", v)
		}
	}
	for _, v := range []any{"x", 0.0, int64(0), []string{"a"}, false} {
		if IsEmpty(v) {
			t.Errorf("IsEmpty(%#v) = true", v)
		}
	}
}
