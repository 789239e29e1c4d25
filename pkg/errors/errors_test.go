package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeUnknownNode, "node %q does not exist", "start_1")

	if err.Code != ErrCodeUnknownNode {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeUnknownNode)
	}

	if err.Message != `node "start_1" does not exist` {
		t.Errorf("Message = %v", err.Message)
	}

	expected := `UNKNOWN_NODE: node "start_1" does not exist`
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestNewField(t *testing.T) {
	err := NewField(ErrCodeFieldConstraint, "auto_approve_threshold", "must be ≤ %v", 1)

	if err.Field != "auto_approve_threshold" {
		t.Errorf("Field = %q", err.Field)
	}
	expected := "FIELD_CONSTRAINT: auto_approve_threshold: must be ≤ 1"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWithPrefix(t *testing.T) {
	tests := []struct {
		name   string
		field  string
		prefix string
		want   string
	}{
		{"nested", "config.threshold", "nodes[3]", "nodes[3].config.threshold"},
		{"empty field", "", "edges[0]", "edges[0]"},
		{"empty prefix", "timeout_seconds", "", "timeout_seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := NewField(ErrCodeOutOfRange, tt.field, "bad")
			got := orig.WithPrefix(tt.prefix)
			if got.Field != tt.want {
				t.Errorf("Field = %q, want %q", got.Field, tt.want)
			}
			if orig.Field != tt.field {
				t.Errorf("WithPrefix mutated the receiver: %q", orig.Field)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeInvalidPayload, cause, "decode definition")

	if err.Code != ErrCodeInvalidPayload {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidPayload)
	}

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"matching code", New(ErrCodeSelfLoop, "test"), ErrCodeSelfLoop, true},
		{"non-matching code", New(ErrCodeSelfLoop, "test"), ErrCodeDuplicateEdge, false},
		{"wrapped error", Wrap(ErrCodeInvalidPayload, New(ErrCodeUnknownType, "inner"), "outer"), ErrCodeInvalidPayload, true},
		{"fmt wrapped", fmtWrap(New(ErrCodeUnknownEdge, "x")), ErrCodeUnknownEdge, true},
		{"non-Error type", errors.New("plain error"), ErrCodeInvalidInput, false},
		{"nil error", nil, ErrCodeInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func fmtWrap(err error) error {
	return errors.Join(errors.New("context"), err)
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{"Error type", New(ErrCodeDuplicateID, "test"), ErrCodeDuplicateID},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Error type", NewField(ErrCodeOutOfRange, "timeout_seconds", "must be between 1 and 3600"), "must be between 1 and 3600"},
		{"plain error", errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}
