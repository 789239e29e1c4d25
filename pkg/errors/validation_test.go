package errors

import (
	"strings"
	"testing"
)

func TestValidateNodeID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "start_1", false},
		{"valid uuid", "2f1c7c0e-3f0b-4c55-9d4e-3c1b0a9e6d12", false},
		{"valid dotted", "approval.legal", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 101), true},
		{"space", "start 1", true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNodeID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNodeID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "Manager Approval", false},
		{"surrounding spaces", "  Review  ", false},
		{"unicode", "Prüfung ✓", false},

		{"empty", "", true},
		{"only spaces", "   ", true},
		{"too long", strings.Repeat("x", 201), true},
		{"control char", "foo\x01bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeOutOfRange) {
				t.Errorf("ValidateName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeOutOfRange)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "ops@example.com", false},
		{"valid plus", "ann+invoices@example.co.uk", false},

		{"empty", "", true},
		{"missing at", "ops.example.com", true},
		{"missing domain dot", "ops@localhost", true},
		{"display name", "Ops <ops@example.com>", true},
		{"trailing space", "ops@example.com ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateColor(t *testing.T) {
	for _, c := range []string{"#0d6efd", "#FFF", "#28a745"} {
		if err := ValidateColor(c); err != nil {
			t.Errorf("ValidateColor(%q) = %v, want nil", c, err)
		}
	}
	for _, c := range []string{"", "0d6efd", "#12345", "blue", "#gggggg"} {
		if err := ValidateColor(c); err == nil {
			t.Errorf("ValidateColor(%q) = nil, want error", c)
		}
	}
}

func TestValidateFieldName(t *testing.T) {
	for _, n := range []string{"trigger_type", "_x", "timeoutHours2"} {
		if err := ValidateFieldName(n); err != nil {
			t.Errorf("ValidateFieldName(%q) = %v, want nil", n, err)
		}
	}
	for _, n := range []string{"", "2fast", "with-dash", "a.b"} {
		if err := ValidateFieldName(n); err == nil {
			t.Errorf("ValidateFieldName(%q) = nil, want error", n)
		}
	}
}
