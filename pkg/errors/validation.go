package errors

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Length limits shared by the catalog and the graph store.
const (
	MaxIDLength          = 100
	MaxNameLength        = 200
	MaxDescriptionLength = 2000
	MaxLabelLength       = 100
)

// ValidateNodeID validates an identifier for a node, edge, or node type.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or whitespace
//   - Maximum length of 100 characters
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "identifier cannot be empty")
	}

	if utf8.RuneCountInString(id) > MaxIDLength {
		return New(ErrCodeInvalidInput, "identifier too long (max %d characters)", MaxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "identifier contains invalid characters: %q", id)
		}
	}

	return nil
}

// ValidateName validates a display name. Surrounding whitespace is ignored;
// the trimmed name must be non-empty and at most 200 characters.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return New(ErrCodeOutOfRange, "name cannot be empty")
	}

	if utf8.RuneCountInString(trimmed) > MaxNameLength {
		return New(ErrCodeOutOfRange, "name too long (max %d characters)", MaxNameLength)
	}

	for _, r := range trimmed {
		if r != '\t' && unicode.IsControl(r) {
			return New(ErrCodeOutOfRange, "name contains invalid control characters")
		}
	}

	return nil
}

// ValidateEmail validates a single bare e-mail address ("a@b.c").
// Display-name forms such as "Ann <a@b.c>" are rejected.
func ValidateEmail(addr string) error {
	if addr == "" {
		return New(ErrCodeInvalidInput, "e-mail address cannot be empty")
	}

	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != addr || parsed.Name != "" {
		return New(ErrCodeInvalidInput, "invalid e-mail address: %q", addr)
	}

	at := strings.LastIndexByte(addr, '@')
	if !strings.Contains(addr[at+1:], ".") {
		return New(ErrCodeInvalidInput, "e-mail domain must contain a dot: %q", addr)
	}

	return nil
}

// hexColorRegex matches #rgb and #rrggbb colors.
var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateColor validates a CSS hex color as used by node-type descriptors.
func ValidateColor(color string) error {
	if !hexColorRegex.MatchString(color) {
		return New(ErrCodeInvalidSchema, "invalid color %q (want #rrggbb)", color)
	}
	return nil
}

// fieldNameRegex matches configuration field names (snake_case identifiers).
var fieldNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateFieldName validates a configuration field name declared by a schema.
func ValidateFieldName(name string) error {
	if !fieldNameRegex.MatchString(name) {
		return New(ErrCodeInvalidSchema, "invalid field name %q", name)
	}
	return nil
}
