package validate

import (
	"regexp"
	"strings"
)

// The email shape check is the same local@domain.tld pattern the clients
// enforced before any write: something before the @, something after it,
// and a dotted tail.
var emailRx = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldError points a validation failure at a specific field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError is raised before any store call and surfaced to the user
// as a blocking dialog.
type ValidationError struct {
	Msg    string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Error)
	}
	return strings.Join(parts, "; ")
}

// NewError builds a ValidationError from field/message pairs.
func NewError(msg string, fields ...FieldError) error {
	return &ValidationError{Msg: msg, Fields: fields}
}

// Email reports whether s looks like local@domain.tld.
func Email(s string) bool {
	return emailRx.MatchString(s)
}

// Password enforces the registration policy: at least 8 characters and at
// least one digit.
func Password(s string) bool {
	if len(s) < 8 {
		return false
	}
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

// Required collects a FieldError for every empty value.
func Required(fields map[string]string) []FieldError {
	var errs []FieldError
	for name, val := range fields {
		if strings.TrimSpace(val) == "" {
			errs = append(errs, FieldError{Field: name, Error: "required"})
		}
	}
	return errs
}
