package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		validate: validator.New(),
	}
}

// ValidateStruct validates a struct using struct tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// FieldError is one per-field validation failure, carried in the response
// envelope's errors array.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FormatValidationErrors converts validation errors to a user-friendly format
func FormatValidationErrors(err error) []FieldError {
	var out []FieldError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			field := strings.ToLower(e.Field())
			var message string
			switch e.Tag() {
			case "required":
				message = fmt.Sprintf("%s is required", e.Field())
			case "min":
				message = fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param())
			case "max":
				message = fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
			case "oneof":
				message = fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param())
			case "email":
				message = "Invalid email format"
			default:
				message = fmt.Sprintf("%s is invalid", e.Field())
			}
			out = append(out, FieldError{Field: field, Message: message})
		}
	}

	return out
}

// SanitizeString removes potentially dangerous characters
func SanitizeString(s string) string {
	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")
	// Trim whitespace
	s = strings.TrimSpace(s)
	return s
}
