package game

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidationError reports a rejected user input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validateLength(field, value string, min, max int) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	n := utf8.RuneCountInString(value)
	if n < min || n > max {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be between %d and %d characters", min, max)}
	}
	return nil
}

func ValidatePartyName(name string) error {
	return validateLength("name", name, 3, 50)
}

func ValidateTeamName(name string) error {
	return validateLength("name", name, 2, 30)
}
