package handlers

import (
	"strings"
	"unicode/utf8"
)

// Validation limits for category fields.
const (
	maxNameLen        = 120
	maxDescriptionLen = 1_000
)

// validateCategory checks category inputs and returns the first error
// found. An empty name is left to the catalog, which rejects it with
// its own reason.
func validateCategory(name, description string) string {
	if utf8.RuneCountInString(strings.TrimSpace(name)) > maxNameLen {
		return "Name is too long (max 120 characters)."
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return "Description is too long (max 1,000 characters)."
	}
	return ""
}

// validateLogin checks the login payload.
func validateLogin(email, password string) string {
	if strings.TrimSpace(email) == "" || password == "" {
		return "Email and password are required."
	}
	return ""
}
