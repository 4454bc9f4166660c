package errors

import (
	"strings"
	"unicode"
)

// ValidateEntryID validates an entry identifier received from an untrusted
// source (API request, imported file). IDs flow into cache keys and log
// lines, so the rules are intentionally conservative:
//   - No empty IDs
//   - No control characters or null bytes
//   - Maximum length of 256 characters
func ValidateEntryID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidEntry, "entry ID cannot be empty")
	}
	if len(id) > 256 {
		return New(ErrCodeInvalidEntry, "entry ID too long (max 256 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidEntry, "entry ID contains control characters")
		}
	}
	if strings.Contains(id, "\x00") {
		return New(ErrCodeInvalidEntry, "entry ID contains null byte")
	}
	return nil
}
