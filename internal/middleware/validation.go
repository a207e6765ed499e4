package middleware

import (
	"errors"
	"unicode/utf8"
)

// ValidateMessageText validates message body text.
func ValidateMessageText(text string) error {
	if len(text) == 0 {
		return errors.New("text cannot be empty")
	}
	if len(text) > 100000 { // ~100KB limit
		return errors.New("text exceeds maximum length")
	}
	if !utf8.ValidString(text) {
		return errors.New("text must be valid UTF-8")
	}
	return nil
}

// ValidateID validates an opaque resource or user identifier.
func ValidateID(id string) error {
	if len(id) == 0 {
		return errors.New("id cannot be empty")
	}
	if len(id) > 64 {
		return errors.New("id exceeds maximum length")
	}
	return nil
}
