// Package validation provides input validation utilities.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var usernameRegex = regexp.MustCompile(`^[a-z0-9_]{3,20}$`)

var reservedUsernames = map[string]struct{}{
	"admin":      {},
	"api":        {},
	"auth":       {},
	"settings":   {},
	"inbox":      {},
	"notes":      {},
	"login":      {},
	"logout":     {},
	"signup":     {},
	"register":   {},
	"metrics":    {},
	"health":     {},
	"operations": {},
	"to":         {},
	"user":       {},
	"users":      {},
}

// ValidateUsername validates username format and reserved names.
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username must be 3-20 characters and contain only lowercase letters, numbers, and underscores")
	}

	if strings.HasPrefix(username, "_") || strings.HasSuffix(username, "_") {
		return fmt.Errorf("username cannot start or end with an underscore")
	}

	if _, exists := reservedUsernames[username]; exists {
		return fmt.Errorf("username is reserved")
	}

	return nil
}

// MaxMessageLength bounds the content of an anonymous message.
const MaxMessageLength = 500

// ValidateMessageContent checks an incoming message body.
func ValidateMessageContent(content string) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return fmt.Errorf("message content cannot be empty")
	}
	if len(content) > MaxMessageLength {
		return fmt.Errorf("message content must not exceed %d characters", MaxMessageLength)
	}
	return nil
}

// MaxNoteLength bounds the content of a note.
const MaxNoteLength = 500

// ValidateNoteContent checks a note body.
func ValidateNoteContent(content string) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return fmt.Errorf("note content cannot be empty")
	}
	if len(content) > MaxNoteLength {
		return fmt.Errorf("note content must not exceed %d characters", MaxNoteLength)
	}
	return nil
}

// MaxBioLength bounds a profile bio.
const MaxBioLength = 160

// ValidateBio checks a profile bio.
func ValidateBio(bio string) error {
	if len(bio) > MaxBioLength {
		return fmt.Errorf("bio must not exceed %d characters", MaxBioLength)
	}
	return nil
}
