// Package security provides validation, sanitization, and limits for the replica engine.
package security

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jdziat/hris-replica/pkg/core"
)

// Security limits and configuration
const (
	// MaxTaskIDLength matches the schedule_tasks.task_id column size
	MaxTaskIDLength = 100

	// MaxRetries is the hard limit for storage retry attempts
	MaxRetries = 100

	// MaxErrorMessageLength is the maximum length for stored error messages
	MaxErrorMessageLength = 4096

	// MaxLookbackDays bounds the default reconciliation window
	MaxLookbackDays = 366
)

// validTaskID matches alphanumeric, hyphens, underscores, and dots
var validTaskID = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_\-\.]*$`)

// credentialPattern matches key=value credentials that drivers like to echo back
var credentialPattern = regexp.MustCompile(`(?i)(password|passwd|pwd|token|secret)=([^\s&;@]+)`)

// ValidateTaskID validates a schedule task identifier
func ValidateTaskID(id string) error {
	if id == "" {
		return core.ErrInvalidTaskID
	}
	if len(id) > MaxTaskIDLength {
		return core.ErrTaskIDTooLong
	}
	if !validTaskID.MatchString(id) {
		return core.ErrInvalidTaskID
	}
	return nil
}

// SanitizeErrorMessage truncates and sanitizes error messages for storage
func SanitizeErrorMessage(msg string) string {
	if msg == "" {
		return ""
	}

	// Remove any null bytes or control characters (except newlines)
	var sanitized strings.Builder
	sanitized.Grow(len(msg))

	for _, r := range msg {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			sanitized.WriteRune(r)
		}
	}

	result := credentialPattern.ReplaceAllString(sanitized.String(), "$1=***")

	// Truncate if too long
	if utf8.RuneCountInString(result) > MaxErrorMessageLength {
		runes := []rune(result)
		result = string(runes[:MaxErrorMessageLength-3]) + "..."
	}

	return result
}

// ClampRetries ensures retry count is within limits
func ClampRetries(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxRetries {
		return MaxRetries
	}
	return n
}

// ClampLookbackDays ensures the default reconciliation window is within limits
func ClampLookbackDays(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxLookbackDays {
		return MaxLookbackDays
	}
	return n
}
