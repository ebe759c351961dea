package domain

import (
	"regexp"
	"time"
)

// Free-text fields are stripped down to this character set before persistence.
// Emails are never sanitized since addresses need characters outside the set.
var sanitizePattern = regexp.MustCompile(`[^a-zA-Z0-9\-_.@\s]`)

// SanitizeText removes every character outside alnum, dash, underscore,
// dot, at-sign, and whitespace.
func SanitizeText(input string) string {
	return sanitizePattern.ReplaceAllString(input, "")
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether the address is syntactically valid.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Stored timestamps are ISO-8601 strings for interoperability with the
// existing tables; isoDatePrefix rejects date-only or garbage values that
// time.Parse alone would still accept in some layouts.
var isoDatePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`)

// IsValidISODate reports whether the string is a parseable ISO-8601 datetime.
func IsValidISODate(value string) bool {
	if !isoDatePrefix.MatchString(value) {
		return false
	}
	_, err := ParseISODate(value)
	return err == nil
}

// ParseISODate parses an ISO-8601 datetime string.
func ParseISODate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	// Stored rows written before the migration omit the zone designator.
	return time.Parse("2006-01-02T15:04:05", value)
}

// NowISO returns the current UTC time as an ISO-8601 string.
func NowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
