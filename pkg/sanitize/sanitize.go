// Package sanitize normalizes untrusted user input before it reaches
// storage or other users' screens.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	usernameChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)
	controlChars  = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
)

// Username strips everything but alphanumerics, underscore, hyphen and dot,
// and lowercases the result.
func Username(username string) string {
	username = strings.TrimSpace(username)
	username = usernameChars.ReplaceAllString(username, "")
	return strings.ToLower(username)
}

// Email trims and lowercases an email address.
func Email(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Text trims whitespace and removes control characters other than newline
// and tab. Used for message, status and profile text.
func Text(input string) string {
	input = controlChars.ReplaceAllString(input, "")
	return strings.TrimSpace(input)
}

// Filename removes path separators, traversal sequences and control
// characters so a client-supplied name is safe to use as an object suffix.
func Filename(filename string) string {
	filename = strings.TrimSpace(filename)
	filename = strings.ReplaceAll(filename, "\\", "/")
	if idx := strings.LastIndex(filename, "/"); idx >= 0 {
		filename = filename[idx+1:]
	}
	filename = strings.ReplaceAll(filename, "..", "")
	return controlChars.ReplaceAllString(filename, "")
}
