package utils

import (
	"regexp"
	"strings"
)

// Full RFC 5322 validation is the mail server's job; this only rejects
// addresses that could never be delivered.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[A-Za-z]{2,}$`)

// ValidEmail reports whether s is a plausibly deliverable address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// CheckPassword enforces the minimum password policy. The returned message is
// safe to show to the caller.
func CheckPassword(password string) (bool, string) {
	if len(password) < 8 {
		return false, "Password must be at least 8 characters"
	}
	if password != strings.TrimSpace(password) {
		return false, "Password must not start or end with whitespace"
	}
	return true, ""
}

// CleanInput trims surrounding whitespace and strips null bytes before the
// value reaches a query or a log line.
func CleanInput(input string) string {
	return strings.ReplaceAll(strings.TrimSpace(input), "\x00", "")
}
