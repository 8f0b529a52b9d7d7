package account

import "strings"

// NormalizeUsername performs case-insensitive canonicalization.
// Usernames are unique on their normalized form.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeEmail performs case-insensitive canonicalization.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
