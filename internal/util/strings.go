package util

import "strings"

// NormalizeKey lowercases and trims a string for use as a consistent lookup key.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeURLKey is NormalizeKey with trailing slashes removed, so
// "http://host/" and "http://host" share a key.
func NormalizeURLKey(s string) string {
	return strings.TrimRight(NormalizeKey(s), "/")
}
