// Package normalize trims and folds user-supplied strings before they are
// used as keys or compared.
package normalize

import "strings"

// Email trims and lowercases an email address. It is used for keys such as
// rate-limit buckets, never for the administrator comparison.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a query-string value, preserving case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Theme trims and lowercases a theme preference.
func Theme(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
