// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// Email trims and lower-cases an email address for storage and comparison.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses inner runs of spaces.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Role trims and lower-cases a role value.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status trims and lower-cases a status value.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Domain trims, lower-cases and strips a leading "@" or trailing "." from a
// domain name.
func Domain(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "@")
	return strings.TrimSuffix(s, ".")
}

// EmailDomain returns the lower-cased text after the last "@" in email, or
// "" when there is none.
func EmailDomain(email string) string {
	email = strings.TrimSpace(email)
	i := strings.LastIndex(email, "@")
	if i < 0 {
		return ""
	}
	return Domain(email[i+1:])
}
