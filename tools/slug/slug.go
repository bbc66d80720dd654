package slug

import (
	"fmt"
	"strings"
	"unicode"
)

// Make turns a community title into a url-safe slug: lowercase, runs of
// non-alphanumerics collapsed to single dashes, trimmed at both ends.
func Make(title string) string {
	var sb strings.Builder
	lastDash := true // suppress leading dash
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				sb.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(sb.String(), "-")
}

// WithSuffix appends a numeric disambiguator, used when the plain slug
// collides with an existing community.
func WithSuffix(base string, n int) string {
	return fmt.Sprintf("%s-%d", base, n)
}
