package schema

import (
	"regexp"
	"strings"
)

var (
	// slugPattern accepts exactly what Slugify can produce.
	slugPattern  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify lowercases s, collapses non-alphanumeric runs to one hyphen and trims hyphens.
func Slugify(s string) string {
	s = nonSlugChars.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}
