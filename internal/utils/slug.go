package utils

import (
	"regexp"
	"strings"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL-safe identifier: lowercase, runs of anything
// outside [a-z0-9] collapsed to a single hyphen, no edge hyphens.
// Idempotent, so stored slugs survive re-slugging unchanged.
func Slugify(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = nonSlugChars.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return s
}
