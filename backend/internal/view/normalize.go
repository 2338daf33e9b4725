package view

import (
	"regexp"
	"strings"
)

var (
	nonAlphanumericRe = regexp.MustCompile(`[^a-zA-Z0-9]`)
	whitespaceRe      = regexp.MustCompile(`\s+`)
	invalidTagCharRe  = regexp.MustCompile(`[^a-z0-9_]`)
)

// SanitizeTag normalizes a tag so that equal concepts from different sources
// compare equal: lowercase, whitespace collapsed to underscores, everything
// outside [a-z0-9_] dropped. Idempotent.
func SanitizeTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	tag = whitespaceRe.ReplaceAllString(tag, "_")
	return invalidTagCharRe.ReplaceAllString(tag, "")
}

// normalizeName reduces a page name to a comparison key. Hyperlink extraction
// and the scoring provider format names differently ("Climate_change" vs
// "climate change"), so both sides are stripped of non-alphanumerics and
// lowercased before matching.
func normalizeName(name string) string {
	return strings.ToLower(nonAlphanumericRe.ReplaceAllString(name, ""))
}
