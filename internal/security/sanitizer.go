// Package security strips unsafe markup from user-supplied text before it is stored.
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans user-generated content. It is safe for concurrent use.
type Sanitizer struct {
	plain *bluemonday.Policy
	rich  *bluemonday.Policy
}

// NewSanitizer builds the policies for plain text fields and rich post bodies.
func NewSanitizer() *Sanitizer {
	rich := bluemonday.UGCPolicy()
	rich.AllowRelativeURLs(false)
	rich.RequireNoReferrerOnLinks(true)
	rich.AddTargetBlankToFullyQualifiedLinks(true)
	rich.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre")

	return &Sanitizer{
		plain: bluemonday.StrictPolicy(),
		rich:  rich,
	}
}

// Text removes all markup, for fields such as names and bios. The result is
// plain text, not HTML. Entities are decoded before sanitizing so encoded
// tags are stripped too, and once more afterwards.
func (s *Sanitizer) Text(in string) string {
	return strings.TrimSpace(html.UnescapeString(s.plain.Sanitize(html.UnescapeString(in))))
}

// HTML keeps a safe subset of formatting markup, for post bodies.
func (s *Sanitizer) HTML(in string) string {
	return strings.TrimSpace(s.rich.Sanitize(in))
}
