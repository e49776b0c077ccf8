// Package htmlsanitize turns member-supplied text into safe plain text.
//
// Comments, update bodies and announcement descriptions are stored and served
// as plain text. Any markup a client sends is stripped with the bluemonday
// strict policy; the contents of script and style elements are dropped.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText strips all markup from s, decodes entities and trims surrounding
// whitespace.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	// no tag-like content
	if !strings.Contains(s, "<") || !strings.Contains(s, ">") {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
