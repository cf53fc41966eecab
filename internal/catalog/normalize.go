package catalog

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// Normalize lowercases a string and strips diacritics so that user input can
// be matched against catalog names regardless of accents ("Crème" == "creme").
func Normalize(s string) string {
	out, _, err := transform.String(stripMarks, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

var (
	slugSpaces  = regexp.MustCompile(`\s+`)
	slugInvalid = regexp.MustCompile(`[^\w-]`)
)

// Slug derives the document id for an item name: lowercased, whitespace
// collapsed to hyphens, anything outside word characters dropped.
func Slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugSpaces.ReplaceAllString(s, "-")
	return slugInvalid.ReplaceAllString(s, "")
}
