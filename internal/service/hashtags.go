package service

import (
	"strings"
	"unicode"
)

const tagSigil = "#"

// ParseHashtags tokenizes a raw hashtag form field on whitespace and commas.
// Only tokens carrying the leading sigil survive; bare words are discarded and
// duplicates collapse to one. Both the upload fan-out and the feed fallback
// use this same rule, so the two tag representations stay consistent.
func ParseHashtags(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	seen := make(map[string]struct{}, len(fields))
	var tags []string
	for _, tok := range fields {
		if !strings.HasPrefix(tok, tagSigil) || len(tok) == len(tagSigil) {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		tags = append(tags, tok)
	}
	return tags
}
