package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Tags are joined with ';' on CSV export, so these characters never appear
// inside a tag.
const forbiddenTagChars = ",;\r\n"

var upper = cases.Upper(language.Und)

// NormalizeTag NFC-normalizes and trims a single tag.
func NormalizeTag(raw string) string {
	return strings.TrimSpace(norm.NFC.String(raw))
}

// NormalizeTags trims every tag, drops empty ones and exact duplicates, and
// keeps first-seen order. Tags containing separators are rejected.
func NormalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, raw := range tags {
		tag := NormalizeTag(raw)
		if tag == "" || seen[tag] {
			continue
		}
		if strings.ContainsAny(tag, forbiddenTagChars) {
			return nil, Validation("normalize tags", "tags", "tag %q contains a separator", tag)
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out, nil
}

// QuickTag normalizes a tag typed into the flight log quick-tag box: trimmed
// and upper-cased.
func QuickTag(raw string) string {
	return upper.String(NormalizeTag(raw))
}

// HasTag reports whether tags already contains tag.
func HasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
