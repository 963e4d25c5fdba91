package ingest

import "strings"

// ParseKeywords splits free-form keyword input on commas and newlines,
// trims whitespace, drops empties, and de-duplicates preserving first-seen
// order. Used for batch keyword lists and per-image keyword edits alike.
func ParseKeywords(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})

	seen := make(map[string]bool, len(fields))
	var keywords []string
	for _, f := range fields {
		kw := strings.TrimSpace(f)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		keywords = append(keywords, kw)
	}
	return keywords
}
