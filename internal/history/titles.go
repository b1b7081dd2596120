package history

import "strings"

// SearchKey reduces a raw viewing-history title to the canonical key used for
// catalog lookups. Streaming exports append season and episode qualifiers
// after a colon ("Show Name: Season 2: Episode Title"); the segment before
// the first colon recovers the show-level title.
//
// The function is pure and total: blank input yields an empty key, which
// callers must exclude from lookups.
func SearchKey(raw string) string {
	left, _, _ := strings.Cut(raw, ":")
	return strings.TrimSpace(left)
}
