package importer

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// normalize flattens a note's identifying content: lowercased, trimmed,
// with line endings unified, fields joined by newlines so adjacent words
// from different fields can't merge.
func normalize(note Note) string {
	part := func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimSpace(s)
		s = strings.ReplaceAll(s, "\r\n", "\n")
		return s
	}
	return part(note.Title) + "\n" + part(note.Content)
}

// Hash returns the sha256 of a note's normalized content as a hex string.
// Two notes with the same title and content hash identically regardless of
// case, surrounding whitespace, or line-ending style, which keeps re-imports
// idempotent.
func Hash(note Note) string {
	sum := sha256.Sum256([]byte(normalize(note)))
	return fmt.Sprintf("%x", sum)
}
