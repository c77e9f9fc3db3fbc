package diary

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode/utf8"
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize prepares entry text for hashing:
// 1. Trim leading/trailing whitespace
// 2. Collapse internal whitespace (spaces, tabs, newlines) to single spaces
// Case is preserved; lowercasing happens only inside HashText so the
// stored raw text keeps the author's casing.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return s
}

// HashText returns the stable content hash used for per-user dedup:
// sha256 over the lowercased normalized text, hex-encoded.
func HashText(s string) string {
	normalized := strings.ToLower(Normalize(s))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// CountChars returns the character count as runes (not bytes).
// Platform limits are rune limits, so this is what the validator uses.
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}
