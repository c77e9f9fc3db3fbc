// Package validate enforces per-platform character limits. It is a
// pure function of text length; the op layer decides whether a
// violation triggers regeneration or a terminal failure.
package validate

import (
	"fmt"
	"strings"

	"github.com/Alksalt/llm-social-agent/internal/diary"
)

// TooLongError reports how far a draft exceeds its platform ceiling.
type TooLongError struct {
	Platform diary.Platform
	Length   int
	Limit    int
}

// Excess returns the number of characters over the limit.
func (e *TooLongError) Excess() int {
	return e.Length - e.Limit
}

// Error implements the error interface.
func (e *TooLongError) Error() string {
	return fmt.Sprintf("%s draft is %d chars, %d over the %d limit", e.Platform, e.Length, e.Excess(), e.Limit)
}

// Check returns nil when text fits the platform limit, or a
// *TooLongError otherwise. Limits are counted in runes.
func Check(text string, platform diary.Platform, limit int) error {
	length := diary.CountChars(text)
	if length <= limit {
		return nil
	}
	return &TooLongError{Platform: platform, Length: length, Limit: limit}
}

// Truncate cuts text to the limit with a trailing ellipsis. The
// validate stage never calls this; it exists for the deterministic
// fallback paths that explicitly accept truncation.
func Truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return strings.TrimRight(string(runes[:limit-3]), " \t\n") + "..."
}
