package diary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDirectives_Flags(t *testing.T) {
	d := ParseDirectives("Shipped the new scheduler today #draft x")

	assert.True(t, d.Draft)
	assert.False(t, d.Private)
	// "x" after #draft is ordinary text, not a platform arg
	assert.Equal(t, "Shipped the new scheduler today x", d.CleanedText)
}

func TestParseDirectives_PublishPlatforms(t *testing.T) {
	d := ParseDirectives("Big launch day #publish x linkedin and more text")

	assert.True(t, d.Publish)
	assert.Equal(t, []Platform{PlatformX, PlatformLinkedIn}, d.PublishPlatforms)
	assert.Equal(t, "Big launch day and more text", d.CleanedText)
}

func TestParseDirectives_PrivateStrict(t *testing.T) {
	d := ParseDirectives("#private #strict just for me")

	assert.True(t, d.Private)
	assert.True(t, d.Strict)
	assert.False(t, d.Draft)
	assert.Equal(t, "just for me", d.CleanedText)
}

func TestParseDirectives_NoDirectives(t *testing.T) {
	d := ParseDirectives("plain diary text")

	assert.False(t, d.Draft || d.Private || d.Strict || d.Publish)
	assert.Equal(t, "plain diary text", d.CleanedText)
}

func TestNormalizePlatform(t *testing.T) {
	tests := []struct {
		input string
		want  Platform
	}{
		{"x", PlatformX},
		{"X", PlatformX},
		{"twitter", PlatformX},
		{"threads", PlatformThreads},
		{"thread", PlatformThreads},
		{"linkedin,", PlatformLinkedIn},
		{"li", PlatformLinkedIn},
		{"mastodon", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizePlatform(tt.input); got != tt.want {
			t.Errorf("NormalizePlatform(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParsePlatformArgs(t *testing.T) {
	defaults := []Platform{PlatformX, PlatformThreads, PlatformLinkedIn}

	assert.Equal(t, defaults, ParsePlatformArgs(nil, defaults))
	assert.Equal(t, []Platform{PlatformX}, ParsePlatformArgs([]string{"twitter", "x"}, defaults))
	assert.Equal(t, defaults, ParsePlatformArgs([]string{"mastodon"}, defaults))
}
