package diary

import "strings"

// platformAliases maps common shorthand to canonical platform names.
var platformAliases = map[string]Platform{
	"twitter": PlatformX,
	"thread":  PlatformThreads,
	"li":      PlatformLinkedIn,
}

// NormalizePlatform resolves a user-supplied token to a canonical
// platform, or "" if the token is not a platform.
func NormalizePlatform(token string) Platform {
	clean := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(token)), ",")
	if p, ok := platformAliases[clean]; ok {
		return p
	}
	p := Platform(clean)
	if p.Valid() {
		return p
	}
	return ""
}

// ParsePlatformArgs resolves a list of platform tokens, deduplicated in
// order. Unknown tokens are dropped; an empty result falls back to the
// provided defaults.
func ParsePlatformArgs(args []string, defaults []Platform) []Platform {
	if len(args) == 0 {
		return defaults
	}
	var parsed []Platform
	for _, arg := range args {
		p := NormalizePlatform(arg)
		if p == "" {
			continue
		}
		if !containsPlatform(parsed, p) {
			parsed = append(parsed, p)
		}
	}
	if len(parsed) == 0 {
		return defaults
	}
	return parsed
}

func containsPlatform(list []Platform, p Platform) bool {
	for _, q := range list {
		if q == p {
			return true
		}
	}
	return false
}

// Directives are inline hashtag commands stripped out of entry text.
type Directives struct {
	CleanedText      string
	Draft            bool
	Private          bool
	Strict           bool
	Publish          bool
	PublishPlatforms []Platform
}

// ParseDirectives extracts #draft, #private, #strict, and
// #publish [platforms...] tokens from raw entry text. Platform tokens
// immediately following #publish are consumed; everything else stays in
// the cleaned text.
func ParseDirectives(text string) Directives {
	tokens := strings.Fields(text)
	var kept []string
	d := Directives{}

	i := 0
	for i < len(tokens) {
		switch strings.ToLower(tokens[i]) {
		case "#draft":
			d.Draft = true
			i++
		case "#private":
			d.Private = true
			i++
		case "#strict":
			d.Strict = true
			i++
		case "#publish":
			d.Publish = true
			i++
			for i < len(tokens) {
				p := NormalizePlatform(tokens[i])
				if p == "" {
					break
				}
				if !containsPlatform(d.PublishPlatforms, p) {
					d.PublishPlatforms = append(d.PublishPlatforms, p)
				}
				i++
			}
		default:
			kept = append(kept, tokens[i])
			i++
		}
	}

	d.CleanedText = strings.Join(kept, " ")
	return d
}
