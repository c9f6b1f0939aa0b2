package metadata

import (
	"regexp"
	"strings"

	"github.com/amaumene/strmarr/internal/utils"
)

var (
	tokenRegex = regexp.MustCompile(`[a-z0-9]+`)

	seasonEpisodeRegex = regexp.MustCompile(`(?i)\bs(\d{1,2})[ ._-]?e(\d{1,3})\b`)
	crossFormatRegex   = regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{1,3})\b`)
	seasonWordRegex    = regexp.MustCompile(`(?i)\bseason[ ._-]+(\d{1,2})[ ._-]+(?:episode|ep)[ ._-]+(\d{1,3})\b`)
	seasonOnlyRegex    = regexp.MustCompile(`(?i)\bseason[ ._-]+(\d{1,2})\b`)
)

var specialMarkers = map[string]bool{
	"special":  true,
	"specials": true,
	"extra":    true,
	"extras":   true,
	"bonus":    true,
	"ova":      true,
	"oav":      true,
}

// Normalize turns an arbitrary title or filename into a canonical comparable
// form: cleaned of release junk, lowercased, reduced to alphanumeric tokens
// joined by single spaces
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	cleaned := strings.ToLower(utils.CleanTitle(text))
	tokens := tokenRegex.FindAllString(cleaned, -1)
	return strings.Join(tokens, " ")
}

// IsSpecialMarker reports whether the text contains a whole-word marker for
// bonus/special content (special, extras, ova, ...)
func IsSpecialMarker(text string) bool {
	for _, token := range strings.Fields(Normalize(text)) {
		if specialMarkers[token] {
			return true
		}
	}
	return false
}

// ParseSeasonEpisode extracts season and episode numbers from a filename or
// path fragment. Patterns are tried in order (S07E01, 7x01,
// "Season 7 Episode 1", "Season 7") and the first match wins. Returns
// (nil, nil) when nothing matches.
func ParseSeasonEpisode(text string) (*int, *int) {
	if text == "" {
		return nil, nil
	}

	if m := seasonEpisodeRegex.FindStringSubmatch(text); m != nil {
		return atoiPtr(m[1]), atoiPtr(m[2])
	}
	if m := crossFormatRegex.FindStringSubmatch(text); m != nil {
		return atoiPtr(m[1]), atoiPtr(m[2])
	}
	if m := seasonWordRegex.FindStringSubmatch(text); m != nil {
		return atoiPtr(m[1]), atoiPtr(m[2])
	}
	if m := seasonOnlyRegex.FindStringSubmatch(text); m != nil {
		return atoiPtr(m[1]), nil
	}

	return nil, nil
}

// ResolveSeasonEpisode combines the upstream parser's season/episode guess
// with filename and path fallbacks. The path fallback only ever supplies a
// season, never an episode, so unrelated numbers in folder names cannot leak
// into the episode field. isSpecial is true for season 0 or when the file
// name or path carries a special marker; a marker with no known season forces
// season 0.
func ResolveSeasonEpisode(parsedSeason, parsedEpisode *int, fileName, filePath string) (season, episode *int, isSpecial bool) {
	season = parsedSeason
	episode = parsedEpisode

	if season == nil && episode == nil {
		season, episode = ParseSeasonEpisode(fileName)
	}
	if season == nil {
		season, _ = ParseSeasonEpisode(filePath)
	}

	isSpecial = season != nil && *season == 0
	if !isSpecial && (IsSpecialMarker(fileName) || IsSpecialMarker(filePath)) {
		isSpecial = true
		if season == nil {
			zero := 0
			season = &zero
		}
	}

	return season, episode, isSpecial
}

func atoiPtr(s string) *int {
	value := 0
	for _, r := range s {
		value = value*10 + int(r-'0')
	}
	return &value
}
