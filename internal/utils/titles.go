package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	bracketTagRegex = regexp.MustCompile(`[\[({][^\])}]*[\])}]`)
	sitePrefixRegex = regexp.MustCompile(`(?i)^\s*(www\.)?[a-z0-9-]+\.(com|net|org|info|me|tv|cc|to)\b[\s._-]*`)
	separatorRegex  = regexp.MustCompile(`[._]+`)
	spacesRegex     = regexp.MustCompile(`\s+`)
	yearDigitsRegex = regexp.MustCompile(`\b(18\d{2}|19\d{2}|20\d{2})\b`)
)

// CleanTitle strips release-group and site junk from a raw title string and
// normalizes separators to single spaces
func CleanTitle(title string) string {
	if title == "" {
		return ""
	}

	cleaned := sitePrefixRegex.ReplaceAllString(title, "")
	cleaned = bracketTagRegex.ReplaceAllString(cleaned, " ")
	cleaned = separatorRegex.ReplaceAllString(cleaned, " ")
	cleaned = spacesRegex.ReplaceAllString(cleaned, " ")
	cleaned = strings.Trim(cleaned, " -")

	if cleaned == "" {
		return strings.TrimSpace(title)
	}
	return cleaned
}

// CleanYear normalizes a year value as returned by parsers and the search API
// (bare integer, string like "2008" or "2008-2014", or a list whose first
// element is used) into an integer, or nil when no plausible year is present
func CleanYear(value any) *int {
	switch v := value.(type) {
	case nil:
		return nil
	case int:
		return validYear(v)
	case int64:
		return validYear(int(v))
	case float64:
		return validYear(int(v))
	case *int:
		if v == nil {
			return nil
		}
		return validYear(*v)
	case string:
		match := yearDigitsRegex.FindString(v)
		if match == "" {
			return nil
		}
		year, err := strconv.Atoi(match)
		if err != nil {
			return nil
		}
		return validYear(year)
	case []any:
		if len(v) == 0 {
			return nil
		}
		return CleanYear(v[0])
	default:
		return nil
	}
}

func validYear(year int) *int {
	if year < 1880 || year > 2100 {
		return nil
	}
	return &year
}

// ConstructSeriesTitle renders a season/episode label such as "S07E01".
// Returns the empty string when neither part is known.
func ConstructSeriesTitle(season, episode *int) string {
	switch {
	case season != nil && episode != nil:
		return fmt.Sprintf("S%02dE%02d", *season, *episode)
	case episode != nil:
		return fmt.Sprintf("E%02d", *episode)
	case season != nil:
		return fmt.Sprintf("S%02d", *season)
	default:
		return ""
	}
}

// SeriesFolderName renders the subfolder label for a season number. Season 0
// is the specials folder.
func SeriesFolderName(season int) string {
	if season == 0 {
		return "Specials"
	}
	return fmt.Sprintf("Season %d", season)
}
