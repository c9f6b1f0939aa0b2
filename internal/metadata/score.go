package metadata

import (
	"math"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/amaumene/strmarr/internal/models"
	"github.com/amaumene/strmarr/internal/utils"
)

// Candidate is one search-API result considered for identity resolution
type Candidate struct {
	Title        string
	Type         string
	ReleaseYears any
	Link         string
	Image        string
	Backdrop     string
}

// Minimum score the resolver accepts for a candidate
const minimumConfidenceScore = 35.0

// ScoreCandidate computes the confidence score for one search result against
// the normalized query. The score combines text similarity with token overlap
// and applies bonuses/penalties for media type, year and special-marker
// alignment. Deterministic for identical inputs.
func ScoreCandidate(candidate Candidate, normalizedQuery string, queryYear *int, expectsSeries, isSpecialRequest bool) float64 {
	normalizedTitle := Normalize(candidate.Title)
	if normalizedTitle == "" {
		return -100
	}

	score := similarity(normalizedQuery, normalizedTitle)*70 + tokenOverlap(normalizedQuery, normalizedTitle)*30

	candidateType := models.MediaType(strings.ToLower(candidate.Type))
	if expectsSeries {
		if candidateType.IsSeries() {
			score += 25
		} else {
			score -= 30
		}
	} else if candidateType == models.MediaTypeMovie {
		score += 10
	}

	if queryYear != nil {
		if candidateYear := utils.CleanYear(candidate.ReleaseYears); candidateYear != nil {
			diff := *queryYear - *candidateYear
			switch {
			case diff == 0:
				score += 10
			case diff >= -1 && diff <= 1:
				score += 5
			default:
				score -= 8
			}
		}
	}

	if IsSpecialMarker(candidate.Title) {
		if isSpecialRequest {
			score += 12
		} else {
			score -= 18
		}
	}

	if normalizedQuery != "" {
		if normalizedQuery == normalizedTitle {
			score += 10
		} else if strings.Contains(normalizedTitle, normalizedQuery) {
			score += 5
		}
	}

	switch candidateType {
	case models.MediaTypeMovie, models.MediaTypeSeries, models.MediaTypeAnime:
	default:
		score -= 20
	}

	return score
}

// SelectBestCandidate scans candidates and returns the highest-scoring one.
// Ties keep the earlier candidate (strict greater-than comparison), matching
// the search API's own result ordering. Returns (nil, -Inf) for an empty
// list.
func SelectBestCandidate(candidates []Candidate, normalizedQuery string, queryYear *int, expectsSeries, isSpecialRequest bool) (*Candidate, float64) {
	best := math.Inf(-1)
	var bestCandidate *Candidate

	for i := range candidates {
		score := ScoreCandidate(candidates[i], normalizedQuery, queryYear, expectsSeries, isSpecialRequest)
		if score > best {
			best = score
			bestCandidate = &candidates[i]
		}
	}

	return bestCandidate, best
}

// similarity is a [0,1] ratio based on edit distance between the normalized
// strings
func similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}

// tokenOverlap is the fraction of query tokens present in the candidate title
func tokenOverlap(normalizedQuery, normalizedTitle string) float64 {
	queryTokens := strings.Fields(normalizedQuery)
	if len(queryTokens) == 0 {
		return 0
	}

	titleTokens := make(map[string]bool)
	for _, token := range strings.Fields(normalizedTitle) {
		titleTokens[token] = true
	}

	matched := 0
	for _, token := range queryTokens {
		if titleTokens[token] {
			matched++
		}
	}

	return float64(matched) / float64(len(queryTokens))
}
