package metadata

import (
	"math"
	"testing"
)

func trueBloodCandidates() []Candidate {
	return []Candidate{
		{
			Title:        "True Blood Specials",
			Type:         "series",
			ReleaseYears: "2008",
			Link:         "https://example.com/specials",
		},
		{
			Title:        "True Blood",
			Type:         "series",
			ReleaseYears: "2008",
			Link:         "https://example.com/true-blood",
		},
	}
}

func TestScoreCandidateDeterministic(t *testing.T) {
	candidate := Candidate{Title: "True Blood", Type: "series", ReleaseYears: "2008"}
	year := 2008

	first := ScoreCandidate(candidate, "true blood", &year, true, false)
	for i := 0; i < 10; i++ {
		if got := ScoreCandidate(candidate, "true blood", &year, true, false); got != first {
			t.Fatalf("Score not deterministic: %v != %v", got, first)
		}
	}
}

func TestScoreCandidateEmptyTitle(t *testing.T) {
	if got := ScoreCandidate(Candidate{Title: "", Type: "series"}, "query", nil, true, false); got != -100 {
		t.Errorf("Expected -100 for empty candidate title, got %v", got)
	}
}

func TestScoreCandidateSeriesBonus(t *testing.T) {
	series := Candidate{Title: "True Blood", Type: "series", ReleaseYears: "2008"}
	movie := Candidate{Title: "True Blood", Type: "movie", ReleaseYears: "2008"}

	seriesScore := ScoreCandidate(series, "true blood", nil, true, false)
	movieScore := ScoreCandidate(movie, "true blood", nil, true, false)

	if seriesScore <= movieScore {
		t.Errorf("Series candidate should outscore movie for a series request: %v <= %v", seriesScore, movieScore)
	}
	// +25 vs -30 gap
	if diff := seriesScore - movieScore; diff != 55 {
		t.Errorf("Expected a 55 point gap, got %v", diff)
	}
}

func TestScoreCandidateYearAlignment(t *testing.T) {
	year := 2008
	exact := ScoreCandidate(Candidate{Title: "True Blood", Type: "series", ReleaseYears: "2008"}, "true blood", &year, true, false)
	near := ScoreCandidate(Candidate{Title: "True Blood", Type: "series", ReleaseYears: "2009"}, "true blood", &year, true, false)
	far := ScoreCandidate(Candidate{Title: "True Blood", Type: "series", ReleaseYears: "1999"}, "true blood", &year, true, false)

	if exact-near != 5 {
		t.Errorf("Expected exact year to beat near year by 5, got %v", exact-near)
	}
	if near-far != 13 {
		t.Errorf("Expected near year to beat far year by 13, got %v", near-far)
	}
}

func TestSelectBestPrefersMainShowOverSpecials(t *testing.T) {
	year := 2008
	best, score := SelectBestCandidate(trueBloodCandidates(), "true blood", &year, true, false)

	if best == nil {
		t.Fatal("Expected a best candidate")
	}
	if best.Title != "True Blood" {
		t.Errorf("Expected plain series entry for a non-special request, got %q", best.Title)
	}
	if score < minimumConfidenceScore {
		t.Errorf("Expected confident score, got %v", score)
	}
}

func TestSelectBestPrefersSpecialsForSpecialRequest(t *testing.T) {
	year := 2008
	best, _ := SelectBestCandidate(trueBloodCandidates(), "true blood specials", &year, true, true)

	if best == nil {
		t.Fatal("Expected a best candidate")
	}
	if best.Title != "True Blood Specials" {
		t.Errorf("Expected specials entry for a special request, got %q", best.Title)
	}
}

func TestSelectBestEmptyList(t *testing.T) {
	best, score := SelectBestCandidate(nil, "query", nil, false, false)
	if best != nil {
		t.Errorf("Expected nil candidate, got %v", best)
	}
	if !math.IsInf(score, -1) {
		t.Errorf("Expected -Inf score, got %v", score)
	}
}

func TestSelectBestTieKeepsFirst(t *testing.T) {
	candidates := []Candidate{
		{Title: "Same Show", Type: "series", Link: "first"},
		{Title: "Same Show", Type: "series", Link: "second"},
	}

	best, _ := SelectBestCandidate(candidates, "same show", nil, true, false)
	if best == nil {
		t.Fatal("Expected a best candidate")
	}
	if best.Link != "first" {
		t.Errorf("Tie must keep the first candidate, got %q", best.Link)
	}
}

func TestScoreCandidateUnknownTypePenalty(t *testing.T) {
	known := ScoreCandidate(Candidate{Title: "Some Title", Type: "movie"}, "some title", nil, false, false)
	unknown := ScoreCandidate(Candidate{Title: "Some Title", Type: "documentary"}, "some title", nil, false, false)

	// movie gets +10, unknown type gets -20
	if known-unknown != 30 {
		t.Errorf("Expected a 30 point gap between movie and unknown type, got %v", known-unknown)
	}
}
