package metadata

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/amaumene/strmarr/internal/models"
	"github.com/amaumene/strmarr/internal/utils"
	"github.com/sirupsen/logrus"
)

// Searcher is the metadata search API consumed by the resolver
type Searcher interface {
	Search(ctx context.Context, fullTitle string) ([]Candidate, error)
}

// Resolver produces the per-file metadata record by combining the resolution
// cache, the identity cache, and scored search-API lookups. Every failure
// path returns safe base metadata; nothing here is fatal.
type Resolver struct {
	searcher     Searcher
	cache        *Cache
	scanMetadata bool
	logger       *logrus.Logger
}

// NewResolver creates a metadata resolver
func NewResolver(searcher Searcher, cache *Cache, scanMetadata bool, logger *logrus.Logger) *Resolver {
	return &Resolver{
		searcher:     searcher,
		cache:        cache,
		scanMetadata: scanMetadata,
		logger:       logger,
	}
}

// ResolveRequest carries everything known about one file before resolution
type ResolveRequest struct {
	Query      string // rough title guess from the upstream parser
	ParsedYear *int
	FileName   string
	FullTitle  string // search string sent to the metadata API
	ItemHash   string
	ItemName   string

	// CacheKey is the precomputed resolution-cache key, empty when the
	// result must not be cached
	CacheKey string

	Season    *int
	Episode   *int
	IsSpecial bool

	ItemIdentityKey    string
	SeriesIdentityKeys []string
}

// Resolve runs the resolution algorithm and returns the metadata fields, a
// success flag and a human-readable detail string. Short-circuits on the
// first hit: resolution cache, then identity cache, then a scored network
// search.
func (r *Resolver) Resolve(ctx context.Context, req ResolveRequest) (models.MetadataFields, bool, string) {
	base := r.baseMetadata(req)

	if !r.scanMetadata {
		return base, false, "Metadata scanning is disabled."
	}

	if req.CacheKey != "" {
		var cached models.MetadataFields
		if found, success, detail := r.cache.Get(req.CacheKey, &cached); found {
			r.logger.WithField("cache_key", req.CacheKey).Debug("Metadata cache hit")
			return cached, success, fmt.Sprintf("Metadata cache hit. %s", detail)
		}
	}

	extension := filepath.Ext(req.FileName)

	identityKeys := make([]string, 0, len(req.SeriesIdentityKeys)+1)
	if req.ItemIdentityKey != "" {
		identityKeys = append(identityKeys, req.ItemIdentityKey)
	}
	identityKeys = append(identityKeys, req.SeriesIdentityKeys...)

	for _, key := range identityKeys {
		identity := r.cache.GetIdentity(key)
		if identity == nil {
			continue
		}
		r.logger.WithFields(logrus.Fields{
			"identity_key": key,
			"title":        identity.Title,
		}).Debug("Identity cache hit")
		metadata := buildMetadata(*identity, base, extension, req.Season, req.Episode, req.IsSpecial)
		detail := fmt.Sprintf("Identity cache hit for %s. Searching for %s, item hash: %s", identity.Title, req.Query, req.ItemHash)
		return r.cacheAndReturn(req.CacheKey, metadata, true, detail)
	}

	results, err := r.searcher.Search(ctx, req.FullTitle)
	if err != nil {
		r.logger.WithError(err).Error("Error searching metadata")
		detail := fmt.Sprintf("Error searching metadata: %v. Searching for %s, item hash: %s", err, req.Query, req.ItemHash)
		return r.cacheAndReturn(req.CacheKey, base, false, detail)
	}

	if len(results) == 0 {
		detail := fmt.Sprintf("No metadata found. Searching for %s, item hash: %s", req.Query, req.ItemHash)
		return r.cacheAndReturn(req.CacheKey, base, false, detail)
	}

	normalizedQuery := firstNonEmpty(Normalize(req.Query), Normalize(req.ItemName), Normalize(req.FullTitle))
	expectsSeries := req.Season != nil || req.Episode != nil

	best, score := SelectBestCandidate(results, normalizedQuery, req.ParsedYear, expectsSeries, req.IsSpecial)
	if best == nil || score < minimumConfidenceScore {
		detail := fmt.Sprintf("No confident metadata found (best score %.1f). Searching for %s, item hash: %s", score, req.Query, req.ItemHash)
		return r.cacheAndReturn(req.CacheKey, base, false, detail)
	}

	candidateType := normalizeMediaType(best.Type)
	if expectsSeries && !candidateType.IsSeries() {
		// A series file must never silently become movie metadata.
		detail := fmt.Sprintf("Series metadata could not be confidently matched (best score %.1f). Searching for %s, item hash: %s", score, req.Query, req.ItemHash)
		return r.cacheAndReturn(req.CacheKey, base, false, detail)
	}

	identity := identityFromCandidate(*best, candidateType, req.ParsedYear)

	if req.ItemIdentityKey != "" {
		r.cache.PutIdentity(req.ItemIdentityKey, identity)
	}
	if identity.Type.IsSeries() {
		for _, key := range req.SeriesIdentityKeys {
			r.cache.PutIdentity(key, identity)
		}
	}

	metadata := buildMetadata(identity, base, extension, req.Season, req.Episode, req.IsSpecial)
	detail := fmt.Sprintf("Metadata found (score %.1f). Searching for %s, item hash: %s", score, req.Query, req.ItemHash)
	return r.cacheAndReturn(req.CacheKey, metadata, true, detail)
}

// baseMetadata is the universal fallback returned on any failure path
func (r *Resolver) baseMetadata(req ResolveRequest) models.MetadataFields {
	rootFolder := ""
	if req.ItemName != "" {
		rootFolder = utils.CleanTitle(req.ItemName)
	}

	return models.MetadataFields{
		Title:      utils.CleanTitle(req.Query),
		MediaType:  models.MediaTypeMovie,
		Filename:   req.FileName,
		RootFolder: rootFolder,
	}
}

func (r *Resolver) cacheAndReturn(cacheKey string, metadata models.MetadataFields, success bool, detail string) (models.MetadataFields, bool, string) {
	if cacheKey != "" {
		r.cache.Set(cacheKey, metadata, success, detail)
	}
	return metadata, success, detail
}

// identityFromCandidate builds the cacheable identity record from an accepted
// search candidate. The parser year wins over the candidate's release years
// when both are known.
func identityFromCandidate(candidate Candidate, candidateType models.MediaType, parsedYear *int) Identity {
	title := utils.CleanTitle(candidate.Title)

	year := parsedYear
	if year == nil {
		year = utils.CleanYear(candidate.ReleaseYears)
	}

	rootFolder := title
	if year != nil {
		rootFolder = fmt.Sprintf("%s (%d)", title, *year)
	}

	return Identity{
		Title:      title,
		Type:       candidateType,
		Year:       year,
		Link:       candidate.Link,
		Image:      candidate.Image,
		Backdrop:   candidate.Backdrop,
		RootFolder: rootFolder,
	}
}

// buildMetadata merges a resolved identity over the base metadata and renders
// the per-file season/episode fields, subfolder and final filename
func buildMetadata(identity Identity, base models.MetadataFields, extension string, season, episode *int, isSpecial bool) models.MetadataFields {
	metadata := base
	metadata.Title = identity.Title
	metadata.Link = identity.Link
	metadata.MediaType = identity.Type
	metadata.Image = identity.Image
	metadata.Backdrop = identity.Backdrop
	metadata.Year = identity.Year
	metadata.RootFolder = identity.RootFolder

	if identity.Type.IsSeries() {
		normalizedSeason := 1
		if season != nil {
			normalizedSeason = *season
		} else if isSpecial {
			normalizedSeason = 0
		}

		metadata.Season = &normalizedSeason
		metadata.Episode = episode
		metadata.Subfolder = utils.SeriesFolderName(normalizedSeason)

		labelSeason := season
		if labelSeason == nil && episode != nil {
			labelSeason = &normalizedSeason
		}
		if label := utils.ConstructSeriesTitle(labelSeason, episode); label != "" {
			metadata.Filename = fmt.Sprintf("%s %s%s", identity.Title, label, extension)
		} else {
			metadata.Filename = identity.Title + extension
		}
		return metadata
	}

	metadata.Season = nil
	metadata.Episode = nil
	metadata.Subfolder = ""
	if identity.Year != nil {
		metadata.Filename = fmt.Sprintf("%s (%d)%s", identity.Title, *identity.Year, extension)
	} else {
		metadata.Filename = identity.Title + extension
	}
	return metadata
}

// normalizeMediaType maps a raw candidate type onto movie/series/anime,
// defaulting to movie
func normalizeMediaType(raw string) models.MediaType {
	switch models.MediaType(strings.ToLower(raw)) {
	case models.MediaTypeSeries:
		return models.MediaTypeSeries
	case models.MediaTypeAnime:
		return models.MediaTypeAnime
	default:
		return models.MediaTypeMovie
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
