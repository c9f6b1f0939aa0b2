package controllers

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/amaumene/strmarr/internal/metadata"
	"github.com/amaumene/strmarr/internal/models"
	"github.com/amaumene/strmarr/internal/services/torbox"
	"github.com/amaumene/strmarr/internal/utils"
	"github.com/moistari/rls"
	"github.com/sirupsen/logrus"
)

var acceptableVideoMimeTypes = map[string]bool{
	"video/x-matroska": true,
	"video/mp4":        true,
}

var acceptableAudioMimeTypes = map[string]bool{
	"audio/mpeg":   true,
	"audio/mp3":    true,
	"audio/mp4":    true,
	"audio/x-m4a":  true,
	"audio/flac":   true,
	"audio/x-flac": true,
	"audio/ogg":    true,
	"audio/wav":    true,
	"audio/x-wav":  true,
	"audio/aac":    true,
}

// Processor turns one raw API file entry into a persisted media record
type Processor struct {
	db           *models.Database
	torboxClient *torbox.Client
	resolver     *metadata.Resolver
	scanMetadata bool
	enableAudio  bool
	logger       *logrus.Logger
}

// NewProcessor creates a download item processor
func NewProcessor(db *models.Database, torboxClient *torbox.Client, resolver *metadata.Resolver, scanMetadata, enableAudio bool, logger *logrus.Logger) *Processor {
	return &Processor{
		db:           db,
		torboxClient: torboxClient,
		resolver:     resolver,
		scanMetadata: scanMetadata,
		enableAudio:  enableAudio,
		logger:       logger,
	}
}

// acceptedMediaKind classifies a mime type as video, music or unsupported
func (p *Processor) acceptedMediaKind(mimeType string) string {
	if mimeType == "" {
		return ""
	}
	if acceptableVideoMimeTypes[mimeType] {
		return "video"
	}
	if p.enableAudio && acceptableAudioMimeTypes[mimeType] {
		return "music"
	}
	return ""
}

// ProcessFile processes a single file of a download item and persists the
// resulting record. Returns (nil, nil) for unsupported files.
func (p *Processor) ProcessFile(ctx context.Context, item torbox.Download, file torbox.DownloadFile, downloadType models.DownloadType) (*models.MediaRecord, error) {
	shortName := file.ShortName
	if shortName == "" {
		shortName = file.Name
	}
	if shortName == "" {
		shortName = strconv.FormatInt(file.ID, 10)
	}

	kind := p.acceptedMediaKind(file.MimeType)
	if kind == "" {
		p.logger.WithFields(logrus.Fields{
			"file":     shortName,
			"mimetype": file.MimeType,
		}).Debug("Skipping file with unsupported mimetype")
		return nil, nil
	}

	itemName := item.Name

	record := &models.MediaRecord{
		ItemID:       item.ID,
		Type:         downloadType,
		FolderName:   itemName,
		FolderHash:   item.Hash,
		FileID:       file.ID,
		FileName:     shortName,
		FileSize:     file.Size,
		FileMimeType: file.MimeType,
		Path:         file.Name,
		DownloadLink: p.torboxClient.DownloadLink(downloadType, item.ID, file.ID),
		Extension:    filepath.Ext(shortName),
	}

	if kind == "music" {
		record.Metadata = musicMetadata(item, shortName)
		if err := p.db.InsertDownload(record); err != nil {
			return nil, fmt.Errorf("failed to persist music record for %s: %w", shortName, err)
		}
		return record, nil
	}

	parsed := rls.ParseString(shortName)

	parsedTitle := parsed.Title
	if parsedTitle == "" {
		parsedTitle = shortName
	}
	parsedYear := utils.CleanYear(parsed.Year)

	var parsedSeason, parsedEpisode *int
	if parsed.Series > 0 {
		season := parsed.Series
		parsedSeason = &season
	}
	if parsed.Episode > 0 {
		episode := parsed.Episode
		parsedEpisode = &episode
	}

	// Items with no human-assigned name carry their hash as the name; use
	// the parsed title as the folder name instead.
	if itemName != "" && itemName == item.Hash {
		itemName = parsedTitle
		record.FolderName = itemName
	}

	cacheKey := ""
	if p.scanMetadata {
		cacheKey = metadata.ResolutionCacheKey(downloadType, item.ID, item.Hash, file.ID, shortName, file.Name, file.MimeType)
	}

	season, episode, isSpecial := metadata.ResolveSeasonEpisode(parsedSeason, parsedEpisode, shortName, file.Name)

	fields, success, detail := p.resolver.Resolve(ctx, metadata.ResolveRequest{
		Query:              parsedTitle,
		ParsedYear:         parsedYear,
		FileName:           shortName,
		FullTitle:          fmt.Sprintf("%s %s", itemName, shortName),
		ItemHash:           item.Hash,
		ItemName:           itemName,
		CacheKey:           cacheKey,
		Season:             season,
		Episode:            episode,
		IsSpecial:          isSpecial,
		ItemIdentityKey:    metadata.ItemIdentityKey(downloadType, item.Hash, item.ID),
		SeriesIdentityKeys: metadata.SeriesIdentityKeys(parsedTitle, parsedYear),
	})
	if !success {
		p.logger.WithFields(logrus.Fields{
			"file":   shortName,
			"detail": detail,
		}).Debug("Metadata resolution fell back to defaults")
	}

	record.Metadata = fields
	if err := p.db.InsertDownload(record); err != nil {
		return nil, fmt.Errorf("failed to persist record for %s: %w", shortName, err)
	}

	return record, nil
}

// musicMetadata builds the fixed record for audio files, which skip the
// metadata search entirely
func musicMetadata(item torbox.Download, shortName string) models.MetadataFields {
	rootFolder := item.Name
	if rootFolder == "" {
		rootFolder = item.Hash
	}
	if rootFolder == "" {
		rootFolder = "music"
	}

	return models.MetadataFields{
		Title:      shortName,
		MediaType:  models.MediaTypeMusic,
		Filename:   shortName,
		RootFolder: rootFolder,
	}
}
