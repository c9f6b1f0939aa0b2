package strm

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/amaumene/strmarr/internal/config"
	"github.com/amaumene/strmarr/internal/models"
	"github.com/sirupsen/logrus"
)

// Service materializes persisted media records as a navigable .strm library
// under the mount path
type Service struct {
	db        *models.Database
	mountPath string
	rawMode   bool
	logger    *logrus.Logger
}

// NewService creates a strm materializer
func NewService(db *models.Database, cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		db:        db,
		mountPath: cfg.MountPath,
		rawMode:   cfg.RawMode,
		logger:    logger,
	}
}

// mountCategory maps a media type onto its top-level library folder
func mountCategory(mediaType models.MediaType) string {
	switch mediaType {
	case models.MediaTypeMovie:
		return "movies"
	case models.MediaTypeSeries, models.MediaTypeAnime:
		return "series"
	case models.MediaTypeMusic:
		return "music"
	default:
		return ""
	}
}

// InitializeFolders cleans and recreates the library folders on boot
func (s *Service) InitializeFolders() error {
	folders := []string{s.mountPath}
	if !s.rawMode {
		folders = append(folders,
			filepath.Join(s.mountPath, "movies"),
			filepath.Join(s.mountPath, "series"),
		)
	}

	for _, folder := range folders {
		entries, err := os.ReadDir(folder)
		if os.IsNotExist(err) {
			s.logger.WithField("folder", folder).Debug("Creating folder")
			if err := os.MkdirAll(folder, 0755); err != nil {
				return fmt.Errorf("failed to create folder %s: %w", folder, err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read folder %s: %w", folder, err)
		}

		s.logger.WithField("folder", folder).Debug("Folder already exists, cleaning")
		for _, entry := range entries {
			if err := os.RemoveAll(filepath.Join(folder, entry.Name())); err != nil {
				return fmt.Errorf("failed to clean folder %s: %w", folder, err)
			}
		}
	}

	return nil
}

// folderPath returns the library-relative directory for one record, or the
// empty string when the record cannot be placed
func (s *Service) folderPath(record *models.MediaRecord) string {
	if s.rawMode {
		if record.Path == "" {
			return ""
		}
		return filepath.Dir(record.Path)
	}

	meta := record.Metadata
	if meta.RootFolder == "" {
		return ""
	}

	if meta.MediaType.IsSeries() {
		if meta.Subfolder == "" {
			return ""
		}
		return filepath.Join(mountCategory(meta.MediaType), meta.RootFolder, meta.Subfolder)
	}

	if meta.MediaType == models.MediaTypeMovie || meta.MediaType == models.MediaTypeMusic {
		return filepath.Join(mountCategory(meta.MediaType), meta.RootFolder)
	}

	return ""
}

// Sync rewrites the .strm tree from the persisted records and removes
// pointer files for downloads that no longer exist
func (s *Service) Sync() error {
	records, err := s.db.AllDownloads()
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	existing := s.existingStrmFiles()

	current := make(map[string]bool)
	for _, record := range records {
		relative := s.folderPath(record)
		if relative == "" {
			continue
		}
		if record.Metadata.Filename == "" {
			continue
		}

		dir := filepath.Join(s.mountPath, relative)
		path := filepath.Join(dir, record.Metadata.Filename+".strm")
		current[path] = true

		if err := os.MkdirAll(dir, 0755); err != nil {
			s.logger.WithError(err).WithField("dir", dir).Error("Failed to create strm folder")
			continue
		}
		if err := os.WriteFile(path, []byte(record.DownloadLink), 0644); err != nil {
			s.logger.WithError(err).WithField("path", path).Error("Failed to write strm file")
			continue
		}
		s.logger.WithField("path", path).Debug("Created strm file")
	}

	for path := range existing {
		if current[path] {
			continue
		}
		if err := os.Remove(path); err != nil {
			s.logger.WithError(err).WithField("path", path).Error("Failed to remove stale strm file")
			continue
		}
		s.logger.WithField("path", path).Debug("Removed stale strm file")
		s.pruneEmptyDirs(filepath.Dir(path))
	}

	s.logger.WithField("count", len(records)).Debug("Updated strm files")
	return nil
}

// Unmount deletes all generated strm content for cleanup on shutdown
func (s *Service) Unmount() {
	entries, err := os.ReadDir(s.mountPath)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(s.mountPath, entry.Name())); err != nil {
			s.logger.WithError(err).Error("Failed to remove mount entry")
		}
	}
}

func (s *Service) existingStrmFiles() map[string]bool {
	existing := make(map[string]bool)
	_ = filepath.WalkDir(s.mountPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(path, ".strm") {
			existing[path] = true
		}
		return nil
	})
	return existing
}

// pruneEmptyDirs removes now-empty directories up to the mount path
func (s *Service) pruneEmptyDirs(dir string) {
	for dir != s.mountPath && strings.HasPrefix(dir, s.mountPath) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
