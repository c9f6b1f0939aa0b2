package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/amaumene/strmarr/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	cacheSchemaVersion = 1

	// Confirmed identities are kept for a long time; failures are retried
	// much sooner.
	cacheSuccessTTL = 30 * 24 * time.Hour
	cacheFailureTTL = 6 * time.Hour
)

// Cache is a TTL key/value layer over the document store used for both
// per-file resolution results and identity records. The store is a soft
// dependency: with no database every operation degrades to a no-op.
type Cache struct {
	db     *models.Database
	logger *logrus.Logger

	// serializes read-modify-write sequences against the cache store
	mu sync.Mutex
}

// NewCache creates a metadata cache over the given database. db may be nil.
func NewCache(db *models.Database, logger *logrus.Logger) *Cache {
	return &Cache{db: db, logger: logger}
}

// Get looks up a cache entry and unmarshals its payload into out. Entries
// with a stale schema version or past expiry are deleted and reported as
// absent. Returns found=false when the store is unavailable.
func (c *Cache) Get(key string, out any) (found bool, success bool, detail string) {
	if c == nil || c.db == nil || key == "" {
		return false, false, ""
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, err := c.db.GetCacheEntry(key)
	if err != nil {
		c.logger.WithError(err).WithField("cache_key", key).Warn("Failed to read metadata cache")
		return false, false, ""
	}
	if entry == nil {
		return false, false, ""
	}

	now := time.Now().Unix()
	if entry.SchemaVersion != cacheSchemaVersion || entry.ExpiresAt <= now {
		if err := c.db.DeleteCacheEntry(key); err != nil {
			c.logger.WithError(err).WithField("cache_key", key).Warn("Failed to delete stale cache entry")
		}
		return false, false, ""
	}

	if out != nil {
		if err := json.Unmarshal(entry.Payload, out); err != nil {
			c.logger.WithError(err).WithField("cache_key", key).Warn("Discarding malformed cache payload")
			if err := c.db.DeleteCacheEntry(key); err != nil {
				c.logger.WithError(err).WithField("cache_key", key).Warn("Failed to delete malformed cache entry")
			}
			return false, false, ""
		}
	}

	return true, entry.Success, entry.Detail
}

// Set stores a payload under key. Successful results get the long TTL,
// failures the short one. No-op when the store is unavailable.
func (c *Cache) Set(key string, payload any, success bool, detail string) {
	if c == nil || c.db == nil || key == "" {
		return
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		c.logger.WithError(err).WithField("cache_key", key).Warn("Failed to encode cache payload")
		return
	}

	ttl := cacheFailureTTL
	if success {
		ttl = cacheSuccessTTL
	}

	now := time.Now()
	entry := &models.CacheEntry{
		Key:           key,
		SchemaVersion: cacheSchemaVersion,
		Success:       success,
		Detail:        detail,
		Payload:       encoded,
		CachedAt:      now.Unix(),
		ExpiresAt:     now.Add(ttl).Unix(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.db.UpsertCacheEntry(entry); err != nil {
		c.logger.WithError(err).WithField("cache_key", key).Warn("Failed to write metadata cache")
	}
}

// PruneExpired removes every entry with a mismatched schema version or past
// expiry. Run before each full listing pass.
func (c *Cache) PruneExpired() {
	if c == nil || c.db == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed, err := c.db.DeleteStaleCacheEntries(cacheSchemaVersion, time.Now().Unix())
	if err != nil {
		c.logger.WithError(err).Warn("Failed to prune metadata cache")
		return
	}
	if removed > 0 {
		c.logger.WithField("count", removed).Info("Pruned expired metadata cache entries")
	}
}

// ResolutionCacheKey computes the per-file cache key for a final metadata
// result. Any change to the inputs or the schema version yields a new key.
func ResolutionCacheKey(downloadType models.DownloadType, itemID int64, itemHash string, fileID int64, fileName, filePath, fileMimeType string) string {
	keyData := struct {
		SchemaVersion int                 `json:"schema_version"`
		DownloadType  models.DownloadType `json:"download_type"`
		ItemID        int64               `json:"item_id"`
		ItemHash      string              `json:"item_hash"`
		FileID        int64               `json:"file_id"`
		FileName      string              `json:"file_name"`
		FilePath      string              `json:"file_path"`
		FileMimeType  string              `json:"file_mimetype"`
	}{
		SchemaVersion: cacheSchemaVersion,
		DownloadType:  downloadType,
		ItemID:        itemID,
		ItemHash:      itemHash,
		FileID:        fileID,
		FileName:      fileName,
		FilePath:      filePath,
		FileMimeType:  fileMimeType,
	}

	encoded, _ := json.Marshal(keyData)
	digest := sha256.Sum256(encoded)
	return hex.EncodeToString(digest[:])
}
