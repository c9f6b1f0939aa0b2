package metadata

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/amaumene/strmarr/internal/models"
	"github.com/amaumene/strmarr/internal/utils"
)

func newTestDatabase(t *testing.T) *models.Database {
	t.Helper()
	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	return NewCache(newTestDatabase(t), utils.NewLogger("error"))
}

func TestCacheSetGetRoundTrip(t *testing.T) {
	cache := newTestCache(t)

	stored := models.MetadataFields{Title: "True Blood", MediaType: models.MediaTypeSeries}
	cache.Set("key-1", stored, true, "Metadata found")

	var loaded models.MetadataFields
	found, success, detail := cache.Get("key-1", &loaded)
	if !found {
		t.Fatal("Expected cache hit")
	}
	if !success {
		t.Error("Expected success flag preserved")
	}
	if detail != "Metadata found" {
		t.Errorf("Detail mismatch: %q", detail)
	}
	if loaded.Title != "True Blood" || loaded.MediaType != models.MediaTypeSeries {
		t.Errorf("Payload mismatch: %+v", loaded)
	}
}

func TestCacheMissOnUnknownKey(t *testing.T) {
	cache := newTestCache(t)

	if found, _, _ := cache.Get("missing", nil); found {
		t.Error("Expected cache miss for unknown key")
	}
}

func TestCacheExpiredEntryIsDeleted(t *testing.T) {
	db := newTestDatabase(t)
	cache := NewCache(db, utils.NewLogger("error"))

	payload, _ := json.Marshal(models.MetadataFields{Title: "Old"})
	entry := &models.CacheEntry{
		Key:           "expired",
		SchemaVersion: cacheSchemaVersion,
		Success:       true,
		Payload:       payload,
		CachedAt:      time.Now().Add(-48 * time.Hour).Unix(),
		ExpiresAt:     time.Now().Add(-time.Hour).Unix(),
	}
	if err := db.UpsertCacheEntry(entry); err != nil {
		t.Fatalf("Failed to seed entry: %v", err)
	}

	if found, _, _ := cache.Get("expired", nil); found {
		t.Fatal("Expired entry must be treated as absent")
	}

	stored, err := db.GetCacheEntry("expired")
	if err != nil {
		t.Fatalf("Failed to read entry: %v", err)
	}
	if stored != nil {
		t.Error("Expired entry must be deleted on read")
	}
}

func TestCacheSchemaMismatchIsDeleted(t *testing.T) {
	db := newTestDatabase(t)
	cache := NewCache(db, utils.NewLogger("error"))

	payload, _ := json.Marshal(models.MetadataFields{Title: "Old Schema"})
	entry := &models.CacheEntry{
		Key:           "old-schema",
		SchemaVersion: cacheSchemaVersion + 1,
		Success:       true,
		Payload:       payload,
		CachedAt:      time.Now().Unix(),
		ExpiresAt:     time.Now().Add(time.Hour).Unix(),
	}
	if err := db.UpsertCacheEntry(entry); err != nil {
		t.Fatalf("Failed to seed entry: %v", err)
	}

	if found, _, _ := cache.Get("old-schema", nil); found {
		t.Fatal("Schema mismatch must be treated as absent")
	}

	stored, err := db.GetCacheEntry("old-schema")
	if err != nil {
		t.Fatalf("Failed to read entry: %v", err)
	}
	if stored != nil {
		t.Error("Mismatched entry must be deleted on read")
	}
}

func TestCachePruneExpired(t *testing.T) {
	db := newTestDatabase(t)
	cache := NewCache(db, utils.NewLogger("error"))

	payload, _ := json.Marshal(models.MetadataFields{Title: "x"})
	stale := &models.CacheEntry{
		Key:           "stale",
		SchemaVersion: cacheSchemaVersion,
		Payload:       payload,
		ExpiresAt:     time.Now().Add(-time.Minute).Unix(),
	}
	if err := db.UpsertCacheEntry(stale); err != nil {
		t.Fatalf("Failed to seed stale entry: %v", err)
	}
	cache.Set("fresh", models.MetadataFields{Title: "y"}, true, "ok")

	cache.PruneExpired()

	count, err := db.CountCacheEntries()
	if err != nil {
		t.Fatalf("Failed to count entries: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected only the fresh entry to survive, got %d", count)
	}
}

func TestCacheSoftFailsWithoutStore(t *testing.T) {
	cache := NewCache(nil, utils.NewLogger("error"))

	cache.Set("key", models.MetadataFields{}, true, "detail")
	cache.PruneExpired()
	if found, _, _ := cache.Get("key", nil); found {
		t.Error("Cache without a store must report misses")
	}
}

func TestResolutionCacheKeyStability(t *testing.T) {
	key1 := ResolutionCacheKey(models.DownloadTypeTorrents, 1, "hash", 2, "file.mkv", "pack/file.mkv", "video/mp4")
	key2 := ResolutionCacheKey(models.DownloadTypeTorrents, 1, "hash", 2, "file.mkv", "pack/file.mkv", "video/mp4")
	key3 := ResolutionCacheKey(models.DownloadTypeTorrents, 1, "hash", 3, "file.mkv", "pack/file.mkv", "video/mp4")

	if key1 != key2 {
		t.Error("Identical inputs must produce identical keys")
	}
	if key1 == key3 {
		t.Error("Different file ids must produce different keys")
	}
	if len(key1) != 64 {
		t.Errorf("Expected sha256 hex key, got length %d", len(key1))
	}
}

func TestIdentityRoundTrip(t *testing.T) {
	cache := newTestCache(t)

	year := 2008
	identity := Identity{
		Title:      "True Blood",
		Type:       models.MediaTypeSeries,
		Year:       &year,
		RootFolder: "True Blood (2008)",
	}
	cache.PutIdentity("identity:series:true blood:2008", identity)

	loaded := cache.GetIdentity("identity:series:true blood:2008")
	if loaded == nil {
		t.Fatal("Expected identity hit")
	}
	if loaded.Title != identity.Title || loaded.RootFolder != identity.RootFolder {
		t.Errorf("Identity mismatch: %+v", loaded)
	}
	if loaded.Year == nil || *loaded.Year != 2008 {
		t.Errorf("Year mismatch: %v", loaded.Year)
	}
}

func TestIdentityKeys(t *testing.T) {
	if key := ItemIdentityKey(models.DownloadTypeTorrents, "abc", 42); key != "identity:item:torrents:abc" {
		t.Errorf("Unexpected item key with hash: %q", key)
	}
	if key := ItemIdentityKey(models.DownloadTypeUsenet, "", 42); key != "identity:item:usenet:42" {
		t.Errorf("Unexpected item key with id: %q", key)
	}
	if key := ItemIdentityKey(models.DownloadTypeWebDL, "", 0); key != "" {
		t.Errorf("Expected empty key for unidentifiable item, got %q", key)
	}

	year := 2008
	keys := SeriesIdentityKeys("True.Blood", &year)
	if len(keys) != 2 {
		t.Fatalf("Expected two series keys, got %d", len(keys))
	}
	if keys[0] != "identity:series:true blood:2008" {
		t.Errorf("Year key must come first, got %q", keys[0])
	}
	if keys[1] != "identity:series:true blood" {
		t.Errorf("Unexpected bare key: %q", keys[1])
	}

	if keys := SeriesIdentityKeys("...", nil); keys != nil {
		t.Errorf("Empty normalized title must yield no keys, got %v", keys)
	}
}
