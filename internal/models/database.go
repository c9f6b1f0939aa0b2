package models

import (
	"fmt"
	"sync"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Database wraps the bolthold store. Each named store (one per download type
// plus the metadata cache) has a dedicated lock; read-modify-write sequences
// against a store must hold its lock for the whole sequence.
type Database struct {
	store *bolthold.Store

	downloadLocks map[DownloadType]*sync.Mutex
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	locks := make(map[DownloadType]*sync.Mutex)
	for _, t := range AllDownloadTypes() {
		locks[t] = &sync.Mutex{}
	}

	return &Database{store: store, downloadLocks: locks}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// Media record operations

// InsertDownload persists a processed file record
func (db *Database) InsertDownload(record *MediaRecord) error {
	lock := db.downloadLocks[record.Type]
	if lock == nil {
		return fmt.Errorf("unknown download type %q", record.Type)
	}
	lock.Lock()
	defer lock.Unlock()

	record.CreatedAt = time.Now()
	return db.store.Insert(bolthold.NextSequence(), record)
}

// DownloadsByType retrieves all records for one download type
func (db *Database) DownloadsByType(t DownloadType) ([]*MediaRecord, error) {
	var records []*MediaRecord
	err := db.store.Find(&records, bolthold.Where("Type").Eq(t).Index("Type"))
	return records, err
}

// AllDownloads retrieves every persisted record across all download types
func (db *Database) AllDownloads() ([]*MediaRecord, error) {
	var records []*MediaRecord
	err := db.store.Find(&records, nil)
	return records, err
}

// CountDownloads returns the number of records for one download type
func (db *Database) CountDownloads(t DownloadType) (int, error) {
	records, err := db.DownloadsByType(t)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// ClearDownloads removes all records for one download type. Each refresh
// cycle clears a type before writing fresh records for it.
func (db *Database) ClearDownloads(t DownloadType) error {
	lock := db.downloadLocks[t]
	if lock == nil {
		return fmt.Errorf("unknown download type %q", t)
	}
	lock.Lock()
	defer lock.Unlock()

	return db.store.DeleteMatching(&MediaRecord{}, bolthold.Where("Type").Eq(t).Index("Type"))
}

// Metadata cache operations. These do not lock; the metadata cache layer owns
// the store lock so that lookup-then-delete sequences stay atomic.

// GetCacheEntry retrieves a cache entry by key, or nil when absent
func (db *Database) GetCacheEntry(key string) (*CacheEntry, error) {
	var entry CacheEntry
	err := db.store.Get(key, &entry)
	if err == bolthold.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpsertCacheEntry inserts or replaces a cache entry
func (db *Database) UpsertCacheEntry(entry *CacheEntry) error {
	return db.store.Upsert(entry.Key, entry)
}

// DeleteCacheEntry removes a cache entry by key
func (db *Database) DeleteCacheEntry(key string) error {
	err := db.store.Delete(key, &CacheEntry{})
	if err == bolthold.ErrNotFound {
		return nil
	}
	return err
}

// DeleteStaleCacheEntries removes every entry with a mismatched schema version
// or an expiry at or before now, returning the number removed
func (db *Database) DeleteStaleCacheEntries(schemaVersion int, now int64) (int, error) {
	var stale []*CacheEntry
	query := bolthold.Where("SchemaVersion").Ne(schemaVersion).Or(bolthold.Where("ExpiresAt").Le(now))
	if err := db.store.Find(&stale, query); err != nil {
		return 0, err
	}

	for _, entry := range stale {
		if err := db.store.Delete(entry.Key, &CacheEntry{}); err != nil && err != bolthold.ErrNotFound {
			return 0, err
		}
	}

	return len(stale), nil
}

// CountCacheEntries returns the number of cache entries currently stored
func (db *Database) CountCacheEntries() (int, error) {
	var entries []*CacheEntry
	if err := db.store.Find(&entries, nil); err != nil {
		return 0, err
	}
	return len(entries), nil
}
