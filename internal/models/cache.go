package models

// CacheEntry is a persisted metadata cache record. The same store holds both
// per-file resolution results and identity records, partitioned by key
// namespace. An entry with a stale schema version or a past expiry must be
// treated as absent by readers.
type CacheEntry struct {
	Key           string `boltholdKey:"Key"`
	SchemaVersion int
	Success       bool
	Detail        string
	Payload       []byte // JSON-encoded MetadataFields or Identity
	CachedAt      int64  // unix seconds
	ExpiresAt     int64  // unix seconds
}
