package metadata

import (
	"fmt"

	"github.com/amaumene/strmarr/internal/models"
)

// Identity is series/movie-level metadata independent of which episode or
// file it was resolved from. Once a series has been identified, every other
// file of the same pack or the same series-by-name reuses it without another
// network search.
type Identity struct {
	Title      string
	Type       models.MediaType
	Year       *int
	Link       string
	Image      string
	Backdrop   string
	RootFolder string
}

// ItemIdentityKey builds the identity cache key for one download item,
// preferring the item hash over the numeric id. Returns the empty string when
// the item has neither, meaning it cannot be cached.
func ItemIdentityKey(downloadType models.DownloadType, itemHash string, itemID int64) string {
	if itemHash != "" {
		return fmt.Sprintf("identity:item:%s:%s", downloadType, itemHash)
	}
	if itemID != 0 {
		return fmt.Sprintf("identity:item:%s:%d", downloadType, itemID)
	}
	return ""
}

// SeriesIdentityKeys builds the ordered series-level identity keys for a
// title: normalized title plus year first, then the normalized title alone.
// Empty when the title normalizes to nothing.
func SeriesIdentityKeys(title string, year *int) []string {
	normalized := Normalize(title)
	if normalized == "" {
		return nil
	}

	var keys []string
	if year != nil {
		keys = append(keys, fmt.Sprintf("identity:series:%s:%d", normalized, *year))
	}
	keys = append(keys, fmt.Sprintf("identity:series:%s", normalized))
	return keys
}

// GetIdentity looks up a cached identity. Only well-formed successful entries
// count as hits.
func (c *Cache) GetIdentity(key string) *Identity {
	var identity Identity
	found, success, _ := c.Get(key, &identity)
	if !found || !success || identity.Title == "" {
		return nil
	}
	return &identity
}

// PutIdentity stores a confidently resolved identity with the long TTL.
// Existing entries are refreshed.
func (c *Cache) PutIdentity(key string, identity Identity) {
	if key == "" {
		return
	}
	c.Set(key, identity, true, fmt.Sprintf("Identity for %s", identity.Title))
}
