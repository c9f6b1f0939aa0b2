package models

import "time"

// MetadataFields holds the resolved descriptive metadata for a single file.
// Season and Episode are nil when unknown; season 0 means specials.
type MetadataFields struct {
	Title      string
	Link       string
	MediaType  MediaType
	Image      string
	Backdrop   string
	Year       *int
	Season     *int
	Episode    *int
	Filename   string // final display filename, extension included
	RootFolder string
	Subfolder  string // empty for movies and music
}

// MediaRecord is the persisted row for one processed file inside a download
// item. Records are fully replaced on each refresh cycle, never mutated in
// place.
type MediaRecord struct {
	ID uint64 `boltholdKey:"ID"`

	ItemID       int64
	Type         DownloadType `boltholdIndex:"Type"`
	FolderName   string
	FolderHash   string
	FileID       int64
	FileName     string
	FileSize     int64
	FileMimeType string
	Path         string
	DownloadLink string
	Extension    string

	Metadata MetadataFields

	CreatedAt time.Time
}
