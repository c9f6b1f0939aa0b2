package models

// DownloadType represents a TorBox download category
type DownloadType string

const (
	DownloadTypeTorrents DownloadType = "torrents"
	DownloadTypeUsenet   DownloadType = "usenet"
	DownloadTypeWebDL    DownloadType = "webdl"
)

// AllDownloadTypes lists every download category processed by a refresh cycle
func AllDownloadTypes() []DownloadType {
	return []DownloadType{DownloadTypeTorrents, DownloadTypeUsenet, DownloadTypeWebDL}
}

// IDField returns the query parameter name the download-link endpoint expects
// for this download type
func (t DownloadType) IDField() string {
	switch t {
	case DownloadTypeTorrents:
		return "torrent_id"
	case DownloadTypeUsenet:
		return "usenet_id"
	case DownloadTypeWebDL:
		return "web_id"
	default:
		return ""
	}
}

// MediaType represents the resolved kind of a media file
type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeSeries MediaType = "series"
	MediaTypeAnime  MediaType = "anime"
	MediaTypeMusic  MediaType = "music"
)

// IsSeries reports whether the media type is episodic (series or anime)
func (m MediaType) IsSeries() bool {
	return m == MediaTypeSeries || m == MediaTypeAnime
}
