package models

import "strings"

// ContentType is the addon protocol media type.
type ContentType string

const (
	ContentTypeMovie  ContentType = "movie"
	ContentTypeSeries ContentType = "series"
)

// ParseContentType normalises a request path segment. Unknown values are returned as-is
// lowercased so catalog filtering simply yields no results for them.
func ParseContentType(value string) ContentType {
	return ContentType(strings.ToLower(strings.TrimSpace(value)))
}

// Video is one episode entry of a series.
type Video struct {
	ID       string `json:"id"` // {content}:{season}:{episode}
	Title    string `json:"title"`
	Season   int    `json:"season"`
	Episode  int    `json:"episode"`
	Released string `json:"released,omitempty"`
}

// Content is a catalog entry. ID may be an IMDb id ("tt...") or an internal id; IMDBID
// is optional and may duplicate ID.
type Content struct {
	ID          string      `json:"id"`
	IMDBID      string      `json:"imdb_id,omitempty"`
	Title       string      `json:"title"`
	Type        ContentType `json:"type"`
	Poster      string      `json:"poster,omitempty"`
	Background  string      `json:"background,omitempty"`
	Description string      `json:"description,omitempty"`
	Year        int         `json:"year,omitempty"`
	Rating      float64     `json:"rating,omitempty"`
	Genres      []string    `json:"genres,omitempty"`
	Runtime     string      `json:"runtime,omitempty"`
	Channel     string      `json:"channel,omitempty"`
	SourceURL   string      `json:"source_url,omitempty"`
	Videos      []Video     `json:"videos,omitempty"`
}

// ExternalID returns the id the player knows this content by: the IMDb id when present,
// the internal id otherwise.
func (c Content) ExternalID() string {
	if id := strings.TrimSpace(c.IMDBID); id != "" {
		return id
	}
	return c.ID
}

// HasID reports whether id refers to this content through either identifier.
func (c Content) HasID(id string) bool {
	if id == "" {
		return false
	}
	return c.ID == id || (c.IMDBID != "" && c.IMDBID == id)
}

// Torrent is a scraped release of a piece of content. InfoHash is the canonical key.
type Torrent struct {
	ID           string  `json:"id"`
	ContentID    string  `json:"content_id"`
	InfoHash     string  `json:"info_hash"`
	Title        string  `json:"title"`
	Size         int64   `json:"size"`
	SizeReadable string  `json:"size_readable,omitempty"`
	Quality      Quality `json:"quality,omitempty"`
	Seeders      int     `json:"seeders"`
	Leechers     int     `json:"leechers"`
	Source       string  `json:"source,omitempty"`
	Magnet       string  `json:"magnet,omitempty"`
}

// NormalizeInfoHash lowercases and trims a hex info-hash.
func NormalizeInfoHash(hash string) string {
	return strings.ToLower(strings.TrimSpace(hash))
}
