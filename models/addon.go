package models

// Wire types of the media player addon protocol.

type ExtraField struct {
	Name       string `json:"name"`
	IsRequired bool   `json:"isRequired"`
}

type ManifestCatalog struct {
	ID    string       `json:"id"`
	Type  ContentType  `json:"type"`
	Name  string       `json:"name"`
	Extra []ExtraField `json:"extra,omitempty"`
}

type ManifestBehaviorHints struct {
	Configurable          bool `json:"configurable"`
	ConfigurationRequired bool `json:"configurationRequired"`
}

type Manifest struct {
	ID            string                 `json:"id"`
	Version       string                 `json:"version"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	Logo          string                 `json:"logo,omitempty"`
	Background    string                 `json:"background,omitempty"`
	Resources     []string               `json:"resources"`
	Types         []ContentType          `json:"types"`
	Catalogs      []ManifestCatalog      `json:"catalogs"`
	IDPrefixes    []string               `json:"idPrefixes,omitempty"`
	BehaviorHints *ManifestBehaviorHints `json:"behaviorHints,omitempty"`
}

// MetaPreview is a catalog row. Pointer fields serialise as null when absent, matching
// what players already accept from this addon.
type MetaPreview struct {
	ID          string      `json:"id"`
	Type        ContentType `json:"type"`
	Name        string      `json:"name"`
	Poster      *string     `json:"poster"`
	Background  *string     `json:"background"`
	Description string      `json:"description"`
	ReleaseInfo string      `json:"releaseInfo"`
	IMDBRating  *string     `json:"imdbRating"`
	Genres      []string    `json:"genres"`
	Runtime     *string     `json:"runtime"`
}

// Meta is the detail view; series carry their episode list.
type Meta struct {
	MetaPreview
	Videos []Video `json:"videos,omitempty"`
}

type StreamBehaviorHints struct {
	BingeGroup  string `json:"bingeGroup,omitempty"`
	NotWebReady bool   `json:"notWebReady"`
}

// Stream is one playable option. Exactly one of InfoHash and URL is set.
type Stream struct {
	Name          string              `json:"name"`
	Title         string              `json:"title"`
	InfoHash      string              `json:"infoHash,omitempty"`
	URL           string              `json:"url,omitempty"`
	BehaviorHints StreamBehaviorHints `json:"behaviorHints"`
}

type CatalogResponse struct {
	Metas []MetaPreview `json:"metas"`
}

type MetaResponse struct {
	Meta *Meta `json:"meta"`
}

type StreamsResponse struct {
	Streams []Stream `json:"streams"`
}
