package content

import (
	"context"
	"errors"
	"strings"

	"tamilstream/models"
	"tamilstream/utils/textnorm"
)

var (
	ErrNotFound          = errors.New("content not found")
	ErrContentIDRequired = errors.New("content id is required")
	ErrTitleRequired     = errors.New("content title is required")
	ErrInfoHashRequired  = errors.New("torrent info hash is required")
	ErrStorePathRequired = errors.New("storage path not provided")
)

// Repository is the read/write surface over the catalog of content and torrents.
// Implementations must be safe for concurrent use.
type Repository interface {
	// List returns every content item, or only those of contentType when it is non-empty.
	List(ctx context.Context, contentType models.ContentType) ([]models.Content, error)
	// Get finds content by internal id or IMDb id. Returns ErrNotFound when neither matches.
	Get(ctx context.Context, id string) (*models.Content, error)
	// Search matches query against titles ignoring case and diacritics.
	Search(ctx context.Context, query string) ([]models.Content, error)
	// TorrentsFor returns the torrents whose owning content id equals contentID exactly.
	TorrentsFor(ctx context.Context, contentID string) ([]models.Torrent, error)
	// UpdatePoster stores a poster URL on the content matching id (internal or IMDb).
	UpdatePoster(ctx context.Context, id, posterURL string) error
	// UpsertContent inserts content or replaces the record with the same id.
	UpsertContent(ctx context.Context, item models.Content) error
	// AddTorrent inserts a torrent unless one with the same info hash exists. Existing
	// records are left untouched; created reports whether a row was written.
	AddTorrent(ctx context.Context, torrent models.Torrent) (created bool, err error)
	// Count returns the number of content items.
	Count(ctx context.Context) (int, error)
	Close() error
}

func validateContent(item models.Content) (models.Content, error) {
	item.ID = strings.TrimSpace(item.ID)
	item.IMDBID = strings.TrimSpace(item.IMDBID)
	if item.ID == "" {
		return item, ErrContentIDRequired
	}
	if strings.TrimSpace(item.Title) == "" {
		return item, ErrTitleRequired
	}
	if item.Type == "" {
		item.Type = models.ContentTypeMovie
	}
	return item, nil
}

func validateTorrent(t models.Torrent) (models.Torrent, error) {
	t.InfoHash = models.NormalizeInfoHash(t.InfoHash)
	t.ContentID = strings.TrimSpace(t.ContentID)
	if t.InfoHash == "" {
		return t, ErrInfoHashRequired
	}
	if t.ContentID == "" {
		return t, ErrContentIDRequired
	}
	if strings.TrimSpace(t.ID) == "" {
		t.ID = t.InfoHash
	}
	if t.Quality == "" {
		t.Quality = models.QualityUnknown
	}
	return t, nil
}

func matchesType(item models.Content, contentType models.ContentType) bool {
	return contentType == "" || item.Type == contentType
}

func searchFilter(items []models.Content, query string) []models.Content {
	out := make([]models.Content, 0)
	for _, item := range items {
		if textnorm.Contains(item.Title, query) {
			out = append(out, item)
		}
	}
	return out
}

func cloneContent(item models.Content) models.Content {
	if item.Genres != nil {
		item.Genres = append([]string(nil), item.Genres...)
	}
	if item.Videos != nil {
		item.Videos = append([]models.Video(nil), item.Videos...)
	}
	return item
}
