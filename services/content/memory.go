package content

import (
	"context"
	"strings"
	"sync"

	"tamilstream/models"
)

// catalog is the mutex-guarded in-memory state shared by MemoryStore and JSONStore.
// Insertion order is preserved so catalog pages are stable between requests.
type catalog struct {
	mu       sync.RWMutex
	contents []models.Content
	torrents []models.Torrent
}

func (c *catalog) list(contentType models.ContentType) []models.Content {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Content, 0, len(c.contents))
	for _, item := range c.contents {
		if matchesType(item, contentType) {
			out = append(out, cloneContent(item))
		}
	}
	return out
}

func (c *catalog) get(id string) (*models.Content, error) {
	id = strings.TrimSpace(id)
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, item := range c.contents {
		if item.HasID(id) {
			found := cloneContent(item)
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (c *catalog) torrentsFor(contentID string) []models.Torrent {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Torrent, 0)
	if contentID == "" {
		return out
	}
	for _, t := range c.torrents {
		if t.ContentID == contentID {
			out = append(out, t)
		}
	}
	return out
}

// updatePosterLocked requires c.mu held for writing.
func (c *catalog) updatePosterLocked(id, posterURL string) error {
	for i := range c.contents {
		if c.contents[i].HasID(id) {
			c.contents[i].Poster = posterURL
			return nil
		}
	}
	return ErrNotFound
}

// upsertContentLocked requires c.mu held for writing.
func (c *catalog) upsertContentLocked(item models.Content) {
	for i := range c.contents {
		if c.contents[i].ID == item.ID {
			c.contents[i] = cloneContent(item)
			return
		}
	}
	c.contents = append(c.contents, cloneContent(item))
}

// addTorrentLocked requires c.mu held for writing.
func (c *catalog) addTorrentLocked(t models.Torrent) bool {
	for _, existing := range c.torrents {
		if models.NormalizeInfoHash(existing.InfoHash) == t.InfoHash {
			return false
		}
	}
	c.torrents = append(c.torrents, t)
	return true
}

func (c *catalog) count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.contents)
}

// MemoryStore keeps the catalog in process memory only.
type MemoryStore struct {
	catalog
}

var _ Repository = (*MemoryStore)(nil)

// NewMemoryStore creates a store preloaded with the given records. Records are taken
// as-is, including torrents without an info hash.
func NewMemoryStore(contents []models.Content, torrents []models.Torrent) *MemoryStore {
	s := &MemoryStore{}
	for _, item := range contents {
		s.contents = append(s.contents, cloneContent(item))
	}
	s.torrents = append(s.torrents, torrents...)
	return s
}

func (s *MemoryStore) List(_ context.Context, contentType models.ContentType) ([]models.Content, error) {
	return s.list(contentType), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Content, error) {
	return s.get(id)
}

func (s *MemoryStore) Search(_ context.Context, query string) ([]models.Content, error) {
	return searchFilter(s.list(""), query), nil
}

func (s *MemoryStore) TorrentsFor(_ context.Context, contentID string) ([]models.Torrent, error) {
	return s.torrentsFor(contentID), nil
}

func (s *MemoryStore) UpdatePoster(_ context.Context, id, posterURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatePosterLocked(strings.TrimSpace(id), posterURL)
}

func (s *MemoryStore) UpsertContent(_ context.Context, item models.Content) error {
	item, err := validateContent(item)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertContentLocked(item)
	return nil
}

func (s *MemoryStore) AddTorrent(_ context.Context, t models.Torrent) (bool, error) {
	t, err := validateTorrent(t)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addTorrentLocked(t), nil
}

func (s *MemoryStore) Count(context.Context) (int, error) {
	return s.count(), nil
}

func (s *MemoryStore) Close() error { return nil }
