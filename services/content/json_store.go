package content

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"tamilstream/models"
)

// jsonDocument is the on-disk layout, matching the exports the scrapers produce.
type jsonDocument struct {
	Movies   []models.Content `json:"movies"`
	Series   []models.Content `json:"series"`
	Torrents []models.Torrent `json:"torrents"`
}

// JSONStore persists the catalog to a single JSON file. Every write rewrites the file
// through a temp file and rename.
type JSONStore struct {
	catalog
	fs   afero.Fs
	path string
}

var _ Repository = (*JSONStore)(nil)

// NewJSONStore opens (or lazily creates on first write) the catalog file at path.
func NewJSONStore(fs afero.Fs, path string) (*JSONStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("json store: %w", ErrStorePathRequired)
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create content dir: %w", err)
		}
	}

	s := &JSONStore{fs: fs, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JSONStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := afero.Exists(s.fs, s.path)
	if err != nil {
		return fmt.Errorf("stat content file: %w", err)
	}
	if !exists {
		return nil
	}
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return fmt.Errorf("read content file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode content file: %w", err)
	}
	s.contents = s.contents[:0]
	for _, item := range doc.Movies {
		if item.Type == "" {
			item.Type = models.ContentTypeMovie
		}
		s.contents = append(s.contents, item)
	}
	for _, item := range doc.Series {
		if item.Type == "" {
			item.Type = models.ContentTypeSeries
		}
		s.contents = append(s.contents, item)
	}
	s.torrents = append(s.torrents[:0], doc.Torrents...)
	return nil
}

func (s *JSONStore) saveLocked() error {
	doc := jsonDocument{
		Movies:   make([]models.Content, 0),
		Series:   make([]models.Content, 0),
		Torrents: s.torrents,
	}
	if doc.Torrents == nil {
		doc.Torrents = make([]models.Torrent, 0)
	}
	for _, item := range s.contents {
		if item.Type == models.ContentTypeSeries {
			doc.Series = append(doc.Series, item)
		} else {
			doc.Movies = append(doc.Movies, item)
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode content file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("write content temp file: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace content file: %w", err)
	}
	return nil
}

func (s *JSONStore) List(_ context.Context, contentType models.ContentType) ([]models.Content, error) {
	return s.list(contentType), nil
}

func (s *JSONStore) Get(_ context.Context, id string) (*models.Content, error) {
	return s.get(id)
}

func (s *JSONStore) Search(_ context.Context, query string) ([]models.Content, error) {
	return searchFilter(s.list(""), query), nil
}

func (s *JSONStore) TorrentsFor(_ context.Context, contentID string) ([]models.Torrent, error) {
	return s.torrentsFor(contentID), nil
}

// commitLocked applies change and persists the result. A failed write restores the state
// from before change so memory never runs ahead of the file. Requires s.mu held for writing.
func (s *JSONStore) commitLocked(change func() error) error {
	contents, torrents := slices.Clone(s.contents), slices.Clone(s.torrents)
	if err := change(); err != nil {
		s.contents, s.torrents = contents, torrents
		return err
	}
	if err := s.saveLocked(); err != nil {
		s.contents, s.torrents = contents, torrents
		return err
	}
	return nil
}

func (s *JSONStore) UpdatePoster(_ context.Context, id, posterURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(func() error {
		return s.updatePosterLocked(strings.TrimSpace(id), posterURL)
	})
}

func (s *JSONStore) UpsertContent(_ context.Context, item models.Content) error {
	item, err := validateContent(item)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(func() error {
		s.upsertContentLocked(item)
		return nil
	})
}

func (s *JSONStore) AddTorrent(_ context.Context, t models.Torrent) (bool, error) {
	t, err := validateTorrent(t)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	added := false
	err = s.commitLocked(func() error {
		added = s.addTorrentLocked(t)
		return nil
	})
	if err != nil || !added {
		return false, err
	}
	return true, nil
}

func (s *JSONStore) Count(context.Context) (int, error) {
	return s.count(), nil
}

func (s *JSONStore) Close() error { return nil }
