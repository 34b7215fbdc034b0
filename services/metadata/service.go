package metadata

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/coocood/freecache"
	"github.com/sourcegraph/conc/iter"
	"golang.org/x/sync/singleflight"

	"tamilstream/config"
	"tamilstream/models"
)

const (
	defaultLookupTimeout = 5 * time.Second
	maxMissTTL           = 15 * time.Minute
	enrichConcurrency    = 8
)

// PosterWriter persists a poster found for a catalog entry.
type PosterWriter interface {
	UpdatePoster(ctx context.Context, id, posterURL string) error
}

// Service resolves poster artwork for titles that carry an IMDb id. OMDb is asked first
// and TMDB second when it has a key. Answers, including misses, are cached in memory.
type Service struct {
	omdb *omdbClient
	tmdb *tmdbClient

	cache   *freecache.Cache
	hitTTL  int
	missTTL int
	group   singleflight.Group
}

func NewService(settings config.MetadataSettings, httpc *http.Client) *Service {
	timeout := config.Seconds(settings.TimeoutSeconds, defaultLookupTimeout)
	sizeMB := settings.CacheSizeMB
	if sizeMB <= 0 {
		sizeMB = 8
	}
	hitTTL := time.Duration(settings.CacheTTLMinutes) * time.Minute
	if hitTTL <= 0 {
		hitTTL = 24 * time.Hour
	}
	missTTL := hitTTL
	if missTTL > maxMissTTL {
		missTTL = maxMissTTL
	}

	return &Service{
		omdb:    newOMDBClient(settings.OMDBAPIKey, settings.OMDBBaseURL, timeout, httpc),
		tmdb:    newTMDBClient(settings.TMDBAPIKey, settings.TMDBBaseURL, timeout, httpc),
		cache:   freecache.NewCache(sizeMB * 1024 * 1024),
		hitTTL:  int(hitTTL / time.Second),
		missTTL: int(missTTL / time.Second),
	}
}

// FetchPoster returns a poster URL for an IMDb id. Ids without the "tt" prefix are never
// looked up. Provider failures are logged and reported as absent.
func (s *Service) FetchPoster(ctx context.Context, externalID string) (string, bool) {
	externalID = strings.TrimSpace(externalID)
	if !strings.HasPrefix(externalID, "tt") {
		return "", false
	}

	key := []byte(externalID)
	if cached, err := s.cache.Get(key); err == nil {
		return string(cached), len(cached) > 0
	} else if !errors.Is(err, freecache.ErrNotFound) {
		log.Printf("[metadata] cache read %s: %v", externalID, err)
	}

	// the shared lookup outlives any single caller; each provider call has its own timeout
	lookupCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(externalID, func() (any, error) {
		poster := s.lookup(lookupCtx, externalID)
		ttl := s.hitTTL
		if poster == "" {
			ttl = s.missTTL
		}
		_ = s.cache.Set(key, []byte(poster), ttl)
		return poster, nil
	})

	select {
	case res := <-ch:
		poster, _ := res.Val.(string)
		return poster, poster != ""
	case <-ctx.Done():
		return "", false
	}
}

func (s *Service) lookup(ctx context.Context, imdbID string) string {
	poster, err := s.omdb.poster(ctx, imdbID)
	if err != nil {
		log.Printf("[metadata] omdb lookup %s failed: %v", imdbID, err)
	}
	if poster != "" {
		return poster
	}
	if !s.tmdb.isConfigured() {
		return ""
	}
	poster, err = s.tmdb.findPoster(ctx, imdbID)
	if err != nil {
		log.Printf("[metadata] tmdb lookup %s failed: %v", imdbID, err)
	}
	return poster
}

// EnsurePoster returns the item's poster, fetching and storing one when it is missing.
// A failed write is logged; the fetched URL is still returned.
func (s *Service) EnsurePoster(ctx context.Context, store PosterWriter, item models.Content) string {
	if item.Poster != "" {
		return item.Poster
	}
	poster, ok := s.FetchPoster(ctx, item.ExternalID())
	if !ok {
		return ""
	}
	if store != nil {
		if err := store.UpdatePoster(ctx, item.ID, poster); err != nil {
			log.Printf("[metadata] store poster for %s: %v", item.ID, err)
		}
	}
	return poster
}

// EnrichPosters runs EnsurePoster over a page of items and returns the posters in order.
func (s *Service) EnrichPosters(ctx context.Context, store PosterWriter, items []models.Content) []string {
	mapper := iter.Mapper[models.Content, string]{MaxGoroutines: enrichConcurrency}
	return mapper.Map(items, func(item *models.Content) string {
		return s.EnsurePoster(ctx, store, *item)
	})
}

// String summarises the configured providers and cache occupancy for startup logs.
func (s *Service) String() string {
	return fmt.Sprintf("metadata(omdb, tmdb=%t, entries=%d)", s.tmdb.isConfigured(), s.cache.EntryCount())
}
