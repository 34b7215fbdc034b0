package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"

	"tamilstream/models"
	"tamilstream/services/content"
	"tamilstream/utils/textnorm"
)

// titleMatchThreshold is the similarity above which a release is attached to existing content.
const titleMatchThreshold = 0.9

// Release is one scraped torrent listing.
type Release struct {
	Title     string `json:"title"`
	Magnet    string `json:"magnet"`
	Size      string `json:"size"`
	Seeders   int    `json:"seeders"`
	Leechers  int    `json:"leechers"`
	Source    string `json:"source"`
	IMDBID    string `json:"imdb_id,omitempty"`
	Poster    string `json:"poster,omitempty"`
	Channel   string `json:"channel,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
}

// Stats summarises one import run.
type Stats struct {
	NewContent  int `json:"new_content"`
	NewTorrents int `json:"new_torrents"`
	Duplicates  int `json:"duplicates"`
	Skipped     int `json:"skipped"`
	Errors      int `json:"errors"`
}

func (s Stats) String() string {
	return fmt.Sprintf("new_content=%d new_torrents=%d duplicates=%d skipped=%d errors=%d",
		s.NewContent, s.NewTorrents, s.Duplicates, s.Skipped, s.Errors)
}

// LoadReleases decodes a JSON array of releases.
func LoadReleases(r io.Reader) ([]Release, error) {
	var releases []Release
	if err := json.NewDecoder(r).Decode(&releases); err != nil {
		return nil, fmt.Errorf("decode releases: %w", err)
	}
	return releases, nil
}

// Importer files scraped releases into the content repository.
type Importer struct {
	repo content.Repository
}

func NewImporter(repo content.Repository) *Importer {
	return &Importer{repo: repo}
}

// Import attaches every release to a content record, creating one when no existing title
// matches, and adds its torrent. Releases whose magnet yields no info-hash are skipped.
// Repository failures are counted and the run continues; only a cancelled context stops it.
func (im *Importer) Import(ctx context.Context, releases []Release) (Stats, error) {
	var stats Stats
	for _, rel := range releases {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if strings.TrimSpace(rel.Title) == "" {
			stats.Skipped++
			continue
		}
		hash, _, err := ParseMagnet(rel.Magnet)
		if err != nil {
			log.Printf("[ingest] skip %q: %v", rel.Title, err)
			stats.Skipped++
			continue
		}

		item, created, err := im.resolveContent(ctx, rel)
		if err != nil {
			log.Printf("[ingest] content for %q: %v", rel.Title, err)
			stats.Errors++
			continue
		}
		if created {
			stats.NewContent++
		}

		added, err := im.repo.AddTorrent(ctx, buildTorrent(rel, hash, item))
		switch {
		case err != nil:
			log.Printf("[ingest] torrent %s: %v", hash, err)
			stats.Errors++
		case added:
			stats.NewTorrents++
		default:
			stats.Duplicates++
		}
	}
	log.Printf("[ingest] import finished: %s", stats)
	return stats, nil
}

func (im *Importer) resolveContent(ctx context.Context, rel Release) (models.Content, bool, error) {
	info := ParseReleaseTitle(rel.Title)
	contentType := models.ContentTypeMovie
	if info.Series {
		contentType = models.ContentTypeSeries
	}

	if imdbID := strings.TrimSpace(rel.IMDBID); imdbID != "" {
		existing, err := im.repo.Get(ctx, imdbID)
		if err == nil {
			return *existing, false, nil
		}
		if !errors.Is(err, content.ErrNotFound) {
			return models.Content{}, false, err
		}
	}

	if existing, ok, err := im.findByTitle(ctx, info, contentType); err != nil {
		return models.Content{}, false, err
	} else if ok {
		return existing, false, nil
	}

	label := "Movie"
	if contentType == models.ContentTypeSeries {
		label = "Series"
	}
	item := models.Content{
		ID:          strings.TrimSpace(rel.IMDBID),
		IMDBID:      strings.TrimSpace(rel.IMDBID),
		Title:       info.Title,
		Type:        contentType,
		Poster:      rel.Poster,
		Description: fmt.Sprintf("Tamil %s - %s", label, info.Title),
		Year:        info.Year,
		Genres:      []string{"Tamil"},
		Channel:     rel.Channel,
		SourceURL:   rel.SourceURL,
	}
	if item.ID == "" {
		item.ID = "ts-" + uuid.NewString()
	}
	if err := im.repo.UpsertContent(ctx, item); err != nil {
		return models.Content{}, false, err
	}
	return item, true, nil
}

// findByTitle picks the closest existing title of the same type, requiring matching years
// when both sides know one.
func (im *Importer) findByTitle(ctx context.Context, info ReleaseInfo, contentType models.ContentType) (models.Content, bool, error) {
	candidates, err := im.repo.List(ctx, contentType)
	if err != nil {
		return models.Content{}, false, err
	}
	var (
		best      models.Content
		bestScore float64
	)
	for _, c := range candidates {
		if info.Year > 0 && c.Year > 0 && info.Year != c.Year {
			continue
		}
		score := textnorm.Similarity(c.Title, info.Title)
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore < titleMatchThreshold {
		return models.Content{}, false, nil
	}
	return best, true, nil
}

func buildTorrent(rel Release, hash string, item models.Content) models.Torrent {
	size, label := ParseSize(rel.Size)
	if label == "" {
		label = HumanSize(size)
	}
	source := strings.TrimSpace(rel.Source)
	if source == "" {
		source = "Unknown"
	}
	return models.Torrent{
		ID:           "torrent_" + hash[:8],
		ContentID:    item.ExternalID(),
		InfoHash:     hash,
		Title:        rel.Title,
		Size:         size,
		SizeReadable: label,
		Quality:      DetectQuality(rel.Title),
		Seeders:      rel.Seeders,
		Leechers:     rel.Leechers,
		Source:       source,
		Magnet:       strings.TrimSpace(rel.Magnet),
	}
}
