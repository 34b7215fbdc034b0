package streams

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sourcegraph/conc/iter"

	"tamilstream/internal/mediaresolve"
	"tamilstream/models"
	"tamilstream/services/content"
	"tamilstream/services/debrid"
)

const (
	cachedMarker     = "[CACHED] "
	bingeGroupPrefix = "tamilstream-"
)

// Catalog is the part of the content repository the assembler reads.
type Catalog interface {
	Get(ctx context.Context, id string) (*models.Content, error)
	TorrentsFor(ctx context.Context, contentID string) ([]models.Torrent, error)
}

// ResolverFactory returns a debrid resolver bound to one user's credential.
type ResolverFactory func(provider, apiKey string) debrid.Resolver

// Candidate is a stream offered to the player together with the facts it is ranked by.
type Candidate struct {
	Stream  models.Stream
	Quality models.Quality
	Cached  bool
}

// Resolved reports whether the candidate carries a direct URL.
func (c Candidate) Resolved() bool {
	return c.Stream.URL != ""
}

type Options struct {
	AddonName      string
	MaxConcurrency int
}

// Assembler turns the torrents known for a title into ranked stream candidates,
// upgrading them to direct links through the user's debrid account when possible.
type Assembler struct {
	catalog   Catalog
	resolvers ResolverFactory
	opts      Options
}

func NewAssembler(catalog Catalog, resolvers ResolverFactory, opts Options) *Assembler {
	if strings.TrimSpace(opts.AddonName) == "" {
		opts.AddonName = "TamilStream"
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 1
	}
	return &Assembler{catalog: catalog, resolvers: resolvers, opts: opts}
}

// Assemble builds the candidate list for rawID. It never fails: repository errors and
// debrid failures shrink or downgrade the result instead.
func (a *Assembler) Assemble(ctx context.Context, rawID string, cfg models.UserConfig) []Candidate {
	req := ParseRequestID(rawID)
	torrents := a.torrentsFor(ctx, req.BaseID)
	if len(torrents) == 0 {
		return []Candidate{}
	}

	var resolver debrid.Resolver
	if apiKey := strings.TrimSpace(cfg.TorBoxAPIKey); apiKey != "" && a.resolvers != nil {
		resolver = a.resolvers(cfg.DebridProvider, apiKey)
	}

	mapper := iter.Mapper[models.Torrent, *Candidate]{MaxGoroutines: a.opts.MaxConcurrency}
	built := mapper.Map(torrents, func(t *models.Torrent) *Candidate {
		return a.buildCandidate(ctx, *t, req, resolver)
	})

	candidates := make([]Candidate, 0, len(built))
	for _, c := range built {
		if c != nil {
			candidates = append(candidates, *c)
		}
	}
	Rank(candidates)
	return candidates
}

// torrentsFor looks torrents up by the requested id, then by the content's other
// identifier when records were keyed inconsistently.
func (a *Assembler) torrentsFor(ctx context.Context, baseID string) []models.Torrent {
	if baseID == "" {
		return nil
	}
	torrents, err := a.catalog.TorrentsFor(ctx, baseID)
	if err != nil {
		log.Printf("[streams] torrents for %s: %v", baseID, err)
	}
	if len(torrents) > 0 {
		return torrents
	}

	item, err := a.catalog.Get(ctx, baseID)
	if err != nil {
		if !errors.Is(err, content.ErrNotFound) {
			log.Printf("[streams] resolve %s: %v", baseID, err)
		}
		return nil
	}
	for _, alt := range []string{item.ExternalID(), item.ID} {
		if alt == "" || alt == baseID {
			continue
		}
		torrents, err = a.catalog.TorrentsFor(ctx, alt)
		if err != nil {
			log.Printf("[streams] torrents for %s: %v", alt, err)
			continue
		}
		if len(torrents) > 0 {
			return torrents
		}
	}
	return nil
}

func (a *Assembler) buildCandidate(ctx context.Context, t models.Torrent, req Request, resolver debrid.Resolver) *Candidate {
	hash := models.NormalizeInfoHash(t.InfoHash)
	if hash == "" {
		return nil
	}

	quality := t.Quality
	if quality == "" {
		quality = models.QualityUnknown
	}
	title := a.title(t, quality)
	c := &Candidate{
		Quality: quality,
		Stream: models.Stream{
			Name:     a.opts.AddonName,
			Title:    title,
			InfoHash: hash,
			BehaviorHints: models.StreamBehaviorHints{
				BingeGroup:  bingeGroupPrefix + quality.String(),
				NotWebReady: true,
			},
		},
	}

	if resolver == nil || strings.TrimSpace(t.Magnet) == "" {
		return c
	}
	if !resolver.IsCached(ctx, hash) {
		return c
	}
	c.Cached = true
	c.Stream.Title = cachedMarker + title

	link, ok := a.resolveLink(ctx, resolver, t, req)
	if !ok {
		return c
	}
	c.Stream.URL = link
	c.Stream.InfoHash = ""
	c.Stream.BehaviorHints.NotWebReady = false
	return c
}

// resolveLink registers the magnet, picks the file to play and asks for its URL. Without
// a usable listing the provider's default file is requested.
func (a *Assembler) resolveLink(ctx context.Context, resolver debrid.Resolver, t models.Torrent, req Request) (string, bool) {
	handle, ok := resolver.RegisterMagnet(ctx, t.Magnet, t.Title)
	if !ok || handle == "" {
		return "", false
	}

	fileID := ""
	if job, ok := resolver.JobInfo(ctx, handle); ok && job != nil {
		if file, ok := mediaresolve.SelectFile(job.Files, req.Episode); ok {
			fileID = file.ID
		}
	}

	link, ok := resolver.DownloadLink(ctx, handle, fileID)
	if !ok || link == "" {
		return "", false
	}
	return link, true
}

func (a *Assembler) title(t models.Torrent, quality models.Quality) string {
	size := strings.TrimSpace(t.SizeReadable)
	if size == "" {
		if t.Size > 0 {
			size = humanize.IBytes(uint64(t.Size))
		} else {
			size = "Unknown"
		}
	}
	source := strings.TrimSpace(t.Source)
	if source == "" {
		source = "Unknown"
	}
	return fmt.Sprintf("%s | %s\n%s | %d seeders\nSource: %s", a.opts.AddonName, quality, size, t.Seeders, source)
}

// Rank orders candidates: direct links first, then cached, then by quality. Equal keys
// keep their input order.
func Rank(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		ki, kj := sortKey(candidates[i]), sortKey(candidates[j])
		for n := range ki {
			if ki[n] != kj[n] {
				return ki[n] < kj[n]
			}
		}
		return false
	})
}

func sortKey(c Candidate) [3]int {
	key := [3]int{1, 1, c.Quality.Rank()}
	if c.Resolved() {
		key[0] = 0
	}
	if c.Cached {
		key[1] = 0
	}
	return key
}

// Streams strips the ranking facts for the wire.
func Streams(candidates []Candidate) []models.Stream {
	out := make([]models.Stream, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Stream)
	}
	return out
}
