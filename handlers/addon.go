package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"tamilstream/config"
	"tamilstream/models"
	"tamilstream/services/content"
	"tamilstream/services/metadata"
	"tamilstream/services/streams"
)

type catalogStore interface {
	List(ctx context.Context, contentType models.ContentType) ([]models.Content, error)
	Get(ctx context.Context, id string) (*models.Content, error)
	Search(ctx context.Context, query string) ([]models.Content, error)
	UpdatePoster(ctx context.Context, id, posterURL string) error
}

type posterEnricher interface {
	EnsurePoster(ctx context.Context, store metadata.PosterWriter, item models.Content) string
	EnrichPosters(ctx context.Context, store metadata.PosterWriter, items []models.Content) []string
}

type streamAssembler interface {
	Assemble(ctx context.Context, rawID string, cfg models.UserConfig) []streams.Candidate
}

var (
	_ catalogStore    = (content.Repository)(nil)
	_ posterEnricher  = (*metadata.Service)(nil)
	_ streamAssembler = (*streams.Assembler)(nil)
)

const (
	movieCatalogID  = "tamilstream_movies"
	seriesCatalogID = "tamilstream_series"
)

// AddonHandler serves the media player addon protocol.
type AddonHandler struct {
	Addon    config.AddonSettings
	PageSize int
	Store    catalogStore
	Posters  posterEnricher
	Streams  streamAssembler
}

func NewAddonHandler(addon config.AddonSettings, pageSize int, catalog catalogStore, posters posterEnricher, assembler streamAssembler) *AddonHandler {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &AddonHandler{Addon: addon, PageSize: pageSize, Store: catalog, Posters: posters, Streams: assembler}
}

func (h *AddonHandler) manifest() models.Manifest {
	extra := []models.ExtraField{{Name: "search"}, {Name: "skip"}}
	return models.Manifest{
		ID:          h.Addon.ID,
		Version:     h.Addon.Version,
		Name:        h.Addon.Name,
		Description: h.Addon.Description,
		Logo:        h.Addon.Logo,
		Background:  h.Addon.Background,
		Resources:   []string{"catalog", "stream", "meta"},
		Types:       []models.ContentType{models.ContentTypeMovie, models.ContentTypeSeries},
		Catalogs: []models.ManifestCatalog{
			{ID: movieCatalogID, Type: models.ContentTypeMovie, Name: "Tamil Movies", Extra: extra},
			{ID: seriesCatalogID, Type: models.ContentTypeSeries, Name: "Tamil Series", Extra: extra},
		},
		IDPrefixes:    []string{"tt", "ts-"},
		BehaviorHints: &models.ManifestBehaviorHints{Configurable: true},
	}
}

// Manifest serves the addon descriptor. The configuration segment does not change it.
func (h *AddonHandler) Manifest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manifest())
}

func (h *AddonHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "version": h.Addon.Version})
}

// Catalog lists one page of content, optionally filtered by a title search. Search and
// skip come from the query string or from the path extras segment.
func (h *AddonHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	contentType := models.ParseContentType(vars["type"])
	params := catalogParams(r.URL.Query(), vars["extra"])
	search := strings.TrimSpace(params.Get("search"))
	skip := parseSkip(params.Get("skip"))

	ctx := r.Context()
	var (
		items []models.Content
		err   error
	)
	if search != "" {
		items, err = h.Store.Search(ctx, search)
		items = filterType(items, contentType)
	} else {
		items, err = h.Store.List(ctx, contentType)
	}
	if err != nil {
		log.Printf("[http] catalog %s: %v", contentType, err)
		items = nil
	}

	page := paginate(items, skip, h.PageSize)
	posters := make([]string, len(page))
	if h.Posters != nil {
		posters = h.Posters.EnrichPosters(ctx, h.Store, page)
	} else {
		for i, item := range page {
			posters[i] = item.Poster
		}
	}

	metas := make([]models.MetaPreview, 0, len(page))
	for i, item := range page {
		metas = append(metas, buildPreview(item, posters[i]))
	}
	writeJSON(w, http.StatusOK, models.CatalogResponse{Metas: metas})
}

// Meta returns the detail view of one title, or a null meta when it is unknown.
func (h *AddonHandler) Meta(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(mux.Vars(r)["id"], ".json")
	ctx := r.Context()

	item, err := h.Store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, content.ErrNotFound) {
			log.Printf("[http] meta %s: %v", id, err)
		}
		writeJSON(w, http.StatusOK, models.MetaResponse{Meta: nil})
		return
	}

	poster := item.Poster
	if h.Posters != nil {
		poster = h.Posters.EnsurePoster(ctx, h.Store, *item)
	}
	meta := &models.Meta{MetaPreview: buildPreview(*item, poster)}
	if item.Type == models.ContentTypeSeries && len(item.Videos) > 0 {
		meta.Videos = item.Videos
	}
	writeJSON(w, http.StatusOK, models.MetaResponse{Meta: meta})
}

// Stream returns the ranked, preference-filtered stream candidates for an id.
func (h *AddonHandler) Stream(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := strings.TrimSuffix(vars["id"], ".json")
	cfg := DecodeUserConfig(vars["config"])

	candidates := h.Streams.Assemble(r.Context(), id, cfg)
	candidates = streams.FilterByPreference(candidates, cfg)
	writeJSON(w, http.StatusOK, models.StreamsResponse{Streams: streams.Streams(candidates)})
}

// Options answers CORS preflight requests.
func (h *AddonHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
}

func catalogParams(query url.Values, extra string) url.Values {
	params := url.Values{}
	for k, v := range query {
		params[k] = v
	}
	if extra = strings.TrimSpace(extra); extra != "" {
		parsed, err := url.ParseQuery(extra)
		if err != nil {
			log.Printf("[http] ignoring catalog extras %q: %v", extra, err)
			return params
		}
		for k, v := range parsed {
			params[k] = v
		}
	}
	return params
}

func parseSkip(value string) int {
	skip, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || skip < 0 {
		return 0
	}
	return skip
}

func paginate(items []models.Content, skip, size int) []models.Content {
	if skip >= len(items) {
		return []models.Content{}
	}
	end := skip + size
	if end > len(items) {
		end = len(items)
	}
	return items[skip:end]
}

func filterType(items []models.Content, contentType models.ContentType) []models.Content {
	out := make([]models.Content, 0, len(items))
	for _, item := range items {
		if item.Type == contentType {
			out = append(out, item)
		}
	}
	return out
}

func buildPreview(item models.Content, poster string) models.MetaPreview {
	preview := models.MetaPreview{
		ID:          item.ExternalID(),
		Type:        item.Type,
		Name:        item.Title,
		Poster:      optional(poster),
		Background:  optional(item.Background),
		Description: item.Description,
		Genres:      item.Genres,
		Runtime:     optional(item.Runtime),
	}
	if preview.Background == nil {
		preview.Background = preview.Poster
	}
	if preview.Genres == nil {
		preview.Genres = []string{}
	}
	if item.Year > 0 {
		preview.ReleaseInfo = strconv.Itoa(item.Year)
	}
	if item.Rating > 0 {
		rating := strconv.FormatFloat(item.Rating, 'f', -1, 64)
		preview.IMDBRating = &rating
	}
	return preview
}

func optional(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[http] encode response: %v", err)
	}
}
