package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tamilstream/config"
	"tamilstream/models"
	"tamilstream/services/content"
	"tamilstream/services/metadata"
	"tamilstream/services/streams"
)

type fakePosters struct {
	poster  string
	ensured []string
}

func (f *fakePosters) EnsurePoster(ctx context.Context, store metadata.PosterWriter, item models.Content) string {
	if item.Poster != "" {
		return item.Poster
	}
	f.ensured = append(f.ensured, item.ID)
	_ = store.UpdatePoster(ctx, item.ID, f.poster)
	return f.poster
}

func (f *fakePosters) EnrichPosters(ctx context.Context, store metadata.PosterWriter, items []models.Content) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, f.EnsurePoster(ctx, store, item))
	}
	return out
}

type fakeAssembler struct {
	candidates []streams.Candidate
	lastID     string
	lastConfig models.UserConfig
}

func (f *fakeAssembler) Assemble(_ context.Context, rawID string, cfg models.UserConfig) []streams.Candidate {
	f.lastID = rawID
	f.lastConfig = cfg
	return f.candidates
}

func newTestRouter(t *testing.T, h *AddonHandler) *mux.Router {
	t.Helper()
	r := mux.NewRouter()
	for _, prefix := range []string{"", "/{config}"} {
		r.HandleFunc(prefix+"/manifest.json", h.Manifest).Methods(http.MethodGet)
		r.HandleFunc(prefix+"/catalog/{type}/{id}.json", h.Catalog).Methods(http.MethodGet)
		r.HandleFunc(prefix+"/catalog/{type}/{id}/{extra}.json", h.Catalog).Methods(http.MethodGet)
		r.HandleFunc(prefix+"/meta/{type}/{id}.json", h.Meta).Methods(http.MethodGet)
		r.HandleFunc(prefix+"/stream/{type}/{id}.json", h.Stream).Methods(http.MethodGet)
	}
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	return r
}

func seededStore(t *testing.T) *content.MemoryStore {
	t.Helper()
	store := content.NewMemoryStore(nil, nil)
	_, err := content.Seed(context.Background(), store)
	require.NoError(t, err)
	return store
}

func get(t *testing.T, router http.Handler, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func TestManifest(t *testing.T) {
	addon := config.DefaultSettings().Addon
	h := NewAddonHandler(addon, 100, content.NewMemoryStore(nil, nil), nil, &fakeAssembler{})
	router := newTestRouter(t, h)

	for _, path := range []string{"/manifest.json", "/eyJ0b3Jib3hfYXBpX2tleSI6IngifQ/manifest.json"} {
		var m models.Manifest
		get(t, router, path, &m)
		assert.Equal(t, addon.ID, m.ID)
		assert.Equal(t, []string{"catalog", "stream", "meta"}, m.Resources)
		require.Len(t, m.Catalogs, 2)
		assert.Equal(t, "tamilstream_movies", m.Catalogs[0].ID)
		assert.Equal(t, models.ContentTypeSeries, m.Catalogs[1].Type)
		assert.True(t, m.BehaviorHints.Configurable)
	}
}

func TestHealth(t *testing.T) {
	addon := config.DefaultSettings().Addon
	router := newTestRouter(t, NewAddonHandler(addon, 100, content.NewMemoryStore(nil, nil), nil, &fakeAssembler{}))
	var body map[string]string
	get(t, router, "/health", &body)
	assert.Equal(t, map[string]string{"status": "healthy", "version": addon.Version}, body)
}

func TestCatalogListsByType(t *testing.T) {
	store := seededStore(t)
	router := newTestRouter(t, NewAddonHandler(config.DefaultSettings().Addon, 100, store, nil, &fakeAssembler{}))

	var movies models.CatalogResponse
	get(t, router, "/catalog/movie/tamilstream_movies.json", &movies)
	assert.Len(t, movies.Metas, len(content.SampleMovies))
	for _, m := range movies.Metas {
		assert.Equal(t, models.ContentTypeMovie, m.Type)
		assert.NotEmpty(t, m.ReleaseInfo)
		assert.NotNil(t, m.Genres)
	}

	var series models.CatalogResponse
	get(t, router, "/abc/catalog/series/tamilstream_series.json", &series)
	assert.Len(t, series.Metas, len(content.SampleSeries))

	var unknown models.CatalogResponse
	rec := get(t, router, "/catalog/anime/tamilstream_anime.json", &unknown)
	assert.Empty(t, unknown.Metas)
	assert.JSONEq(t, `{"metas":[]}`, rec.Body.String())
}

func TestCatalogSearchAndSkip(t *testing.T) {
	store := content.NewMemoryStore(nil, nil)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.UpsertContent(ctx, models.Content{
			ID: fmt.Sprintf("tt000000%d", i), Title: fmt.Sprintf("Kadhal %d", i), Type: models.ContentTypeMovie, Poster: "https://p",
		}))
	}
	require.NoError(t, store.UpsertContent(ctx, models.Content{ID: "tt0000009", Title: "Kadhal Series", Type: models.ContentTypeSeries}))
	router := newTestRouter(t, NewAddonHandler(config.DefaultSettings().Addon, 2, store, nil, &fakeAssembler{}))

	tests := []struct {
		path string
		ids  []string
	}{
		{"/catalog/movie/tamilstream_movies.json", []string{"tt0000000", "tt0000001"}},
		{"/catalog/movie/tamilstream_movies.json?skip=2", []string{"tt0000002", "tt0000003"}},
		{"/catalog/movie/tamilstream_movies/skip=4.json", []string{"tt0000004"}},
		{"/catalog/movie/tamilstream_movies.json?skip=-3", []string{"tt0000000", "tt0000001"}},
		{"/catalog/movie/tamilstream_movies.json?skip=oops", []string{"tt0000000", "tt0000001"}},
		{"/catalog/movie/tamilstream_movies.json?skip=40", []string{}},
		{"/catalog/movie/tamilstream_movies/search=kadhal%203.json", []string{"tt0000003"}},
		{"/catalog/series/tamilstream_series.json?search=KADHAL", []string{"tt0000009"}},
		{"/cfg/catalog/movie/tamilstream_movies/search=kadhal&skip=3.json", []string{"tt0000003", "tt0000004"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var resp models.CatalogResponse
			get(t, router, tt.path, &resp)
			ids := make([]string, 0, len(resp.Metas))
			for _, m := range resp.Metas {
				ids = append(ids, m.ID)
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestCatalogFillsMissingPosters(t *testing.T) {
	ctx := context.Background()
	store := content.NewMemoryStore([]models.Content{
		{ID: "tt1000001", Title: "No Poster", Type: models.ContentTypeMovie, Year: 2024, Rating: 7.5},
		{ID: "tt1000002", Title: "Has Poster", Type: models.ContentTypeMovie, Poster: "https://own.jpg", Background: "https://bg.jpg"},
	}, nil)
	posters := &fakePosters{poster: "https://fetched.jpg"}
	router := newTestRouter(t, NewAddonHandler(config.DefaultSettings().Addon, 100, store, posters, &fakeAssembler{}))

	var resp models.CatalogResponse
	get(t, router, "/catalog/movie/tamilstream_movies.json", &resp)
	require.Len(t, resp.Metas, 2)

	first := resp.Metas[0]
	require.NotNil(t, first.Poster)
	assert.Equal(t, "https://fetched.jpg", *first.Poster)
	assert.Equal(t, "https://fetched.jpg", *first.Background)
	assert.Equal(t, "2024", first.ReleaseInfo)
	require.NotNil(t, first.IMDBRating)
	assert.Equal(t, "7.5", *first.IMDBRating)
	assert.Nil(t, first.Runtime)

	second := resp.Metas[1]
	assert.Equal(t, "https://own.jpg", *second.Poster)
	assert.Equal(t, "https://bg.jpg", *second.Background)
	assert.Nil(t, second.IMDBRating)

	assert.Equal(t, []string{"tt1000001"}, posters.ensured)
	stored, err := store.Get(ctx, "tt1000001")
	require.NoError(t, err)
	assert.Equal(t, "https://fetched.jpg", stored.Poster)
}

func TestMeta(t *testing.T) {
	store := seededStore(t)
	router := newTestRouter(t, NewAddonHandler(config.DefaultSettings().Addon, 100, store, nil, &fakeAssembler{}))

	series := content.SampleSeries[0]
	var resp models.MetaResponse
	get(t, router, "/meta/series/"+series.ID+".json", &resp)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, series.Title, resp.Meta.Name)
	assert.Len(t, resp.Meta.Videos, len(series.Videos))

	movie := content.SampleMovies[0]
	resp = models.MetaResponse{}
	get(t, router, "/cfg/meta/movie/"+movie.ID+".json", &resp)
	require.NotNil(t, resp.Meta)
	assert.Empty(t, resp.Meta.Videos)

	rec := get(t, router, "/meta/movie/tt0000000.json", nil)
	assert.JSONEq(t, `{"meta":null}`, rec.Body.String())
}

func TestStreamDecodesConfigAndFilters(t *testing.T) {
	assembler := &fakeAssembler{candidates: []streams.Candidate{
		{Quality: models.QualityHDCAM, Stream: models.Stream{Name: "TamilStream", Title: "cam", InfoHash: "a"}},
		{Quality: models.Quality4K, Stream: models.Stream{Name: "TamilStream", Title: "4k", URL: "https://cdn/4k.mkv"}},
		{Quality: models.QualityHD, Stream: models.Stream{Name: "TamilStream", Title: "hd", InfoHash: "b"}},
	}}
	router := newTestRouter(t, NewAddonHandler(config.DefaultSettings().Addon, 100, content.NewMemoryStore(nil, nil), nil, assembler))

	segment, err := EncodeUserConfig(models.UserConfig{TorBoxAPIKey: "secret", QualityFilter: []string{"4K"}})
	require.NoError(t, err)

	var resp models.StreamsResponse
	get(t, router, "/"+segment+"/stream/series/tt123:1:5.json", &resp)
	assert.Equal(t, "tt123:1:5", assembler.lastID)
	assert.Equal(t, "secret", assembler.lastConfig.TorBoxAPIKey)
	require.Len(t, resp.Streams, 1)
	assert.Equal(t, "https://cdn/4k.mkv", resp.Streams[0].URL)

	resp = models.StreamsResponse{}
	get(t, router, "/stream/movie/tt123.json", &resp)
	assert.Empty(t, assembler.lastConfig.TorBoxAPIKey)
	assert.Len(t, resp.Streams, 2, "defaults drop cams only")
}

func TestStreamWithCorruptedConfigUsesDefaults(t *testing.T) {
	assembler := &fakeAssembler{}
	router := newTestRouter(t, NewAddonHandler(config.DefaultSettings().Addon, 100, content.NewMemoryStore(nil, nil), nil, assembler))

	for _, segment := range []string{"not*base64!", "bm90IGpzb24", "e30"} {
		assembler.lastConfig = models.UserConfig{}
		rec := get(t, router, "/"+segment+"/stream/movie/tt123.json", nil)
		assert.JSONEq(t, `{"streams":[]}`, rec.Body.String())
		assert.Equal(t, models.DefaultUserConfig(), assembler.lastConfig, segment)
	}
}

func TestStreamWithRealAssembler(t *testing.T) {
	store := seededStore(t)
	assembler := streams.NewAssembler(store, nil, streams.Options{AddonName: "TamilStream"})
	router := newTestRouter(t, NewAddonHandler(config.DefaultSettings().Addon, 100, store, nil, assembler))

	torrent := content.SampleTorrents[0]
	var resp models.StreamsResponse
	get(t, router, "/stream/movie/"+torrent.ContentID+".json", &resp)
	require.NotEmpty(t, resp.Streams)
	for _, s := range resp.Streams {
		assert.Empty(t, s.URL)
		assert.NotEmpty(t, s.InfoHash)
		assert.Equal(t, "TamilStream", s.Name)
	}
}
