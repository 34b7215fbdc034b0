package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tamilstream/config"
	"tamilstream/models"
)

type recordingWriter struct {
	mu      sync.Mutex
	updates map[string]string
	err     error
}

func (w *recordingWriter) UpdatePoster(_ context.Context, id, posterURL string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.updates == nil {
		w.updates = map[string]string{}
	}
	w.updates[id] = posterURL
	return w.err
}

func newTestService(t *testing.T, omdb, tmdb http.HandlerFunc, tmdbKey string) *Service {
	t.Helper()
	settings := config.MetadataSettings{
		OMDBAPIKey:      "test",
		TMDBAPIKey:      tmdbKey,
		TimeoutSeconds:  2,
		CacheTTLMinutes: 60,
		CacheSizeMB:     1,
	}
	if omdb != nil {
		srv := httptest.NewServer(omdb)
		t.Cleanup(srv.Close)
		settings.OMDBBaseURL = srv.URL
	}
	if tmdb != nil {
		srv := httptest.NewServer(tmdb)
		t.Cleanup(srv.Close)
		settings.TMDBBaseURL = srv.URL
	}
	return NewService(settings, nil)
}

func TestFetchPosterPrefersOMDB(t *testing.T) {
	var tmdbCalls atomic.Int32
	svc := newTestService(t,
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "tt1234567", r.URL.Query().Get("i"))
			assert.Equal(t, "test", r.URL.Query().Get("apikey"))
			_, _ = w.Write([]byte(`{"Response":"True","Poster":"https://img.omdb.example/p.jpg"}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			tmdbCalls.Add(1)
			_, _ = w.Write([]byte(`{}`))
		}, "key")

	poster, ok := svc.FetchPoster(context.Background(), "tt1234567")
	require.True(t, ok)
	assert.Equal(t, "https://img.omdb.example/p.jpg", poster)
	assert.Zero(t, tmdbCalls.Load())
}

func TestFetchPosterFallsBackToTMDB(t *testing.T) {
	tests := []struct {
		name string
		omdb http.HandlerFunc
	}{
		{"poster not available", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"Response":"True","Poster":"N/A"}`))
		}},
		{"title unknown", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"Response":"False","Error":"Incorrect IMDb ID."}`))
		}},
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, tt.omdb, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/find/tt7654321", r.URL.Path)
				assert.Equal(t, "imdb_id", r.URL.Query().Get("external_source"))
				_, _ = w.Write([]byte(`{"movie_results":[],"tv_results":[{"poster_path":"/series.jpg"}]}`))
			}, "key")

			poster, ok := svc.FetchPoster(context.Background(), "tt7654321")
			require.True(t, ok)
			assert.Equal(t, "https://image.tmdb.org/t/p/w500/series.jpg", poster)
		})
	}
}

func TestFetchPosterSkipsTMDBWithoutKey(t *testing.T) {
	var tmdbCalls atomic.Int32
	svc := newTestService(t,
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"Response":"False"}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			tmdbCalls.Add(1)
		}, "")

	_, ok := svc.FetchPoster(context.Background(), "tt0000001")
	assert.False(t, ok)
	assert.Zero(t, tmdbCalls.Load())
}

func TestFetchPosterIgnoresNonIMDBIDs(t *testing.T) {
	var calls atomic.Int32
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}, nil, "")

	for _, id := range []string{"", "movie_1", "ts-123", "123"} {
		_, ok := svc.FetchPoster(context.Background(), id)
		assert.False(t, ok, id)
	}
	assert.Zero(t, calls.Load())
}

func TestFetchPosterCachesHitsAndMisses(t *testing.T) {
	var calls atomic.Int32
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("i") == "tt1111111" {
			_, _ = w.Write([]byte(`{"Response":"True","Poster":"https://img.omdb.example/hit.jpg"}`))
			return
		}
		_, _ = w.Write([]byte(`{"Response":"False"}`))
	}, nil, "")

	for i := 0; i < 3; i++ {
		poster, ok := svc.FetchPoster(context.Background(), "tt1111111")
		require.True(t, ok)
		assert.Equal(t, "https://img.omdb.example/hit.jpg", poster)
		_, ok = svc.FetchPoster(context.Background(), "tt2222222")
		assert.False(t, ok)
	}
	assert.EqualValues(t, 2, calls.Load())
}

func TestEnsurePoster(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Response":"True","Poster":"https://img.omdb.example/` + r.URL.Query().Get("i") + `.jpg"}`))
	}, nil, "")

	t.Run("existing poster untouched", func(t *testing.T) {
		store := &recordingWriter{}
		got := svc.EnsurePoster(context.Background(), store, models.Content{ID: "tt1", Poster: "https://existing.jpg"})
		assert.Equal(t, "https://existing.jpg", got)
		assert.Empty(t, store.updates)
	})

	t.Run("imdb id used when id is internal", func(t *testing.T) {
		store := &recordingWriter{}
		got := svc.EnsurePoster(context.Background(), store, models.Content{ID: "ts-9", IMDBID: "tt9000009"})
		assert.Equal(t, "https://img.omdb.example/tt9000009.jpg", got)
		assert.Equal(t, map[string]string{"ts-9": got}, store.updates)
	})

	t.Run("write failure still returns poster", func(t *testing.T) {
		store := &recordingWriter{err: errors.New("read only")}
		got := svc.EnsurePoster(context.Background(), store, models.Content{ID: "tt8000008"})
		assert.Equal(t, "https://img.omdb.example/tt8000008.jpg", got)
	})

	t.Run("no lookup for internal ids", func(t *testing.T) {
		store := &recordingWriter{}
		assert.Empty(t, svc.EnsurePoster(context.Background(), store, models.Content{ID: "movie_1"}))
		assert.Empty(t, store.updates)
	})
}

func TestEnrichPostersKeepsOrder(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Response":"True","Poster":"https://img.omdb.example/` + r.URL.Query().Get("i") + `.jpg"}`))
	}, nil, "")

	items := []models.Content{
		{ID: "tt0000003"},
		{ID: "local", Poster: "https://local.jpg"},
		{ID: "tt0000001"},
		{ID: "movie_x"},
	}
	store := &recordingWriter{}
	got := svc.EnrichPosters(context.Background(), store, items)
	assert.Equal(t, []string{
		"https://img.omdb.example/tt0000003.jpg",
		"https://local.jpg",
		"https://img.omdb.example/tt0000001.jpg",
		"",
	}, got)
	assert.Len(t, store.updates, 2)
}

func TestFetchPosterSharedLookupSurvivesCallerCancel(t *testing.T) {
	requested := make(chan struct{}, 1)
	release := make(chan struct{})
	var calls atomic.Int32
	svc := newTestService(t,
		func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			requested <- struct{}{}
			<-release
			_, _ = w.Write([]byte(`{"Response":"True","Poster":"https://img.omdb.example/shared.jpg"}`))
		}, nil, "")

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstDone := make(chan bool, 1)
	go func() {
		_, ok := svc.FetchPoster(firstCtx, "tt7654321")
		firstDone <- ok
	}()
	<-requested

	type result struct {
		poster string
		ok     bool
	}
	secondDone := make(chan result, 1)
	go func() {
		poster, ok := svc.FetchPoster(context.Background(), "tt7654321")
		secondDone <- result{poster, ok}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	assert.False(t, <-firstDone)
	close(release)

	second := <-secondDone
	assert.True(t, second.ok)
	assert.Equal(t, "https://img.omdb.example/shared.jpg", second.poster)
	assert.Equal(t, int32(1), calls.Load())

	poster, ok := svc.FetchPoster(context.Background(), "tt7654321")
	assert.True(t, ok)
	assert.Equal(t, "https://img.omdb.example/shared.jpg", poster)
	assert.Equal(t, int32(1), calls.Load())
}

func TestServiceString(t *testing.T) {
	assert.Equal(t, "metadata(omdb, tmdb=false, entries=0)", newTestService(t, nil, nil, "").String())
	assert.Contains(t, newTestService(t, nil, nil, "key").String(), "tmdb=true")
}
