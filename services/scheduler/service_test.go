package scheduler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tamilstream/models"
	"tamilstream/services/content"
	"tamilstream/services/ingest"
)

const feedBody = `[{"title":"Leo 2023 1080p WEB-DL","magnet":"magnet:?xt=urn:btih:e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6","size":"4.0 GB","seeders":12}]`

type countingImporter struct {
	calls atomic.Int32
}

func (c *countingImporter) Import(_ context.Context, releases []ingest.Release) (ingest.Stats, error) {
	c.calls.Add(1)
	return ingest.Stats{NewTorrents: len(releases)}, nil
}

func staticSource(releases []ingest.Release, err error) FeedSource {
	return func(context.Context) ([]ingest.Release, error) { return releases, err }
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	importer := &countingImporter{}
	svc := NewService(importer, staticSource([]ingest.Release{{Title: "x"}}, nil), time.Hour)

	require.NoError(t, svc.Start(context.Background()))
	require.Eventually(t, func() bool { return importer.calls.Load() == 1 }, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.Stop(ctx))

	status := svc.Status()
	assert.Equal(t, StatusSuccess, status.LastStatus)
	assert.NotNil(t, status.LastRunAt)
	assert.Equal(t, 1, status.LastStats.NewTorrents)
}

func TestRunNowRecordsFailures(t *testing.T) {
	importer := &countingImporter{}
	svc := NewService(importer, staticSource(nil, errors.New("feed offline")), time.Hour)
	assert.Equal(t, StatusPending, svc.Status().LastStatus)

	require.NoError(t, svc.RunNow(context.Background()))
	require.Eventually(t, func() bool { return svc.Status().LastStatus == StatusError }, time.Second, 10*time.Millisecond)
	assert.Contains(t, svc.Status().LastError, "feed offline")
	assert.Zero(t, importer.calls.Load())
}

func TestShouldRunHonoursInterval(t *testing.T) {
	svc := NewService(&countingImporter{}, staticSource(nil, nil), time.Hour)
	assert.True(t, svc.shouldRun())

	svc.execute(context.Background())
	assert.False(t, svc.shouldRun())

	past := time.Now().Add(-2 * time.Hour)
	svc.status.LastRunAt = &past
	assert.True(t, svc.shouldRun())
}

func TestFileFeedSourceImportsIntoRepository(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/feeds/releases.json", []byte(feedBody), 0o644))

	repo := content.NewMemoryStore(nil, nil)
	svc := NewService(ingest.NewImporter(repo), NewFeedSource(fs, "/feeds/releases.json", nil), time.Hour)
	svc.execute(context.Background())

	status := svc.Status()
	require.Equal(t, StatusSuccess, status.LastStatus, status.LastError)
	assert.Equal(t, 1, status.LastStats.NewTorrents)

	movies, err := repo.List(context.Background(), models.ContentTypeMovie)
	require.NoError(t, err)
	require.Len(t, movies, 1)

	missing := NewFeedSource(fs, "/feeds/absent.json", nil)
	_, err = missing(context.Background())
	assert.Error(t, err)
}

func TestHTTPFeedSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/releases.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	releases, err := NewFeedSource(afero.NewMemMapFs(), srv.URL+"/releases.json", nil)(context.Background())
	require.NoError(t, err)
	require.Len(t, releases, 1)
	assert.Equal(t, 12, releases[0].Seeders)

	_, err = NewFeedSource(afero.NewMemMapFs(), srv.URL+"/missing.json", nil)(context.Background())
	assert.Error(t, err)
}
