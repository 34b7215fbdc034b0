package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"tamilstream/config"
)

const (
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"
	tmdbPosterSize   = "w500"
)

type tmdbClient struct {
	apiKey  string
	baseURL string
	timeout time.Duration
	httpc   *http.Client

	// Rate limiting
	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

func newTMDBClient(apiKey, baseURL string, timeout time.Duration, httpc *http.Client) *tmdbClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = config.DefaultTMDBBaseURL
	}
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &tmdbClient{
		apiKey:      strings.TrimSpace(apiKey),
		baseURL:     strings.TrimRight(baseURL, "/"),
		timeout:     timeout,
		httpc:       httpc,
		minInterval: 20 * time.Millisecond,
	}
}

// doGET performs one rate-limited HTTP GET bounded by the client timeout.
func (c *tmdbClient) doGET(ctx context.Context, endpoint string, v any) error {
	c.throttleMu.Lock()
	since := time.Since(c.lastRequest)
	if since < c.minInterval {
		time.Sleep(c.minInterval - since)
	}
	c.lastRequest = time.Now()
	c.throttleMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("tmdb request failed: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func (c *tmdbClient) isConfigured() bool {
	return c != nil && c.apiKey != ""
}

type tmdbFindResult struct {
	PosterPath   string `json:"poster_path"`
	BackdropPath string `json:"backdrop_path"`
}

type tmdbFindResponse struct {
	MovieResults []tmdbFindResult `json:"movie_results"`
	TVResults    []tmdbFindResult `json:"tv_results"`
}

// findPoster looks the IMDb id up through /find, preferring the movie match.
func (c *tmdbClient) findPoster(ctx context.Context, imdbID string) (string, error) {
	if !c.isConfigured() {
		return "", nil
	}
	endpoint := fmt.Sprintf("%s/find/%s?%s", c.baseURL, url.PathEscape(imdbID),
		url.Values{"api_key": {c.apiKey}, "external_source": {"imdb_id"}}.Encode())

	var body tmdbFindResponse
	if err := c.doGET(ctx, endpoint, &body); err != nil {
		return "", fmt.Errorf("tmdb find %s: %w", imdbID, err)
	}

	var result *tmdbFindResult
	switch {
	case len(body.MovieResults) > 0:
		result = &body.MovieResults[0]
	case len(body.TVResults) > 0:
		result = &body.TVResults[0]
	}
	if result == nil || strings.TrimSpace(result.PosterPath) == "" {
		return "", nil
	}
	return buildTMDBImage(result.PosterPath, tmdbPosterSize), nil
}

func buildTMDBImage(imagePath, size string) string {
	if !strings.HasPrefix(imagePath, "/") {
		imagePath = "/" + imagePath
	}
	return fmt.Sprintf("%s/%s%s", tmdbImageBaseURL, size, imagePath)
}
