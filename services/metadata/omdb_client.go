package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tamilstream/config"
)

type omdbClient struct {
	apiKey  string
	baseURL string
	timeout time.Duration
	httpc   *http.Client
}

func newOMDBClient(apiKey, baseURL string, timeout time.Duration, httpc *http.Client) *omdbClient {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		apiKey = config.DefaultOMDBAPIKey
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = config.DefaultOMDBBaseURL
	}
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &omdbClient{apiKey: apiKey, baseURL: baseURL, timeout: timeout, httpc: httpc}
}

type omdbTitleResponse struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
	Title    string `json:"Title"`
	Year     string `json:"Year"`
	Poster   string `json:"Poster"`
	Plot     string `json:"Plot"`
	Rating   string `json:"imdbRating"`
	Genre    string `json:"Genre"`
	Runtime  string `json:"Runtime"`
}

// poster returns the title's poster URL. An empty string with a nil error means OMDb
// answered but has no usable poster.
func (c *omdbClient) poster(ctx context.Context, imdbID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + "?" + url.Values{"i": {imdbID}, "apikey": {c.apiKey}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "TamilStream/1.0")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("omdb request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("omdb request failed: %s", resp.Status)
	}

	var body omdbTitleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode omdb response: %w", err)
	}
	if body.Response != "True" {
		return "", nil
	}
	poster := strings.TrimSpace(body.Poster)
	if poster == "" || poster == "N/A" {
		return "", nil
	}
	return poster, nil
}
