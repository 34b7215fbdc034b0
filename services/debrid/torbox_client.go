package debrid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tamilstream/config"
)

// TorBoxClient talks to the TorBox v1 API with a user's bearer token.
type TorBoxClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	timeouts   Timeouts
}

// Ensure TorBoxClient implements Resolver interface.
var _ Resolver = (*TorBoxClient)(nil)

// NewTorBoxClient creates a TorBox client. baseURL defaults to the public API.
func NewTorBoxClient(apiKey, baseURL string, timeouts Timeouts) *TorBoxClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = config.DefaultTorBoxBaseURL
	}
	return &TorBoxClient{
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
		timeouts:   timeouts,
	}
}

func init() {
	RegisterProvider("torbox", func(apiKey string, settings config.DebridSettings) Resolver {
		return NewTorBoxClient(apiKey, settings.TorBoxBaseURL, TimeoutsFromSettings(settings))
	})
}

// Name returns the provider identifier.
func (c *TorBoxClient) Name() string {
	return "torbox"
}

var errTorBoxNoKey = errors.New("torbox API key not configured")

// torBoxResponse is the envelope every TorBox endpoint replies with.
type torBoxResponse[T any] struct {
	Success *bool  `json:"success"`
	Error   any    `json:"error"`
	Detail  string `json:"detail"`
	Data    T      `json:"data"`
}

// flexID accepts identifiers sent either as JSON numbers or strings.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("identifier is neither string nor number: %s", string(b))
	}
	*f = flexID(n.String())
	return nil
}

type torBoxCreated struct {
	TorrentID flexID `json:"torrent_id"`
	ID        flexID `json:"id"`
	Hash      string `json:"hash"`
}

type torBoxFile struct {
	ID        flexID `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	Size      int64  `json:"size"`
}

type torBoxTorrent struct {
	ID    flexID       `json:"id"`
	Name  string       `json:"name"`
	Hash  string       `json:"hash"`
	Files []torBoxFile `json:"files"`
}

// do performs an authenticated request bounded by timeout and decodes the envelope into out.
func (c *TorBoxClient) do(ctx context.Context, timeout time.Duration, method, path string, query url.Values, body any, out any) error {
	if c.apiKey == "" {
		return errTorBoxNoKey
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("torbox authentication failed: invalid API key")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, truncate(string(raw), 200))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func envelopeError[T any](path string, r torBoxResponse[T]) error {
	// an envelope without the flag is judged by its data alone
	if r.Success == nil || *r.Success {
		return nil
	}
	msg := r.Detail
	if msg == "" && r.Error != nil {
		msg = fmt.Sprint(r.Error)
	}
	if msg == "" {
		msg = "unknown error"
	}
	return fmt.Errorf("%s failed: %s", path, msg)
}

func (c *TorBoxClient) checkCached(ctx context.Context, infoHash string) (bool, error) {
	hash := strings.ToLower(strings.TrimSpace(infoHash))
	if hash == "" {
		return false, fmt.Errorf("info hash is required")
	}

	var result torBoxResponse[map[string]json.RawMessage]
	query := url.Values{"hash": {hash}}
	if err := c.do(ctx, c.timeouts.Check, http.MethodGet, "/api/torrents/checkcached", query, nil, &result); err != nil {
		return false, err
	}
	if err := envelopeError("/api/torrents/checkcached", result); err != nil {
		return false, err
	}

	for key, value := range result.Data {
		if !strings.EqualFold(key, hash) {
			continue
		}
		switch v := strings.TrimSpace(string(value)); {
		case v == "true":
			return true, nil
		case v == "false", v == "null", v == "":
			return false, nil
		default:
			// newer API revisions return the cached torrent's summary instead of a bool
			return strings.HasPrefix(v, "{"), nil
		}
	}
	return false, nil
}

// IsCached reports whether TorBox has the torrent cached.
func (c *TorBoxClient) IsCached(ctx context.Context, infoHash string) bool {
	cached, err := c.checkCached(ctx, infoHash)
	if err != nil {
		log.Printf("[torbox] cache check for %s failed: %v", infoHash, err)
		return false
	}
	return cached
}

func (c *TorBoxClient) createTorrent(ctx context.Context, magnet, name string) (string, error) {
	magnet = strings.TrimSpace(magnet)
	if magnet == "" {
		return "", fmt.Errorf("magnet URL is required")
	}
	payload := map[string]string{"magnet": magnet}
	if strings.TrimSpace(name) != "" {
		payload["name"] = name
	}

	var result torBoxResponse[*torBoxCreated]
	if err := c.do(ctx, c.timeouts.Register, http.MethodPost, "/api/torrents/createtorrent", nil, payload, &result); err != nil {
		return "", err
	}
	if err := envelopeError("/api/torrents/createtorrent", result); err != nil {
		return "", err
	}
	if result.Data == nil {
		return "", fmt.Errorf("createtorrent returned no data")
	}
	handle := string(result.Data.TorrentID)
	if handle == "" {
		handle = string(result.Data.ID)
	}
	if handle == "" {
		return "", fmt.Errorf("createtorrent returned no torrent id")
	}
	log.Printf("[torbox] magnet registered: id=%s hash=%s", handle, result.Data.Hash)
	return handle, nil
}

// RegisterMagnet adds the magnet to the account and returns TorBox's torrent id.
func (c *TorBoxClient) RegisterMagnet(ctx context.Context, magnet, name string) (string, bool) {
	handle, err := c.createTorrent(ctx, magnet, name)
	if err != nil {
		log.Printf("[torbox] register magnet failed: %v", err)
		return "", false
	}
	return handle, true
}

func (c *TorBoxClient) torrentInfo(ctx context.Context, handle string) (*Job, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, fmt.Errorf("torrent ID is required")
	}

	var result torBoxResponse[json.RawMessage]
	query := url.Values{"id": {handle}}
	if err := c.do(ctx, c.timeouts.List, http.MethodGet, "/api/torrents/mylist", query, nil, &result); err != nil {
		return nil, err
	}
	if err := envelopeError("/api/torrents/mylist", result); err != nil {
		return nil, err
	}

	// a single id usually yields an object, but some deployments return a one-element list
	data := bytes.TrimSpace(result.Data)
	var torrent torBoxTorrent
	switch {
	case len(data) == 0 || string(data) == "null":
		return nil, fmt.Errorf("torrent %s not found", handle)
	case data[0] == '[':
		var list []torBoxTorrent
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("decode torrent list: %w", err)
		}
		if len(list) == 0 {
			return nil, fmt.Errorf("torrent %s not found", handle)
		}
		torrent = list[0]
	default:
		if err := json.Unmarshal(data, &torrent); err != nil {
			return nil, fmt.Errorf("decode torrent: %w", err)
		}
	}

	job := &Job{
		ID:    string(torrent.ID),
		Name:  torrent.Name,
		Hash:  strings.ToLower(torrent.Hash),
		Files: make([]JobFile, 0, len(torrent.Files)),
	}
	if job.ID == "" {
		job.ID = handle
	}
	for _, f := range torrent.Files {
		name := f.Name
		if name == "" {
			name = f.ShortName
		}
		job.Files = append(job.Files, JobFile{ID: string(f.ID), Name: name, Size: f.Size})
	}
	return job, nil
}

// JobInfo returns the torrent and its file listing.
func (c *TorBoxClient) JobInfo(ctx context.Context, handle string) (*Job, bool) {
	job, err := c.torrentInfo(ctx, handle)
	if err != nil {
		log.Printf("[torbox] torrent info for %s failed: %v", handle, err)
		return nil, false
	}
	return job, true
}

func (c *TorBoxClient) requestDownload(ctx context.Context, handle, fileID string) (string, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return "", fmt.Errorf("torrent ID is required")
	}
	query := url.Values{
		"token":      {c.apiKey},
		"torrent_id": {handle},
	}
	if strings.TrimSpace(fileID) != "" {
		query.Set("file_id", fileID)
	}

	var result torBoxResponse[string]
	if err := c.do(ctx, c.timeouts.Link, http.MethodGet, "/api/torrents/requestdl", query, nil, &result); err != nil {
		return "", err
	}
	if err := envelopeError("/api/torrents/requestdl", result); err != nil {
		return "", err
	}
	link := strings.TrimSpace(result.Data)
	if link == "" {
		return "", fmt.Errorf("requestdl returned an empty link")
	}
	return link, nil
}

// DownloadLink resolves one file of a torrent into a direct URL.
func (c *TorBoxClient) DownloadLink(ctx context.Context, handle, fileID string) (string, bool) {
	link, err := c.requestDownload(ctx, handle, fileID)
	if err != nil {
		log.Printf("[torbox] download link for %s/%s failed: %v", handle, fileID, err)
		return "", false
	}
	return link, true
}

// VerifyKey reports whether the credential is accepted by the account endpoint.
func (c *TorBoxClient) VerifyKey(ctx context.Context) bool {
	if err := c.do(ctx, c.timeouts.Check, http.MethodGet, "/api/user/me", nil, nil, nil); err != nil {
		log.Printf("[torbox] key verification failed: %v", err)
		return false
	}
	return true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
