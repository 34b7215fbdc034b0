package debrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tamilstream/config"
)

// AllDebridClient handles API interactions with AllDebrid service.
// It implements the Resolver interface.
type AllDebridClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	agent      string
	timeouts   Timeouts
}

// Ensure AllDebridClient implements Resolver interface.
var _ Resolver = (*AllDebridClient)(nil)

// NewAllDebridClient creates a new AllDebrid API client. baseURL is the API root
// without a version segment.
func NewAllDebridClient(apiKey, baseURL string, timeouts Timeouts) *AllDebridClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = config.DefaultAllDebridBaseURL
	}
	return &AllDebridClient{
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
		agent:      "tamilstream",
		timeouts:   timeouts,
	}
}

// Name returns the provider identifier.
func (c *AllDebridClient) Name() string {
	return "alldebrid"
}

func init() {
	RegisterProvider("alldebrid", func(apiKey string, settings config.DebridSettings) Resolver {
		return NewAllDebridClient(apiKey, settings.AllDebridBaseURL, TimeoutsFromSettings(settings))
	})
}

// allDebridResponse is the generic API response wrapper.
type allDebridResponse[T any] struct {
	Status string `json:"status"` // "success" or "error"
	Data   T      `json:"data,omitempty"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (r allDebridResponse[T]) err(op string) error {
	if r.Status == "success" {
		return nil
	}
	msg := "unknown error"
	if r.Error != nil {
		msg = r.Error.Message
	}
	return fmt.Errorf("%s failed: %s", op, msg)
}

type allDebridMagnetUploadData struct {
	Magnets []struct {
		ID    int    `json:"id"`
		Hash  string `json:"hash"`
		Name  string `json:"name"`
		Ready bool   `json:"ready"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error,omitempty"`
	} `json:"magnets"`
}

type allDebridInstantData struct {
	Magnets []struct {
		Hash    string `json:"hash"`
		Instant bool   `json:"instant"`
	} `json:"magnets"`
}

// allDebridStatus is one magnet of the v4.1 status reply.
type allDebridStatus struct {
	ID       int                 `json:"id"`
	Filename string              `json:"filename"`
	Hash     string              `json:"hash"`
	Files    []allDebridFileNode `json:"files"`
}

// allDebridFileNode represents a file or directory in the v4.1 nested tree structure.
type allDebridFileNode struct {
	N string              `json:"n"`           // name
	S int64               `json:"s,omitempty"` // size (for files)
	L string              `json:"l,omitempty"` // link (for files)
	E []allDebridFileNode `json:"e,omitempty"` // entries (for directories)
}

type allDebridStatusData struct {
	Magnets json.RawMessage `json:"magnets"`
}

type allDebridUnlock struct {
	Link    string `json:"link"`
	Delayed int    `json:"delayed,omitempty"`
}

func (c *AllDebridClient) call(ctx context.Context, timeout time.Duration, method, path string, params url.Values, out any) error {
	if c.apiKey == "" {
		return fmt.Errorf("alldebrid API key not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if params == nil {
		params = url.Values{}
	}
	params.Set("agent", c.agent)

	endpoint := c.baseURL + path
	var body io.Reader
	if method == http.MethodGet {
		endpoint += "?" + params.Encode()
	} else {
		body = strings.NewReader(params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("alldebrid authentication failed: invalid API key")
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, truncate(string(raw), 200))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// IsCached checks instant availability of a hash.
func (c *AllDebridClient) IsCached(ctx context.Context, infoHash string) bool {
	hash := strings.ToLower(strings.TrimSpace(infoHash))
	if hash == "" {
		return false
	}
	var result allDebridResponse[allDebridInstantData]
	if err := c.call(ctx, c.timeouts.Check, http.MethodGet, "/v4/magnet/instant", url.Values{"magnets[]": {hash}}, &result); err != nil {
		log.Printf("[alldebrid] instant availability for %s failed: %v", hash, err)
		return false
	}
	if err := result.err("instant availability"); err != nil {
		log.Printf("[alldebrid] %v", err)
		return false
	}
	for _, magnet := range result.Data.Magnets {
		if strings.EqualFold(magnet.Hash, hash) && magnet.Instant {
			return true
		}
	}
	return false
}

// RegisterMagnet uploads the magnet; AllDebrid ignores the display name.
func (c *AllDebridClient) RegisterMagnet(ctx context.Context, magnet, _ string) (string, bool) {
	magnet = strings.TrimSpace(magnet)
	if magnet == "" {
		return "", false
	}
	var result allDebridResponse[allDebridMagnetUploadData]
	if err := c.call(ctx, c.timeouts.Register, http.MethodPost, "/v4/magnet/upload", url.Values{"magnets[]": {magnet}}, &result); err != nil {
		log.Printf("[alldebrid] magnet upload failed: %v", err)
		return "", false
	}
	if err := result.err("magnet upload"); err != nil {
		log.Printf("[alldebrid] %v", err)
		return "", false
	}
	if len(result.Data.Magnets) == 0 {
		log.Printf("[alldebrid] magnet upload returned no magnets")
		return "", false
	}
	uploaded := result.Data.Magnets[0]
	if uploaded.Error != nil {
		log.Printf("[alldebrid] magnet rejected: %s", uploaded.Error.Message)
		return "", false
	}
	log.Printf("[alldebrid] magnet added: id=%d hash=%s ready=%v", uploaded.ID, uploaded.Hash, uploaded.Ready)
	return strconv.Itoa(uploaded.ID), true
}

// status fetches the v4.1 status of one magnet along with the flattened file links.
func (c *AllDebridClient) status(ctx context.Context, handle string) (*Job, []string, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, nil, fmt.Errorf("magnet ID is required")
	}
	var result allDebridResponse[allDebridStatusData]
	if err := c.call(ctx, c.timeouts.List, http.MethodGet, "/v4.1/magnet/status", url.Values{"id": {handle}}, &result); err != nil {
		return nil, nil, err
	}
	if err := result.err("magnet status"); err != nil {
		return nil, nil, err
	}

	raw := bytes.TrimSpace(result.Data.Magnets)
	if len(raw) == 0 {
		return nil, nil, fmt.Errorf("magnet %s not found", handle)
	}
	var status allDebridStatus
	if raw[0] == '{' {
		if err := json.Unmarshal(raw, &status); err != nil {
			return nil, nil, fmt.Errorf("decode single magnet: %w", err)
		}
	} else {
		var list []allDebridStatus
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, nil, fmt.Errorf("decode magnets array: %w", err)
		}
		if len(list) == 0 {
			return nil, nil, fmt.Errorf("magnet %s not found", handle)
		}
		status = list[0]
	}

	job := &Job{ID: strconv.Itoa(status.ID), Name: status.Filename, Hash: strings.ToLower(status.Hash)}
	var links []string
	flattenFileTree(status.Files, "", job, &links)
	return job, links, nil
}

// flattenFileTree walks the nested tree; file ids are 1-based positions in walk order.
func flattenFileTree(nodes []allDebridFileNode, basePath string, job *Job, links *[]string) {
	for _, node := range nodes {
		path := node.N
		if basePath != "" {
			path = basePath + "/" + node.N
		}
		if len(node.E) > 0 {
			flattenFileTree(node.E, path, job, links)
			continue
		}
		if node.L == "" {
			continue
		}
		job.Files = append(job.Files, JobFile{ID: strconv.Itoa(len(job.Files) + 1), Name: path, Size: node.S})
		*links = append(*links, node.L)
	}
}

// JobInfo returns the magnet's file listing.
func (c *AllDebridClient) JobInfo(ctx context.Context, handle string) (*Job, bool) {
	job, _, err := c.status(ctx, handle)
	if err != nil {
		log.Printf("[alldebrid] status for %s failed: %v", handle, err)
		return nil, false
	}
	return job, true
}

// largestFile returns the 1-based position of the biggest file, the first on ties, or 0
// for an empty job.
func largestFile(job *Job) int {
	best := 0
	for i, f := range job.Files {
		if best == 0 || f.Size > job.Files[best-1].Size {
			best = i + 1
		}
	}
	return best
}

// DownloadLink unlocks the hoster link of the chosen file. A blank fileID picks the
// magnet's largest file.
func (c *AllDebridClient) DownloadLink(ctx context.Context, handle, fileID string) (string, bool) {
	job, links, err := c.status(ctx, handle)
	if err != nil {
		log.Printf("[alldebrid] status for %s failed: %v", handle, err)
		return "", false
	}
	idx := largestFile(job)
	if strings.TrimSpace(fileID) != "" {
		idx, err = strconv.Atoi(strings.TrimSpace(fileID))
		if err != nil {
			idx = 0
		}
	}
	if idx < 1 || idx > len(links) {
		log.Printf("[alldebrid] file %q not present in magnet %s", fileID, handle)
		return "", false
	}

	var result allDebridResponse[allDebridUnlock]
	if err := c.call(ctx, c.timeouts.Link, http.MethodPost, "/v4/link/unlock", url.Values{"link": {links[idx-1]}}, &result); err != nil {
		log.Printf("[alldebrid] unlock failed: %v", err)
		return "", false
	}
	if err := result.err("unlock"); err != nil {
		log.Printf("[alldebrid] %v", err)
		return "", false
	}
	if result.Data.Delayed > 0 || result.Data.Link == "" {
		log.Printf("[alldebrid] link for %s/%s not ready (delayed=%d)", handle, fileID, result.Data.Delayed)
		return "", false
	}
	return result.Data.Link, true
}
