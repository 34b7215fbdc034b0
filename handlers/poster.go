package handlers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"log"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/image/draw"
	"golang.org/x/sync/singleflight"
)

// posterHosts are the only origins the proxy fetches from.
var posterHosts = []string{"image.tmdb.org", "m.media-amazon.com", "ia.media-imdb.com", "i.imgur.com"}

// PosterProxy serves catalog artwork downscaled and re-encoded as JPEG, caching each
// rendition on fs.
type PosterProxy struct {
	fs    afero.Fs
	dir   string
	httpc *http.Client
	hosts []string
	group singleflight.Group
}

// NewPosterProxy creates a proxy caching into dir on fs.
func NewPosterProxy(fs afero.Fs, dir string, httpc *http.Client) *PosterProxy {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		log.Printf("[poster] Warning: could not create cache dir %s: %v", dir, err)
	}
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	return &PosterProxy{fs: fs, dir: dir, httpc: httpc, hosts: posterHosts}
}

// Serve handles GET /poster.
// Query params:
//   - url: source image URL (required)
//   - w: target width (optional, default: original)
//   - q: JPEG quality 1-100 (optional, default: 80)
func (p *PosterProxy) Serve(w http.ResponseWriter, r *http.Request) {
	sourceURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if sourceURL == "" {
		http.Error(w, "url parameter required", http.StatusBadRequest)
		return
	}
	if !p.allowed(sourceURL) {
		http.Error(w, "URL not allowed", http.StatusForbidden)
		return
	}

	width := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("w")); err == nil && v > 0 && v <= 2000 {
		width = v
	}
	quality := 80
	if v, err := strconv.Atoi(r.URL.Query().Get("q")); err == nil && v >= 1 && v <= 100 {
		quality = v
	}

	cachePath := path.Join(p.dir, posterCacheKey(sourceURL, width, quality)+".jpg")
	if data, err := afero.ReadFile(p.fs, cachePath); err == nil {
		writePoster(w, data, "HIT")
		return
	}

	// concurrent requests for one rendition share a single fetch that no one client can cancel
	fetchCtx := context.WithoutCancel(r.Context())
	ch := p.group.DoChan(cachePath, func() (interface{}, error) {
		return p.render(fetchCtx, sourceURL, cachePath, width, quality)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			log.Printf("[poster] %s: %v", sourceURL, res.Err)
			http.Error(w, "Failed to load image", http.StatusBadGateway)
			return
		}
		writePoster(w, res.Val.([]byte), "MISS")
	case <-r.Context().Done():
	}
}

func (p *PosterProxy) render(ctx context.Context, sourceURL, cachePath string, width, quality int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source returned %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	img = downscale(img, width)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	data := buf.Bytes()

	tmp := cachePath + ".tmp"
	if err := afero.WriteFile(p.fs, tmp, data, 0o644); err != nil {
		log.Printf("[poster] cache write error: %v", err)
		return data, nil
	}
	if err := p.fs.Rename(tmp, cachePath); err != nil {
		_ = p.fs.Remove(tmp)
		log.Printf("[poster] cache rename error: %v", err)
	}
	return data, nil
}

// downscale shrinks img to width keeping the aspect ratio. Upscaling is never done.
func downscale(img image.Image, width int) image.Image {
	bounds := img.Bounds()
	if width <= 0 || width >= bounds.Dx() {
		return img
	}
	height := int(float64(bounds.Dy()) * float64(width) / float64(bounds.Dx()))
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// ClearCache removes every cached rendition.
func (p *PosterProxy) ClearCache() error {
	entries, err := afero.ReadDir(p.fs, p.dir)
	if err != nil {
		return err
	}
	failed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jpg") {
			continue
		}
		if err := p.fs.Remove(path.Join(p.dir, entry.Name())); err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("failed to remove %d files", failed)
	}
	return nil
}

// CacheStats returns the number and total size of cached renditions.
func (p *PosterProxy) CacheStats() (count int, sizeBytes int64) {
	entries, err := afero.ReadDir(p.fs, p.dir)
	if err != nil {
		return 0, 0
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".jpg") {
			count++
			sizeBytes += entry.Size()
		}
	}
	return
}

func (p *PosterProxy) allowed(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, allowed := range p.hosts {
		if host == allowed {
			return true
		}
	}
	return false
}

func posterCacheKey(sourceURL string, width, quality int) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", sourceURL, width, quality)))
	return hex.EncodeToString(hash[:16])
}

func writePoster(w http.ResponseWriter, data []byte, cache string) {
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=2592000")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Cache", cache)
	_, _ = w.Write(data)
}
