package ingest

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/anacrolix/torrent/metainfo"
	"github.com/dustin/go-humanize"
	"github.com/moistari/rls"

	"tamilstream/models"
)

var ErrNoInfoHash = errors.New("magnet carries no info hash")

// ParseMagnet extracts the lowercase hex info-hash and display name from a magnet URI.
// Base32 hashes are converted to hex.
func ParseMagnet(uri string) (string, string, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return "", "", ErrNoInfoHash
	}
	m, err := metainfo.ParseMagnetUri(uri)
	if err != nil {
		return "", "", fmt.Errorf("parse magnet: %w", err)
	}
	if m.InfoHash == (metainfo.Hash{}) {
		return "", "", ErrNoInfoHash
	}
	return strings.ToLower(m.InfoHash.HexString()), m.DisplayName, nil
}

var tokenSplitter = regexp.MustCompile(`[^A-Z0-9]+`)

// DetectQuality derives the quality tier from a release title. Theatre recordings are
// recognised before the plain HD markers so HDCAM and HDTS are never reported as HD.
func DetectQuality(title string) models.Quality {
	upper := strings.ToUpper(title)
	tokens := map[string]struct{}{}
	for _, tok := range tokenSplitter.Split(upper, -1) {
		if tok != "" {
			tokens[tok] = struct{}{}
		}
	}
	has := func(names ...string) bool {
		for _, n := range names {
			if _, ok := tokens[n]; ok {
				return true
			}
		}
		return false
	}

	switch {
	case strings.Contains(upper, "2160P") || strings.Contains(upper, "4K") || has("UHD"):
		return models.Quality4K
	case strings.Contains(upper, "1080P") || strings.Contains(upper, "FULL HD") || has("FHD"):
		return models.QualityFullHD
	case strings.Contains(upper, "HDCAM"):
		return models.QualityHDCAM
	case has("CAM", "CAMRIP"):
		return models.QualityCAM
	case strings.Contains(upper, "HDTS") || has("TS", "TELESYNC"):
		return models.QualityHDTS
	case strings.Contains(upper, "720P") || strings.Contains(upper, "HD"):
		return models.QualityHD
	}
	return models.QualityUnknown
}

var sizePattern = regexp.MustCompile(`([\d.]+)\s*(TB|GB|MB|KB)`)

var sizeUnits = map[string]float64{
	"KB": 1 << 10,
	"MB": 1 << 20,
	"GB": 1 << 30,
	"TB": 1 << 40,
}

// ParseSize reads a size label such as "1.5 GB" using binary multiples. It returns the
// byte count and the normalised label; unparseable input yields zero bytes.
func ParseSize(label string) (int64, string) {
	label = strings.ToUpper(strings.TrimSpace(label))
	match := sizePattern.FindStringSubmatch(label)
	if match == nil {
		return 0, label
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, label
	}
	return int64(value * sizeUnits[match[2]]), label
}

// HumanSize formats a byte count for display.
func HumanSize(bytes int64) string {
	if bytes <= 0 {
		return ""
	}
	return humanize.IBytes(uint64(bytes))
}

var (
	yearPattern  = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	noisePattern = regexp.MustCompile(`(?i)\b(720p|1080p|2160p|4K|UHD|HDRip|BluRay|WEB-DL|WEBRip|HDCAM|CAM|DVDRip|x264|x265|HEVC|AAC|Tamil|Hindi|English|Dual Audio|Multi Audio)\b`)
	punctPattern = regexp.MustCompile(`[._\-\[\]()]`)
	seriesHints  = []string{"S01", "S02", "SEASON", "EPISODE", "EP0", "EP1"}
)

// ReleaseInfo is what a release title says about the content it belongs to.
type ReleaseInfo struct {
	Title   string
	Year    int
	Series  bool
	Season  int
	Episode int
}

// ParseReleaseTitle extracts the clean title, year and series markers from a release
// name. The release parser is consulted first; the pattern based cleanup covers names it
// cannot split.
func ParseReleaseTitle(name string) ReleaseInfo {
	r := rls.ParseString(name)
	info := ReleaseInfo{
		Title:   strings.TrimSpace(r.Title),
		Year:    r.Year,
		Season:  r.Series,
		Episode: r.Episode,
	}
	info.Series = r.Type == rls.Episode || r.Type == rls.Series || r.Series > 0 || r.Episode > 0

	if info.Year == 0 {
		if m := yearPattern.FindString(name); m != "" {
			info.Year, _ = strconv.Atoi(m)
		}
	}
	if info.Title == "" {
		info.Title = cleanTitle(name)
	}
	if !info.Series {
		upper := strings.ToUpper(name)
		for _, hint := range seriesHints {
			if strings.Contains(upper, hint) {
				info.Series = true
				break
			}
		}
	}
	return info
}

func cleanTitle(name string) string {
	clean := yearPattern.ReplaceAllString(name, "")
	clean = noisePattern.ReplaceAllString(clean, "")
	clean = punctPattern.ReplaceAllString(clean, " ")
	clean = strings.Join(strings.Fields(clean), " ")
	if clean == "" {
		return strings.TrimSpace(name)
	}
	return clean
}
