package models

import "strings"

// Quality is the release quality tier. It drives display and ordering only.
type Quality string

const (
	QualityCAM     Quality = "CAM"
	QualityHDCAM   Quality = "HDCAM"
	QualityHDTS    Quality = "HDTS"
	QualityHD      Quality = "HD"
	QualityFullHD  Quality = "1080p"
	Quality4K      Quality = "4K"
	QualityUnknown Quality = "Unknown"
)

var knownQualities = []Quality{QualityCAM, QualityHDCAM, QualityHDTS, QualityHD, QualityFullHD, Quality4K, QualityUnknown}

// ParseQuality maps a stored or user supplied label onto a tier. Matching is
// case-insensitive and anything unrecognised becomes QualityUnknown.
func ParseQuality(value string) Quality {
	value = strings.TrimSpace(value)
	for _, q := range knownQualities {
		if strings.EqualFold(value, string(q)) {
			return q
		}
	}
	switch strings.ToLower(value) {
	case "720p":
		return QualityHD
	case "2160p", "uhd":
		return Quality4K
	}
	return QualityUnknown
}

// Rank is the ordering weight used when sorting stream candidates; lower sorts first.
func (q Quality) Rank() int {
	switch q {
	case Quality4K:
		return -1
	case QualityFullHD:
		return 0
	case QualityHD:
		return 1
	default:
		return 2
	}
}

// IsCam reports whether the tier is a theatre recording.
func (q Quality) IsCam() bool {
	return q == QualityCAM || q == QualityHDCAM || q == QualityHDTS
}

func (q Quality) String() string {
	if q == "" {
		return string(QualityUnknown)
	}
	return string(q)
}
