package streams

import (
	"strconv"
	"strings"
)

// Request is a decoded stream identifier.
type Request struct {
	Raw     string
	BaseID  string
	Season  *int
	Episode *int
}

// IsEpisode reports whether the identifier addressed a single episode.
func (r Request) IsEpisode() bool {
	return r.Episode != nil
}

// ParseRequestID splits "<content>:<season>:<episode>" into its parts. The base id is
// everything before the first colon. Season and episode are only set when both parse as
// integers; anything else is a plain content lookup.
func ParseRequestID(raw string) Request {
	raw = strings.TrimSpace(raw)
	parts := strings.Split(raw, ":")
	req := Request{Raw: raw, BaseID: parts[0]}
	if len(parts) < 3 {
		return req
	}
	season, err := strconv.Atoi(parts[1])
	if err != nil {
		return req
	}
	episode, err := strconv.Atoi(parts[2])
	if err != nil {
		return req
	}
	req.Season = &season
	req.Episode = &episode
	return req
}
