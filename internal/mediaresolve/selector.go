package mediaresolve

import (
	"fmt"
	"log"
	"path"
	"strings"

	"tamilstream/services/debrid"
)

var videoExtensions = map[string]struct{}{
	".mp4": {},
	".mkv": {},
	".avi": {},
	".mov": {},
	".wmv": {},
}

// IsVideo reports whether name carries a playable video extension.
func IsVideo(name string) bool {
	_, ok := videoExtensions[strings.ToLower(path.Ext(strings.TrimSpace(name)))]
	return ok
}

// episodeMarkers lists the conventional spellings of an episode number in file names.
func episodeMarkers(episode int) []string {
	return []string{
		fmt.Sprintf("e%02d", episode),
		fmt.Sprintf("episode%d", episode),
		fmt.Sprintf("ep%d", episode),
	}
}

// MatchesEpisode reports whether the lowercased name contains any marker for episode.
// Markers are plain substrings, so "e05" also matches "S01E05" and "e050".
func MatchesEpisode(name string, episode int) bool {
	lower := strings.ToLower(name)
	for _, marker := range episodeMarkers(episode) {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// VideoFiles keeps only the files with a video extension, preserving order.
func VideoFiles(files []debrid.JobFile) []debrid.JobFile {
	out := make([]debrid.JobFile, 0, len(files))
	for _, f := range files {
		if IsVideo(f.Name) {
			out = append(out, f)
		}
	}
	return out
}

// SelectFile picks the file to stream out of a job listing. With an episode requested the
// first video matching its marker wins; otherwise, or when nothing matches, the largest
// video does (the earliest on ties). It returns false when the job holds no video.
func SelectFile(files []debrid.JobFile, episode *int) (debrid.JobFile, bool) {
	videos := VideoFiles(files)
	if len(videos) == 0 {
		return debrid.JobFile{}, false
	}

	if episode != nil {
		for _, f := range videos {
			if MatchesEpisode(f.Name, *episode) {
				return f, true
			}
		}
		log.Printf("[selector] no file matches episode %d among %d videos, using largest", *episode, len(videos))
	}

	best := videos[0]
	for _, f := range videos[1:] {
		if f.Size > best.Size {
			best = f
		}
	}
	return best, true
}
