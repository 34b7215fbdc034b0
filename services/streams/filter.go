package streams

import "tamilstream/models"

// FilterByPreference applies the user's quality choices. Theatre recordings are dropped
// unless the user opted in. A non-empty filter keeps only the listed tiers; candidates
// of unknown quality always survive it.
func FilterByPreference(candidates []Candidate, cfg models.UserConfig) []Candidate {
	allowed := make(map[models.Quality]struct{}, len(cfg.QualityFilter))
	for _, label := range cfg.QualityFilter {
		if q := models.ParseQuality(label); q != models.QualityUnknown {
			allowed[q] = struct{}{}
		}
	}

	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Quality.IsCam() && !cfg.ShowCamQuality {
			continue
		}
		if len(allowed) > 0 && c.Quality != models.QualityUnknown && !c.Quality.IsCam() {
			if _, ok := allowed[c.Quality]; !ok {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}
