package models

// UserConfig is the per-installation configuration the player embeds in every request path.
type UserConfig struct {
	TorBoxAPIKey   string   `json:"torbox_api_key"`
	QualityFilter  []string `json:"quality_filter"`
	ShowCamQuality bool     `json:"show_cam_quality"`
	DebridProvider string   `json:"debrid_provider,omitempty"`
}

// DefaultUserConfig is what an installation without (or with an unreadable) configuration gets.
func DefaultUserConfig() UserConfig {
	return UserConfig{
		QualityFilter: []string{"1080p", "HD", "4K"},
	}
}
