package handlers

import (
	"encoding/base64"
	"encoding/json"
	"log"
	"strings"

	"tamilstream/models"
)

// DecodeUserConfig reads the configuration path segment: URL-safe base64 of a JSON object,
// padding optional. Anything unreadable yields the default configuration.
func DecodeUserConfig(segment string) models.UserConfig {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return models.DefaultUserConfig()
	}
	if rem := len(segment) % 4; rem != 0 {
		segment += strings.Repeat("=", 4-rem)
	}
	raw, err := base64.URLEncoding.DecodeString(segment)
	if err != nil {
		log.Printf("[config] undecodable user config: %v", err)
		return models.DefaultUserConfig()
	}

	cfg := models.DefaultUserConfig()
	if err := json.Unmarshal(raw, &cfg); err != nil {
		log.Printf("[config] unreadable user config: %v", err)
		return models.DefaultUserConfig()
	}
	cfg.TorBoxAPIKey = strings.TrimSpace(cfg.TorBoxAPIKey)
	return cfg
}

// EncodeUserConfig produces the unpadded path segment for cfg.
func EncodeUserConfig(cfg models.UserConfig) (string, error) {
	if cfg.QualityFilter == nil {
		cfg.QualityFilter = []string{}
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
