package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"tamilstream/config"
	"tamilstream/handlers"
	"tamilstream/models"
	"tamilstream/services/debrid"
)

func main() {
	var (
		apiKey   = flag.String("key", "", "TorBox API key")
		quality  = flag.String("quality", "1080p,HD,4K", "comma separated quality filter")
		showCam  = flag.Bool("cam", false, "include CAM/HDCAM/HDTS releases")
		provider = flag.String("provider", "", "debrid provider (default torbox)")
		host     = flag.String("host", "localhost:8000", "host the addon is served from")
		scheme   = flag.String("scheme", "http", "scheme of the manifest URL")
		verify   = flag.Bool("verify", false, "check the API key against TorBox before encoding")
		baseURL  = flag.String("torbox-url", "", "override the TorBox API base URL")
	)
	flag.Parse()

	cfg := models.UserConfig{
		TorBoxAPIKey:   strings.TrimSpace(*apiKey),
		ShowCamQuality: *showCam,
		DebridProvider: strings.TrimSpace(*provider),
	}
	for _, q := range strings.Split(*quality, ",") {
		if q = strings.TrimSpace(q); q != "" {
			cfg.QualityFilter = append(cfg.QualityFilter, q)
		}
	}

	if *verify && cfg.TorBoxAPIKey != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		timeouts := debrid.TimeoutsFromSettings(config.DefaultSettings().Debrid)
		if !debrid.NewTorBoxClient(cfg.TorBoxAPIKey, *baseURL, timeouts).VerifyKey(ctx) {
			log.Fatalf("TorBox rejected the API key")
		}
		fmt.Println("TorBox API key verified")
	}

	segment, err := handlers.EncodeUserConfig(cfg)
	if err != nil {
		log.Fatalf("encode config: %v", err)
	}
	fmt.Printf("config:   %s\n", segment)
	fmt.Printf("manifest: %s://%s/%s/manifest.json\n", *scheme, *host, segment)
	fmt.Printf("install:  stremio://%s/%s/manifest.json\n", *host, segment)
}
