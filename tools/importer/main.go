package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"tamilstream/config"
	"tamilstream/services/content"
	"tamilstream/services/ingest"
)

func main() {
	var (
		configPath = flag.String("config", "cache/settings.json", "path to settings.json")
		file       = flag.String("file", "", "JSON array of releases to import")
	)
	flag.Parse()
	if *file == "" {
		log.Fatalf("-file is required")
	}

	mgr := config.NewManager(*configPath)
	settings, err := mgr.Load()
	if err != nil {
		log.Fatalf("load settings: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	repo, err := content.Open(ctx, settings.Storage)
	if err != nil {
		log.Fatalf("open repository: %v", err)
	}
	defer repo.Close()

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("open releases: %v", err)
	}
	defer f.Close()

	releases, err := ingest.LoadReleases(f)
	if err != nil {
		log.Fatalf("%v", err)
	}

	stats, err := ingest.NewImporter(repo).Import(ctx, releases)
	if err != nil {
		log.Printf("import interrupted: %v", err)
	}
	log.Printf("imported %d releases: %s", len(releases), stats)
}
