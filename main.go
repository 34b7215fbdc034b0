package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"

	"tamilstream/api"
	"tamilstream/config"
	"tamilstream/handlers"
	"tamilstream/services/content"
	"tamilstream/services/debrid"
	"tamilstream/services/ingest"
	"tamilstream/services/metadata"
	"tamilstream/services/scheduler"
	"tamilstream/services/streams"
)

func main() {
	_ = godotenv.Load(".env")

	defaultConfig := os.Getenv("TAMILSTREAM_CONFIG")
	if defaultConfig == "" {
		defaultConfig = filepath.Join("cache", "settings.json")
	}
	configPath := flag.String("config", defaultConfig, "path to settings.json")
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("TamilStream addon starting...")

	cfgManager := config.NewManager(*configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	accessLog := setupLogging(settings.Log)

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	ctx := context.Background()
	repo, err := content.Open(ctx, settings.Storage)
	if err != nil {
		log.Fatalf("failed to open content repository: %v", err)
	}
	defer repo.Close()

	// Sample data is seeded once here, never lazily per request.
	if settings.Storage.SeedSampleData {
		if _, err := content.Seed(ctx, repo); err != nil {
			log.Printf("[content] seeding sample data failed: %v", err)
		}
	}

	var feedScheduler *scheduler.Service
	if settings.Ingest.FeedPath != "" {
		source := scheduler.NewFeedSource(afero.NewOsFs(), settings.Ingest.FeedPath, nil)
		interval := time.Duration(settings.Ingest.IntervalHours) * time.Hour
		feedScheduler = scheduler.NewService(ingest.NewImporter(repo), source, interval)
		if err := feedScheduler.Start(ctx); err != nil {
			log.Printf("[scheduler] failed to start: %v", err)
		}
	}

	metadataService := metadata.NewService(settings.Metadata, nil)
	log.Printf("[metadata] %s", metadataService)
	debridSettings := settings.Debrid
	assembler := streams.NewAssembler(repo, func(provider, apiKey string) debrid.Resolver {
		return debrid.NewResolver(provider, apiKey, debridSettings)
	}, streams.Options{
		AddonName:      settings.Addon.Name,
		MaxConcurrency: debridSettings.MaxConcurrency,
	})
	addonHandler := handlers.NewAddonHandler(settings.Addon, settings.Catalog.PageSize, repo, metadataService, assembler)

	var posters *handlers.PosterProxy
	if settings.Metadata.PosterCacheDir != "" {
		posters = handlers.NewPosterProxy(afero.NewOsFs(), settings.Metadata.PosterCacheDir, nil)
	}

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s (storage=%s, debrid providers=%v)\n", addr, settings.Storage.Backend, debrid.Providers())

	srv := &http.Server{
		Addr:         addr,
		Handler:      api.NewHandler(addonHandler, posters, accessLog),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// SIGHUP triggers an immediate release import
	reimportChan := make(chan os.Signal, 1)
	if feedScheduler != nil {
		signal.Notify(reimportChan, syscall.SIGHUP)
	}
	for waiting := true; waiting; {
		select {
		case <-reimportChan:
			if err := feedScheduler.RunNow(ctx); err != nil {
				log.Printf("[scheduler] manual import skipped: %v", err)
			}
		case <-shutdownChan:
			waiting = false
		}
	}
	log.Println("Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if feedScheduler != nil {
		_ = feedScheduler.Stop(shutdownCtx)
	}
	log.Println("Shutdown complete")
}

// setupLogging tees the standard logger into a rotating file when one is configured and
// returns the writer used for the HTTP access log.
func setupLogging(cfg config.LogConfig) io.Writer {
	if cfg.File == "" {
		return os.Stdout
	}
	logDir := filepath.Dir(cfg.File)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		return os.Stdout
	}
	fileWriter := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	multiWriter := io.MultiWriter(os.Stdout, fileWriter)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Logging to file: %s", cfg.File)
	return multiWriter
}
