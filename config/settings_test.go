package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	mgr := NewManager(path)

	s, err := mgr.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected settings file to be created: %v", err)
	}
	if s.Catalog.PageSize != 100 {
		t.Errorf("page size = %d, want 100", s.Catalog.PageSize)
	}
	if s.Addon.ID != "com.tamilstream.addon" {
		t.Errorf("addon id = %q", s.Addon.ID)
	}
	if s.Storage.Backend != StorageBackendMemory {
		t.Errorf("backend = %q, want memory", s.Storage.Backend)
	}
}

func TestLoadBackfillsZeroValues(t *testing.T) {
	t.Setenv("OMDB_API_KEY", "")
	t.Setenv("TORBOX_API_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"server":{"port":9001},"storage":{"backend":"SQLite","path":"x.db"},"debrid":{"maxConcurrency":0}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Server.Port != 9001 {
		t.Errorf("port = %d, want 9001", s.Server.Port)
	}
	if s.Server.Host != "0.0.0.0" {
		t.Errorf("host = %q", s.Server.Host)
	}
	if s.Storage.Backend != StorageBackendSQLite {
		t.Errorf("backend = %q, want sqlite", s.Storage.Backend)
	}
	if s.Debrid.MaxConcurrency != 4 {
		t.Errorf("max concurrency = %d, want 4", s.Debrid.MaxConcurrency)
	}
	if s.Debrid.TorBoxBaseURL != DefaultTorBoxBaseURL {
		t.Errorf("torbox url = %q", s.Debrid.TorBoxBaseURL)
	}
	if s.Metadata.OMDBAPIKey != DefaultOMDBAPIKey {
		t.Errorf("omdb key = %q", s.Metadata.OMDBAPIKey)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "7123")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db")
	t.Setenv("OMDB_API_KEY", "omdb-key")
	t.Setenv("TMDB_API_KEY", "tmdb-key")
	t.Setenv("RELEASE_FEED", "https://feeds.example/releases.json")
	t.Setenv("SCRAPER_INTERVAL_HOURS", "12")

	path := filepath.Join(t.TempDir(), "settings.json")
	mgr := NewManager(path)
	s, err := mgr.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Server.Port != 7123 {
		t.Errorf("port = %d", s.Server.Port)
	}
	if s.Storage.Backend != StorageBackendPostgres || s.Storage.DSN == "" {
		t.Errorf("storage = %+v, want postgres with dsn", s.Storage)
	}
	if s.Metadata.OMDBAPIKey != "omdb-key" || s.Metadata.TMDBAPIKey != "tmdb-key" {
		t.Errorf("metadata keys not overridden: %+v", s.Metadata)
	}
	if s.Ingest.FeedPath != "https://feeds.example/releases.json" || s.Ingest.IntervalHours != 12 {
		t.Errorf("ingest = %+v", s.Ingest)
	}

	// overrides stay out of the persisted file
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
	reloaded, err := mgr.Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Storage.Backend != StorageBackendMemory {
		t.Errorf("backend persisted as %q", reloaded.Storage.Backend)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	mgr := NewManager(path)

	s := DefaultSettings()
	s.Addon.Name = "Custom"
	s.Debrid.MaxConcurrency = 9
	if err := mgr.Save(s); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
	loaded, err := mgr.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Addon.Name != "Custom" || loaded.Debrid.MaxConcurrency != 9 {
		t.Errorf("loaded = %+v", loaded)
	}
}
