package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server   ServerSettings   `json:"server"`
	Addon    AddonSettings    `json:"addon"`
	Storage  StorageSettings  `json:"storage"`
	Metadata MetadataSettings `json:"metadata"`
	Debrid   DebridSettings   `json:"debrid"`
	Catalog  CatalogSettings  `json:"catalog"`
	Ingest   IngestSettings   `json:"ingest"`
	Log      LogConfig        `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// AddonSettings is the identity advertised in the manifest.
type AddonSettings struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
	Background  string `json:"background"`
}

// StorageBackend selects the content repository implementation.
type StorageBackend string

const (
	StorageBackendMemory   StorageBackend = "memory"
	StorageBackendJSON     StorageBackend = "json"
	StorageBackendPostgres StorageBackend = "postgres"
	StorageBackendSQLite   StorageBackend = "sqlite"
)

type StorageSettings struct {
	Backend        StorageBackend `json:"backend"`
	Path           string         `json:"path"` // json file or sqlite database
	DSN            string         `json:"dsn"`  // postgres connection string
	SeedSampleData bool           `json:"seedSampleData"`
}

type MetadataSettings struct {
	OMDBAPIKey      string `json:"omdbApiKey"`
	OMDBBaseURL     string `json:"omdbBaseUrl"`
	TMDBAPIKey      string `json:"tmdbApiKey"`
	TMDBBaseURL     string `json:"tmdbBaseUrl"`
	TimeoutSeconds  int    `json:"timeoutSeconds"`
	CacheTTLMinutes int    `json:"cacheTtlMinutes"`
	CacheSizeMB     int    `json:"cacheSizeMB"`
	PosterCacheDir  string `json:"posterCacheDir"`
}

// DebridSettings carries the endpoints and per-call budgets of the debrid providers.
// User credentials never live here; they arrive with each request.
type DebridSettings struct {
	TorBoxBaseURL          string `json:"torboxBaseUrl"`
	AllDebridBaseURL       string `json:"alldebridBaseUrl"`
	CheckTimeoutSeconds    int    `json:"checkTimeoutSeconds"`
	ListTimeoutSeconds     int    `json:"listTimeoutSeconds"`
	RegisterTimeoutSeconds int    `json:"registerTimeoutSeconds"`
	LinkTimeoutSeconds     int    `json:"linkTimeoutSeconds"`
	MaxConcurrency         int    `json:"maxConcurrency"`
}

type CatalogSettings struct {
	PageSize int `json:"pageSize"`
}

// IngestSettings drives the periodic release feed import. An empty FeedPath disables it.
type IngestSettings struct {
	FeedPath      string `json:"feedPath"` // local file or http(s) URL of a JSON release array
	IntervalHours int    `json:"intervalHours"`
}

type LogConfig struct {
	File       string `json:"file"`
	Level      string `json:"level"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

const (
	DefaultOMDBBaseURL      = "http://www.omdbapi.com/"
	DefaultOMDBAPIKey       = "trilogy"
	DefaultTMDBBaseURL      = "https://api.themoviedb.org/3"
	DefaultTorBoxBaseURL    = "https://api.torbox.app/v1"
	DefaultAllDebridBaseURL = "https://api.alldebrid.com"
)

// DefaultSettings returns sane defaults for a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{Host: "0.0.0.0", Port: 8000},
		Addon: AddonSettings{
			ID:          "com.tamilstream.addon",
			Name:        "TamilStream",
			Version:     "1.0.0",
			Description: "Tamil Movies & Series Stremio Addon with TorBox Integration",
			Logo:        "https://i.imgur.com/Xvy5S5Z.png",
			Background:  "https://i.imgur.com/8GtHvBT.jpg",
		},
		Storage: StorageSettings{
			Backend:        StorageBackendMemory,
			Path:           "cache/content.json",
			SeedSampleData: true,
		},
		Metadata: MetadataSettings{
			OMDBAPIKey:      DefaultOMDBAPIKey,
			OMDBBaseURL:     DefaultOMDBBaseURL,
			TMDBBaseURL:     DefaultTMDBBaseURL,
			TimeoutSeconds:  5,
			CacheTTLMinutes: 24 * 60,
			CacheSizeMB:     8,
			PosterCacheDir:  "cache/posters",
		},
		Debrid: DebridSettings{
			TorBoxBaseURL:          DefaultTorBoxBaseURL,
			AllDebridBaseURL:       DefaultAllDebridBaseURL,
			CheckTimeoutSeconds:    10,
			ListTimeoutSeconds:     15,
			RegisterTimeoutSeconds: 30,
			LinkTimeoutSeconds:     30,
			MaxConcurrency:         4,
		},
		Catalog: CatalogSettings{PageSize: 100},
		Ingest:  IngestSettings{IntervalHours: 6},
		Log: LogConfig{
			File:       "cache/logs/backend.log",
			Level:      "info",
			MaxSize:    50,   // 50 MB per file
			MaxBackups: 3,    // keep 3 old files
			MaxAge:     7,    // 7 days
			Compress:   true, // compress old files
		},
	}
}

// Seconds converts a settings value into a duration, falling back when unset.
func Seconds(value int, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return time.Duration(value) * time.Second
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// Path returns the settings file location.
func (m *Manager) Path() string {
	return m.path
}

// EnsureDir ensures parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads settings.json from disk or creates defaults if missing. Environment
// overrides are applied on top of the file but never written back.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		// create with defaults
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		applyEnvOverrides(&defaults)
		return defaults, nil
	}
	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	var s Settings
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return Settings{}, err
	}

	backfill(&s)
	applyEnvOverrides(&s)
	return s, nil
}

func backfill(s *Settings) {
	defaults := DefaultSettings()

	if strings.TrimSpace(s.Server.Host) == "" {
		s.Server.Host = defaults.Server.Host
	}
	if s.Server.Port == 0 {
		s.Server.Port = defaults.Server.Port
	}

	// Backfill addon identity field by field so a partially edited file keeps its overrides
	if strings.TrimSpace(s.Addon.ID) == "" {
		s.Addon.ID = defaults.Addon.ID
	}
	if strings.TrimSpace(s.Addon.Name) == "" {
		s.Addon.Name = defaults.Addon.Name
	}
	if strings.TrimSpace(s.Addon.Version) == "" {
		s.Addon.Version = defaults.Addon.Version
	}
	if strings.TrimSpace(s.Addon.Description) == "" {
		s.Addon.Description = defaults.Addon.Description
	}
	if strings.TrimSpace(s.Addon.Logo) == "" {
		s.Addon.Logo = defaults.Addon.Logo
	}
	if strings.TrimSpace(s.Addon.Background) == "" {
		s.Addon.Background = defaults.Addon.Background
	}

	if s.Storage.Backend == "" {
		s.Storage.Backend = defaults.Storage.Backend
	}
	s.Storage.Backend = StorageBackend(strings.ToLower(string(s.Storage.Backend)))
	if strings.TrimSpace(s.Storage.Path) == "" {
		s.Storage.Path = defaults.Storage.Path
	}

	if strings.TrimSpace(s.Metadata.OMDBAPIKey) == "" {
		s.Metadata.OMDBAPIKey = defaults.Metadata.OMDBAPIKey
	}
	if strings.TrimSpace(s.Metadata.OMDBBaseURL) == "" {
		s.Metadata.OMDBBaseURL = defaults.Metadata.OMDBBaseURL
	}
	if strings.TrimSpace(s.Metadata.TMDBBaseURL) == "" {
		s.Metadata.TMDBBaseURL = defaults.Metadata.TMDBBaseURL
	}
	if s.Metadata.TimeoutSeconds == 0 {
		s.Metadata.TimeoutSeconds = defaults.Metadata.TimeoutSeconds
	}
	if s.Metadata.CacheTTLMinutes == 0 {
		s.Metadata.CacheTTLMinutes = defaults.Metadata.CacheTTLMinutes
	}
	if s.Metadata.CacheSizeMB == 0 {
		s.Metadata.CacheSizeMB = defaults.Metadata.CacheSizeMB
	}

	if strings.TrimSpace(s.Debrid.TorBoxBaseURL) == "" {
		s.Debrid.TorBoxBaseURL = defaults.Debrid.TorBoxBaseURL
	}
	if strings.TrimSpace(s.Debrid.AllDebridBaseURL) == "" {
		s.Debrid.AllDebridBaseURL = defaults.Debrid.AllDebridBaseURL
	}
	if s.Debrid.CheckTimeoutSeconds == 0 {
		s.Debrid.CheckTimeoutSeconds = defaults.Debrid.CheckTimeoutSeconds
	}
	if s.Debrid.ListTimeoutSeconds == 0 {
		s.Debrid.ListTimeoutSeconds = defaults.Debrid.ListTimeoutSeconds
	}
	if s.Debrid.RegisterTimeoutSeconds == 0 {
		s.Debrid.RegisterTimeoutSeconds = defaults.Debrid.RegisterTimeoutSeconds
	}
	if s.Debrid.LinkTimeoutSeconds == 0 {
		s.Debrid.LinkTimeoutSeconds = defaults.Debrid.LinkTimeoutSeconds
	}
	if s.Debrid.MaxConcurrency <= 0 {
		s.Debrid.MaxConcurrency = defaults.Debrid.MaxConcurrency
	}

	if s.Catalog.PageSize <= 0 {
		s.Catalog.PageSize = defaults.Catalog.PageSize
	}

	if s.Ingest.IntervalHours <= 0 {
		s.Ingest.IntervalHours = defaults.Ingest.IntervalHours
	}

	if strings.TrimSpace(s.Log.File) == "" {
		s.Log.File = defaults.Log.File
	}
	if s.Log.MaxSize == 0 {
		s.Log.MaxSize = defaults.Log.MaxSize
	}
	if s.Log.MaxBackups == 0 {
		s.Log.MaxBackups = defaults.Log.MaxBackups
	}
	if s.Log.MaxAge == 0 {
		s.Log.MaxAge = defaults.Log.MaxAge
	}
}

func applyEnvOverrides(s *Settings) {
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			s.Server.Port = port
		}
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		s.Storage.Backend = StorageBackendPostgres
		s.Storage.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("OMDB_API_KEY")); v != "" {
		s.Metadata.OMDBAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("TMDB_API_KEY")); v != "" {
		s.Metadata.TMDBAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("TORBOX_API_URL")); v != "" {
		s.Debrid.TorBoxBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("RELEASE_FEED")); v != "" {
		s.Ingest.FeedPath = v
	}
	if v := strings.TrimSpace(os.Getenv("SCRAPER_INTERVAL_HOURS")); v != "" {
		if hours, err := strconv.Atoi(v); err == nil && hours > 0 {
			s.Ingest.IntervalHours = hours
		}
	}
	if v := strings.TrimSpace(os.Getenv("LOG_FILE")); v != "" {
		s.Log.File = v
	}
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}
