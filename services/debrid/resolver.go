package debrid

import (
	"context"
	"strings"
	"sync"
	"time"

	"tamilstream/config"
)

//go:generate mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks

// Resolver is the debrid contract the stream assembler depends on. Every method folds
// transport errors, timeouts, non-2xx replies and undecodable bodies into an absent
// result; callers never see an error.
type Resolver interface {
	// Name returns the provider identifier.
	Name() string
	// IsCached reports whether the service already holds the content for infoHash.
	IsCached(ctx context.Context, infoHash string) bool
	// RegisterMagnet adds the magnet to the user's account and returns the job handle.
	RegisterMagnet(ctx context.Context, magnet, name string) (string, bool)
	// JobInfo returns the file listing of a registered job.
	JobInfo(ctx context.Context, handle string) (*Job, bool)
	// DownloadLink resolves one file of a job into a direct URL.
	DownloadLink(ctx context.Context, handle, fileID string) (string, bool)
}

// Job is a torrent registered with a debrid account.
type Job struct {
	ID    string
	Name  string
	Hash  string
	Files []JobFile
}

// JobFile is one file inside a job. ID is the provider's file identifier as a string.
type JobFile struct {
	ID   string
	Name string
	Size int64
}

// Timeouts bounds each class of debrid call.
type Timeouts struct {
	Check    time.Duration // cache checks and account probes
	List     time.Duration // job listing
	Register time.Duration // magnet registration
	Link     time.Duration // download link requests
}

// TimeoutsFromSettings converts configured seconds into durations, applying defaults.
func TimeoutsFromSettings(s config.DebridSettings) Timeouts {
	return Timeouts{
		Check:    config.Seconds(s.CheckTimeoutSeconds, 10*time.Second),
		List:     config.Seconds(s.ListTimeoutSeconds, 15*time.Second),
		Register: config.Seconds(s.RegisterTimeoutSeconds, 30*time.Second),
		Link:     config.Seconds(s.LinkTimeoutSeconds, 30*time.Second),
	}
}

// Factory builds a resolver bound to one user's credential.
type Factory func(apiKey string, settings config.DebridSettings) Resolver

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// DefaultProvider is used when a user configuration names no provider or an unknown one.
const DefaultProvider = "torbox"

// RegisterProvider makes a provider available to NewResolver.
func RegisterProvider(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(strings.TrimSpace(name))] = factory
}

// Providers lists registered provider names.
func Providers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// NewResolver returns a resolver for provider bound to apiKey.
func NewResolver(provider, apiKey string, settings config.DebridSettings) Resolver {
	registryMu.RLock()
	factory, ok := registry[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		factory = registry[DefaultProvider]
	}
	registryMu.RUnlock()
	return factory(strings.TrimSpace(apiKey), settings)
}
