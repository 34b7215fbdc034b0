package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"tamilstream/services/ingest"
)

// Task status values.
const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"
)

var ErrTaskRunning = errors.New("task is already running")

// FeedSource fetches the current release listing.
type FeedSource func(ctx context.Context) ([]ingest.Release, error)

type releaseImporter interface {
	Import(ctx context.Context, releases []ingest.Release) (ingest.Stats, error)
}

// TaskStatus describes the last run of the feed import.
type TaskStatus struct {
	LastRunAt  *time.Time   `json:"lastRunAt,omitempty"`
	LastStatus string       `json:"lastStatus"`
	LastError  string       `json:"lastError,omitempty"`
	LastStats  ingest.Stats `json:"lastStats"`
}

// Service periodically imports a release feed into the content repository.
type Service struct {
	importer      releaseImporter
	source        FeedSource
	interval      time.Duration
	checkInterval time.Duration

	// Runtime state
	mu      sync.RWMutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// Task state tracking (in-memory, not persisted)
	taskMu      sync.RWMutex
	taskRunning bool
	status      TaskStatus
}

// NewService creates a scheduler that imports from source every interval.
func NewService(importer releaseImporter, source FeedSource, interval time.Duration) *Service {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	check := time.Minute
	if interval < check {
		check = interval
	}
	return &Service{
		importer:      importer,
		source:        source,
		interval:      interval,
		checkInterval: check,
		status:        TaskStatus{LastStatus: StatusPending},
	}
}

// Start begins the scheduler background loop
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.wg.Add(1)
	go s.schedulerLoop()

	log.Printf("[scheduler] release import every %s", s.interval)
	return nil
}

// Stop gracefully stops the scheduler
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[scheduler] Scheduler service stopped gracefully")
	case <-ctx.Done():
		log.Println("[scheduler] Scheduler service stopped (timeout)")
	}

	s.running = false
	return nil
}

func (s *Service) schedulerLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	// Run check immediately on start
	s.checkAndRun()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.checkAndRun()
		}
	}
}

func (s *Service) checkAndRun() {
	if !s.shouldRun() {
		return
	}
	s.execute(s.ctx)
}

// shouldRun checks if the import is due
func (s *Service) shouldRun() bool {
	s.taskMu.RLock()
	defer s.taskMu.RUnlock()

	if s.taskRunning {
		return false
	}
	if s.status.LastRunAt == nil {
		return true
	}
	return time.Since(*s.status.LastRunAt) >= s.interval
}

// execute runs one import and records its outcome.
func (s *Service) execute(ctx context.Context) {
	s.taskMu.Lock()
	if s.taskRunning {
		s.taskMu.Unlock()
		return
	}
	s.taskRunning = true
	s.taskMu.Unlock()

	stats, err := s.runImport(ctx)

	now := time.Now().UTC()
	s.taskMu.Lock()
	s.taskRunning = false
	s.status.LastRunAt = &now
	s.status.LastStats = stats
	if err != nil {
		s.status.LastStatus = StatusError
		s.status.LastError = err.Error()
		log.Printf("[scheduler] release import failed: %v", err)
	} else {
		s.status.LastStatus = StatusSuccess
		s.status.LastError = ""
		log.Printf("[scheduler] release import completed: %s", stats)
	}
	s.taskMu.Unlock()
}

func (s *Service) runImport(ctx context.Context) (ingest.Stats, error) {
	releases, err := s.source(ctx)
	if err != nil {
		return ingest.Stats{}, fmt.Errorf("fetch feed: %w", err)
	}
	return s.importer.Import(ctx, releases)
}

// RunNow triggers an immediate import in the background.
func (s *Service) RunNow(ctx context.Context) error {
	if s.IsRunning() {
		return ErrTaskRunning
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(ctx)
	}()
	return nil
}

// Status returns the last run; a run in progress reports StatusRunning.
func (s *Service) Status() TaskStatus {
	s.taskMu.RLock()
	defer s.taskMu.RUnlock()

	status := s.status
	if s.taskRunning {
		status.LastStatus = StatusRunning
	}
	return status
}

// IsRunning checks if an import is currently in progress
func (s *Service) IsRunning() bool {
	s.taskMu.RLock()
	defer s.taskMu.RUnlock()
	return s.taskRunning
}

// NewFeedSource reads releases from an http(s) URL or from a file on fs.
func NewFeedSource(fs afero.Fs, location string, httpc *http.Client) FeedSource {
	location = strings.TrimSpace(location)
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		if httpc == nil {
			httpc = &http.Client{Timeout: 60 * time.Second}
		}
		return func(ctx context.Context) ([]ingest.Release, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
			if err != nil {
				return nil, err
			}
			resp, err := httpc.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("feed request failed: %s", resp.Status)
			}
			return ingest.LoadReleases(resp.Body)
		}
	}
	return func(ctx context.Context) ([]ingest.Release, error) {
		f, err := fs.Open(location)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ingest.LoadReleases(f)
	}
}
