// Package depfresh keeps npm dependency metadata fresh.
//
// It parses package.json manifests, resolves each dependency's latest
// published version from the registry through a rate-limited prefetch
// queue, caches results with a TTL, and renders per-dependency
// annotations such as "update available: 1.3.0".
//
// Basic usage:
//
//	svc, err := depfresh.NewService(depfresh.DefaultConfig(), nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	if err := svc.CheckFile(ctx, "package.json"); err != nil {
//		log.Fatal(err)
//	}
//	svc.Wait(ctx)
//
//	anns, _ := svc.Annotate("package.json")
//	for _, a := range anns {
//		fmt.Println(a.Package, a.Text)
//	}
package depfresh

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/depfresh/depfresh/client"
	"github.com/depfresh/depfresh/internal/cache"
	"github.com/depfresh/depfresh/internal/config"
	"github.com/depfresh/depfresh/internal/manifest"
	"github.com/depfresh/depfresh/internal/npm"
	"github.com/depfresh/depfresh/internal/prefetch"
	"github.com/depfresh/depfresh/internal/render"
	"github.com/depfresh/depfresh/internal/track"
)

// Re-export the types callers see.
type (
	// Config carries every tunable of the freshness pipeline.
	Config = config.Config

	// Dependency is one declared dependency from a manifest.
	Dependency = manifest.Dependency

	// Status is the pipeline state of one package.
	Status = prefetch.Status

	// State names a point in a package's lookup lifecycle.
	State = prefetch.State

	// Annotation is the rendered result for one dependency line.
	Annotation = render.Annotation

	// Stats summarizes cache occupancy.
	Stats = cache.Stats
)

// Re-export states.
const (
	StateUnknown     = prefetch.StateUnknown
	StateLoading     = prefetch.StateLoading
	StateSuccess     = prefetch.StateSuccess
	StateNotFound    = prefetch.StateNotFound
	StateRateLimited = prefetch.StateRateLimited
	StateTimeout     = prefetch.StateTimeout
	StateError       = prefetch.StateError
	StateMaxRetries  = prefetch.StateMaxRetries
)

// Re-export errors.
var (
	ErrNotFound     = client.ErrNotFound
	ErrRateLimited  = client.ErrRateLimited
	ErrUpstreamDown = client.ErrUpstreamDown
)

// DefaultConfig returns the stock pipeline configuration.
func DefaultConfig() Config {
	return config.Default()
}

// LoadConfig overlays the TOML file at path on the defaults.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// Service wires the registry client, cache, failure tracker, prefetch
// queue, and renderer into one freshness pipeline.
type Service struct {
	cfg      Config
	logger   *log.Logger
	registry *npm.Registry
	cache    *cache.Cache
	tracker  *track.Tracker
	queue    *prefetch.Queue
	renderer *render.Renderer
}

// NewService builds a pipeline from cfg. A nil logger uses the default.
func NewService(cfg Config, logger *log.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	httpClient := client.NewBreakerClient(client.NewClient(
		client.WithTimeout(cfg.RequestTimeout.Duration),
		client.WithUserAgent(cfg.UserAgent),
	))
	registry := npm.New(cfg.RegistryURL, httpClient)
	c := cache.New(cfg.TTL.Duration)
	tracker := track.New(cfg.MaxAttempts, cfg.RetryDelay.Duration)
	queue := prefetch.New(registry, c, tracker,
		prefetch.WithBatchSize(cfg.BatchSize),
		prefetch.WithBatchDelay(cfg.BatchDelay.Duration),
		prefetch.WithLogger(logger),
	)

	return &Service{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		cache:    c,
		tracker:  tracker,
		queue:    queue,
		renderer: render.New(queue),
	}, nil
}

// CheckFile parses the manifest at path, drops cache entries that only
// this file was keeping alive, and enqueues lookups for every declared
// dependency.
func (s *Service) CheckFile(ctx context.Context, path string) error {
	deps, err := manifest.ParseFile(path)
	if err != nil {
		return err
	}

	removed := s.cache.ClearForFile(path)
	for _, name := range removed {
		s.tracker.Clear(name)
	}

	s.logger.Debug("checking manifest", "path", path, "dependencies", len(deps))
	s.queue.Add(manifest.Names(deps), path)
	return nil
}

// ForgetFile drops every cache entry that only path was keeping alive
// and clears the failure records of the dropped packages.
func (s *Service) ForgetFile(path string) {
	removed := s.cache.ClearForFile(path)
	for _, name := range removed {
		s.tracker.Clear(name)
	}
	if len(removed) > 0 {
		s.logger.Debug("forgot manifest", "path", path, "dropped", len(removed))
	}
}

// Refresh forces a refetch of the named packages regardless of cache
// freshness or backoff state.
func (s *Service) Refresh(names []string, path string) {
	s.queue.Refresh(names, path)
}

// Wait blocks until the prefetch queue is idle or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	return s.queue.Wait(ctx)
}

// Status reports the pipeline state of one package.
func (s *Service) Status(name string) Status {
	return s.queue.Status(name)
}

// Annotate parses the manifest at path and renders one annotation per
// dependency from the current pipeline state.
func (s *Service) Annotate(path string) ([]Annotation, error) {
	deps, err := manifest.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return s.renderer.Annotate(deps), nil
}

// Stats summarizes cache occupancy.
func (s *Service) Stats() Stats {
	return s.cache.Stats()
}

// Run sweeps expired cache entries every half TTL until ctx is done.
// Lazy eviction on Get already keeps reads correct; the sweep only
// bounds memory for packages nothing reads anymore.
func (s *Service) Run(ctx context.Context) error {
	interval := s.cfg.TTL.Duration / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := s.cache.SweepExpired(); n > 0 {
				s.logger.Debug("swept expired cache entries", "count", n)
			}
		}
	}
}
