// Package prefetch turns bursts of dependency-name requests into
// rate-limited registry lookups, keeping the package cache warm without
// redundant work.
//
// Requests are deduplicated against the cache, the pending queue, and
// the in-flight set, then drained in fixed-size concurrent batches with
// a delay between batches. A single drain runs at a time; the guard is
// the draining flag owned by the queue mutex.
package prefetch

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/depfresh/depfresh/client"
	"github.com/depfresh/depfresh/internal/cache"
	"github.com/depfresh/depfresh/internal/track"
)

const (
	DefaultBatchSize  = 5
	DefaultBatchDelay = time.Second
)

// Fetcher resolves a package name to its latest published version.
type Fetcher interface {
	LatestVersion(ctx context.Context, name string) (string, error)
}

// item is one pending lookup: the package plus the manifest that asked.
type item struct {
	name string
	file string
}

// Queue feeds the package cache from the registry in batches.
type Queue struct {
	fetcher    Fetcher
	cache      *cache.Cache
	tracker    *track.Tracker
	logger     *log.Logger
	batchSize  int
	batchDelay time.Duration

	mu       sync.Mutex
	cond     *sync.Cond
	pending  []item
	queued   map[string]struct{}
	inFlight map[string]struct{}
	// waiting holds extra requesting files per queued or in-flight
	// name; they join the cache entry's consuming files once the
	// lookup settles.
	waiting  map[string]map[string]struct{}
	draining bool
}

// Option configures a Queue.
type Option func(*Queue)

// WithBatchSize sets how many lookups one batch issues concurrently.
func WithBatchSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.batchSize = n
		}
	}
}

// WithBatchDelay sets the pause between consecutive batches.
func WithBatchDelay(d time.Duration) Option {
	return func(q *Queue) {
		if d >= 0 {
			q.batchDelay = d
		}
	}
}

// WithLogger sets the logger used for drain progress.
func WithLogger(l *log.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.logger = l
		}
	}
}

// New creates a queue feeding c from fetcher, recording failures in t.
func New(fetcher Fetcher, c *cache.Cache, t *track.Tracker, opts ...Option) *Queue {
	q := &Queue{
		fetcher:    fetcher,
		cache:      c,
		tracker:    t,
		logger:     log.Default(),
		batchSize:  DefaultBatchSize,
		batchDelay: DefaultBatchDelay,
		queued:     make(map[string]struct{}),
		inFlight:   make(map[string]struct{}),
		waiting:    make(map[string]map[string]struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Add enqueues the packages that still need a lookup. A name is skipped
// when the cache already holds a fresh version for it, a fetch for it
// is in flight, or it is already waiting in the queue. A skip still
// records filePath as a consumer of the package: immediately for cached
// names, once the lookup settles for queued and in-flight ones. If no
// drain is running, one is started.
func (q *Queue) Add(names []string, filePath string) {
	q.mu.Lock()
	for _, name := range names {
		if name == "" {
			continue
		}
		_, queued := q.queued[name]
		_, inFlight := q.inFlight[name]
		if queued || inFlight {
			q.addWaiting(name, filePath)
			continue
		}
		if _, ok := q.cache.Get(name); ok {
			q.cache.AddFile(name, filePath)
			continue
		}
		q.pending = append(q.pending, item{name: name, file: filePath})
		q.queued[name] = struct{}{}
	}

	start := false
	if len(q.pending) > 0 && !q.draining {
		q.draining = true
		start = true
	}
	q.mu.Unlock()

	if start {
		go q.drain()
	}
}

// addWaiting records filePath against a name whose lookup has not
// settled yet. Caller holds q.mu.
func (q *Queue) addWaiting(name, filePath string) {
	if filePath == "" {
		return
	}
	files, ok := q.waiting[name]
	if !ok {
		files = make(map[string]struct{})
		q.waiting[name] = files
	}
	files[filePath] = struct{}{}
}

// Refresh marks the given names stale in the cache and re-enqueues
// them, forcing a refetch regardless of TTL. Failure bookkeeping is
// cleared so a manual refresh escapes the backoff window.
func (q *Queue) Refresh(names []string, filePath string) {
	q.cache.MarkStale(names)
	for _, name := range names {
		q.tracker.Clear(name)
	}
	q.Add(names, filePath)
}

// drain pulls batches until the queue empties. Work appended while
// draining is picked up by the same loop.
func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.draining = false
			q.cond.Broadcast()
			q.mu.Unlock()
			return
		}

		n := min(q.batchSize, len(q.pending))
		batch := make([]item, n)
		copy(batch, q.pending[:n])
		q.pending = q.pending[n:]
		for _, it := range batch {
			delete(q.queued, it.name)
			q.inFlight[it.name] = struct{}{}
		}
		q.mu.Unlock()

		q.processBatch(batch)

		q.mu.Lock()
		for _, it := range batch {
			delete(q.inFlight, it.name)
			// Files that asked while the lookup was pending join the
			// entry now. AddFile is a no-op when the fetch failed and
			// no entry exists.
			files := q.waiting[it.name]
			delete(q.waiting, it.name)
			for f := range files {
				q.cache.AddFile(it.name, f)
			}
		}
		more := len(q.pending) > 0
		q.cond.Broadcast()
		q.mu.Unlock()

		if more {
			time.Sleep(q.batchDelay)
		}
	}
}

// processBatch issues every lookup in the batch concurrently and waits
// for all of them to settle. A failed item never aborts the batch.
// Packages under backoff, or known to be missing, settle without a
// network call.
func (q *Queue) processBatch(batch []item) {
	now := time.Now()

	g := new(errgroup.Group)
	g.SetLimit(q.batchSize)

	for _, it := range batch {
		if info, ok := q.tracker.Lookup(it.name); ok && info.Terminal {
			q.logger.Debug("skipping known-missing package", "package", it.name)
			continue
		}
		if q.tracker.Suppressed(it.name, now) {
			q.logger.Debug("backoff window active", "package", it.name)
			continue
		}

		g.Go(func() error {
			version, err := q.fetcher.LatestVersion(context.Background(), it.name)
			if err != nil {
				q.tracker.RecordFailure(it.name, err)
				q.logger.Warn("lookup failed",
					"package", it.name,
					"kind", client.Classify(err).String(),
					"err", err)
				return nil
			}
			q.tracker.RecordSuccess(it.name)
			q.cache.Set(it.name, version, it.file)
			q.logger.Debug("cached latest version", "package", it.name, "version", version)
			return nil
		})
	}

	_ = g.Wait()
}

// Wait blocks until the queue is idle (nothing pending or in flight) or
// ctx is done.
func (q *Queue) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		q.mu.Lock()
		for q.draining || len(q.pending) > 0 || len(q.inFlight) > 0 {
			q.cond.Wait()
		}
		q.mu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
