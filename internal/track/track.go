// Package track records consecutive fetch failures per package and
// implements the retry-suppression window.
package track

import (
	"sync"
	"time"

	"github.com/depfresh/depfresh/client"
)

const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 30 * time.Second
)

// Info is the failure record for one package.
type Info struct {
	Attempts    int
	LastAttempt time.Time
	Kind        client.Kind

	// Terminal marks a package the registry does not have. It is never
	// retried automatically and does not consume retry attempts.
	Terminal bool
}

// Tracker keeps per-package failure bookkeeping. Successful fetches
// clear a package's record; repeated failures suppress further network
// calls until the retry window elapses.
type Tracker struct {
	mu          sync.RWMutex
	maxAttempts int
	retryDelay  time.Duration
	failures    map[string]*Info
}

// New creates a tracker. Non-positive arguments select the defaults
// (3 attempts, 30s window).
func New(maxAttempts int, retryDelay time.Duration) *Tracker {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	return &Tracker{
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		failures:    make(map[string]*Info),
	}
}

// RecordFailure updates the record for name after a failed fetch.
// A terminal not-found is remembered without touching the retry
// counters: it is a fact about the package, not a flaky registry.
func (t *Tracker) RecordFailure(name string, err error) {
	kind := client.Classify(err)

	t.mu.Lock()
	defer t.mu.Unlock()

	info, ok := t.failures[name]
	if !ok {
		info = &Info{}
		t.failures[name] = info
	}
	info.Kind = kind

	if kind == client.KindNotFound {
		info.Terminal = true
		return
	}
	info.Attempts++
	info.LastAttempt = time.Now()
}

// RecordSuccess clears any failure record for name.
func (t *Tracker) RecordSuccess(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.failures, name)
}

// Clear drops the record for name, terminal or not. Used by manual
// refresh and when a manifest stops declaring the package.
func (t *Tracker) Clear(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.failures, name)
}

// Lookup returns the failure record for name, if any.
func (t *Tracker) Lookup(name string) (Info, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	info, ok := t.failures[name]
	if !ok {
		return Info{}, false
	}
	return *info, true
}

// Suppressed reports whether fetches for name should be skipped right
// now: the package has exhausted its attempts and the retry window has
// not elapsed. Once the window passes, one more attempt is permitted
// (which may re-trip the suppression).
func (t *Tracker) Suppressed(name string, now time.Time) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	info, ok := t.failures[name]
	if !ok {
		return false
	}
	return info.Attempts >= t.maxAttempts && now.Sub(info.LastAttempt) < t.retryDelay
}
