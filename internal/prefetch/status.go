package prefetch

import (
	"time"

	"github.com/depfresh/depfresh/client"
)

// State is the per-package lifecycle word shown to consumers.
type State string

const (
	// StateUnknown means the package was never requested.
	StateUnknown State = "unknown"

	// StateLoading means a request is queued or in flight.
	StateLoading State = "loading"

	// StateSuccess means a fresh version is cached.
	StateSuccess State = "success"

	// StateNotFound means the registry does not have the package.
	// Stable until the manifest line is edited or a manual refresh.
	StateNotFound State = "not-found"

	// StateRateLimited, StateTimeout and StateError are transient
	// failure states; they block future attempts only through the
	// backoff window.
	StateRateLimited State = "rate-limited"
	StateTimeout     State = "timeout"
	StateError       State = "error"

	// StateMaxRetries is shown while the backoff window is active.
	StateMaxRetries State = "max-retries"
)

// Status describes a package as observed by a consumer: its lifecycle
// state, the cached version for success, and the attempt count for the
// failure states.
type Status struct {
	State    State
	Version  string
	Attempts int
}

// Status reports the current state of name, derived from the queue
// (pending or in flight means loading), the cache (a fresh entry means
// success), and the failure tracker.
func (q *Queue) Status(name string) Status {
	q.mu.Lock()
	_, queued := q.queued[name]
	_, inFlight := q.inFlight[name]
	q.mu.Unlock()

	if queued || inFlight {
		return Status{State: StateLoading}
	}

	if version, ok := q.cache.Get(name); ok {
		return Status{State: StateSuccess, Version: version}
	}

	info, ok := q.tracker.Lookup(name)
	if !ok {
		return Status{State: StateUnknown}
	}
	if info.Terminal {
		return Status{State: StateNotFound}
	}
	if q.tracker.Suppressed(name, time.Now()) {
		return Status{State: StateMaxRetries, Attempts: info.Attempts}
	}

	switch info.Kind {
	case client.KindRateLimited:
		return Status{State: StateRateLimited, Attempts: info.Attempts}
	case client.KindTimeout:
		return Status{State: StateTimeout, Attempts: info.Attempts}
	default:
		return Status{State: StateError, Attempts: info.Attempts}
	}
}
