package client

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors for registry outcomes the pipeline treats specially.
var (
	// ErrNotFound means the registry has no such package. Terminal:
	// the pipeline never retries it automatically.
	ErrNotFound = errors.New("package not found")

	// ErrRateLimited means the registry answered 429.
	ErrRateLimited = errors.New("rate limited by registry")

	// ErrNoLatestVersion means the package document carried no
	// "latest" dist-tag.
	ErrNoLatestVersion = errors.New("no latest version published")

	// ErrUpstreamDown means the registry host's circuit is open after
	// repeated consecutive failures.
	ErrUpstreamDown = errors.New("registry unavailable")
)

// HTTPError represents a non-200 response outside the dedicated taxonomy.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
}

// ParseError represents a malformed registry response body. Transient:
// a registry hiccup, not a fact about the package.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Kind is the classified failure category of a registry lookup.
type Kind int

const (
	KindNone Kind = iota
	KindNotFound
	KindRateLimited
	KindTimeout
	KindNetwork
	KindHTTP
	KindParse
	KindNoLatest
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNotFound:
		return "not-found"
	case KindRateLimited:
		return "rate-limited"
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network-error"
	case KindHTTP:
		return "http-error"
	case KindParse:
		return "parse-error"
	case KindNoLatest:
		return "no-latest-version"
	}
	return "unknown"
}

// Classify maps a lookup error to its failure category.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrNoLatestVersion):
		return KindNoLatest
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return KindParse
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return KindHTTP
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	return KindNetwork
}

// Terminal reports whether err is a permanent fact about the package
// rather than a transient registry condition.
func Terminal(err error) bool {
	return errors.Is(err, ErrNotFound)
}
