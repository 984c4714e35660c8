package client

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

// BreakerClient wraps a Client with per-host circuit breakers. When the
// registry itself is down, the breaker trips open instead of letting
// every queued package burn its own retry budget against a dead host.
type BreakerClient struct {
	client   *Client
	breakers map[string]*circuit.Breaker
	mu       sync.RWMutex
}

// NewBreakerClient creates a circuit breaker wrapper for a client.
func NewBreakerClient(c *Client) *BreakerClient {
	return &BreakerClient{
		client:   c,
		breakers: make(map[string]*circuit.Breaker),
	}
}

// getBreaker returns or creates a circuit breaker for the given host.
func (b *BreakerClient) getBreaker(host string) *circuit.Breaker {
	b.mu.RLock()
	breaker, exists := b.breakers[host]
	b.mu.RUnlock()

	if exists {
		return breaker
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Double-check after acquiring write lock
	if breaker, exists := b.breakers[host]; exists {
		return breaker
	}

	// Trips after 5 consecutive failures
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	opts := &circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(5),
	}
	breaker = circuit.NewBreakerWithOptions(opts)

	b.breakers[host] = breaker
	return breaker
}

// GetJSON wraps the underlying client's GetJSON with circuit breaker
// logic. A terminal not-found counts as breaker success: a 404 proves
// the host is healthy.
func (b *BreakerClient) GetJSON(ctx context.Context, rawURL string, v any) error {
	host := extractHost(rawURL)
	breaker := b.getBreaker(host)

	if !breaker.Ready() {
		return fmt.Errorf("circuit open for %s: %w", host, ErrUpstreamDown)
	}

	err := b.client.GetJSON(ctx, rawURL, v)
	if err == nil || Terminal(err) {
		breaker.Success()
	} else {
		breaker.Fail()
	}
	return err
}

// extractHost extracts a host identifier from a URL for breaker grouping.
func extractHost(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		if len(rawURL) > 50 {
			return rawURL[:50]
		}
		return rawURL
	}
	return parsed.Host
}

// BreakerState returns the current state of every host breaker, for
// diagnostics.
func (b *BreakerClient) BreakerState() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	states := make(map[string]string)
	for host, breaker := range b.breakers {
		if breaker.Tripped() {
			states[host] = "open"
		} else {
			states[host] = "closed"
		}
	}
	return states
}
