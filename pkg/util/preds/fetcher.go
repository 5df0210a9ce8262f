package preds

import (
	"golang.org/x/time/rate"

	"github.com/stattip/stattip/pkg/transport"
)

// HTTPFetcher fetches pages through the shared HTTP client with the
// configured retry policy and rate limit
type HTTPFetcher struct {
	policy transport.RetryPolicy
}

// NewHTTPFetcher builds the production fetcher from the config's
// network settings. One limiter is shared across every fetch so the
// fan-out cannot hammer the upstream site.
func NewHTTPFetcher(cfg *Config) *HTTPFetcher {
	policy := transport.RetryPolicy{
		MaxAttempts: cfg.MaxRetries,
		Delay:       cfg.RetryDelay.Std(),
		Timeout:     cfg.FetchTimeout.Std(),
		UserAgent:   cfg.UserAgent,
	}
	if cfg.RequestsPerSecond > 0 {
		policy.Limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &HTTPFetcher{policy: policy}
}

// Fetch retrieves one page
func (f *HTTPFetcher) Fetch(url string) ([]byte, error) {
	return transport.GetHTMLWithRetry(url, f.policy)
}
