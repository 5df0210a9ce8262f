package transport

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stattip/stattip/internal/logger"
	"golang.org/x/time/rate"
)

var httpClient *http.Client

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// RetryPolicy controls how many times a GET is attempted and how long we
// wait between attempts. The prediction site throttles aggressive clients,
// so the limiter paces requests across the whole process.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Timeout     time.Duration
	UserAgent   string
	Limiter     *rate.Limiter
}

// DefaultRetryPolicy returns the retry discipline used by the pipeline:
// 3 attempts, 2 seconds between them, 10 seconds per attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Delay:       2 * time.Second,
		Timeout:     10 * time.Second,
		UserAgent:   defaultUserAgent,
	}
}

// GetCustomHTTPClient returns the shared HTTP client with the system
// certificate pool and environment proxy settings
func GetCustomHTTPClient() (*http.Client, error) {
	if httpClient != nil {
		return httpClient, nil
	}

	rootCAs, err := x509.SystemCertPool()
	if err != nil {
		logger.Warn("Failed to get system cert pool", err)
		rootCAs = x509.NewCertPool()
	}

	customTransport := &http.Transport{
		TLSClientConfig: &tls.Config{
			RootCAs: rootCAs,
		},
		Proxy: http.ProxyFromEnvironment,
	}

	client := &http.Client{
		Transport: customTransport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Allow up to 10 redirects (default behavior)
			if len(via) >= 10 {
				return fmt.Errorf("stopped after 10 redirects")
			}
			return nil
		},
	}
	httpClient = client
	return client, nil
}

// GetHTML fetches the page at htmlUrl once, handling content encoding.
// The timeout bounds the whole attempt including body read.
func GetHTML(htmlUrl string, timeout time.Duration, userAgent string) ([]byte, error) {
	client, err := GetCustomHTTPClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, htmlUrl, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	// Make the request look like a browser
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch html: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("request returned error status %d", resp.StatusCode)
	}

	// handle compression (Content-Encoding)
	var reader io.ReadCloser = resp.Body
	contentEncoding := resp.Header.Get("Content-Encoding")
	switch contentEncoding {
	case "gzip":
		reader, err = gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer reader.Close()
	case "deflate":
		reader = flate.NewReader(resp.Body)
		defer reader.Close()
	case "br":
		reader = io.NopCloser(brotli.NewReader(resp.Body))
		defer reader.Close()
	default:
		if contentEncoding != "" {
			logger.Warn("Unknown content encoding:", contentEncoding)
		}
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	return data, nil
}

// GetHTMLWithRetry fetches the page at htmlUrl, retrying failed attempts
// per the policy. Success short-circuits; after the final failed attempt
// the last error is returned to the caller. There is no fallback to stale
// data at this layer.
func GetHTMLWithRetry(htmlUrl string, policy RetryPolicy) ([]byte, error) {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if policy.Limiter != nil {
			if err := policy.Limiter.Wait(context.Background()); err != nil {
				return nil, fmt.Errorf("rate limiter: %w", err)
			}
		}

		data, err := GetHTML(htmlUrl, policy.Timeout, policy.UserAgent)
		if err == nil {
			return data, nil
		}

		lastErr = err
		logger.Warn(fmt.Sprintf("Attempt %d/%d failed for %s:", attempt, attempts, htmlUrl), err)
		if attempt < attempts {
			time.Sleep(policy.Delay)
		}
	}

	return nil, fmt.Errorf("all %d attempts failed for %s: %w", attempts, htmlUrl, lastErr)
}
