package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/pfrederiksen/census-dict/internal/logger"
	"github.com/pfrederiksen/census-dict/internal/storage"
)

const (
	UserAgent = "census-dict/1.0 (github.com/pfrederiksen/census-dict)"
	Timeout   = 30 * time.Second
)

// ErrUnexpectedStatus is returned for a non-200 response
var ErrUnexpectedStatus = errors.New("unexpected status code")

// Options configures a Fetcher
type Options struct {
	// Cache serves and stores pages; nil disables caching
	Cache *storage.PageCache
	// Refresh skips cache reads; fetched pages are still written
	Refresh bool
	// RatePerSecond limits outgoing requests; zero means unlimited
	RatePerSecond float64
	// MaxRetries bounds retries of transient failures
	MaxRetries int
	// Timeout applies to each request; zero uses the package default
	Timeout time.Duration
	// InitialBackoff is the first retry delay; zero uses the backoff default
	InitialBackoff time.Duration
}

// Fetcher retrieves raw page markup
type Fetcher struct {
	client         *http.Client
	limiter        *rate.Limiter
	cache          *storage.PageCache
	refresh        bool
	maxRetries     int
	initialBackoff time.Duration
}

// New creates a new Fetcher
func New(opts Options) *Fetcher {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = Timeout
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		limiter:        rate.NewLimiter(limit, 1),
		cache:          opts.Cache,
		refresh:        opts.Refresh,
		maxRetries:     opts.MaxRetries,
		initialBackoff: opts.InitialBackoff,
	}
}

// Fetch returns the markup of url, using the cache entry stored under key
// when present.
func (f *Fetcher) Fetch(ctx context.Context, key, url string) (string, error) {
	if f.cache != nil && !f.refresh {
		markup, ok, err := f.cache.Get(key)
		if err != nil {
			return "", err
		}
		if ok {
			logger.Debug("page served from cache", logger.Fields{"key": key})
			logger.IncrCounter("fetch.cache_hits")
			return markup, nil
		}
	}

	start := time.Now()
	markup, err := f.fetchWithRetry(ctx, url)
	logger.RecordTiming("fetch.remote", time.Since(start))
	if err != nil {
		return "", err
	}

	if f.cache != nil {
		if err := f.cache.Put(key, markup); err != nil {
			logger.Warn("failed to cache page", logger.Fields{"key": key, "error": err.Error()})
		}
	}
	return markup, nil
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, url string) (string, error) {
	exp := backoff.NewExponentialBackOff()
	if f.initialBackoff > 0 {
		exp.InitialInterval = f.initialBackoff
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(f.maxRetries)), ctx)

	var markup string
	operation := func() error {
		body, err := f.get(ctx, url)
		if err != nil {
			return err
		}
		markup = body
		return nil
	}

	notify := func(err error, wait time.Duration) {
		logger.Warn("fetch failed, retrying", logger.Fields{
			"url":  url,
			"wait": wait.String(),
		})
		logger.IncrCounter("fetch.retries")
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return "", err
	}
	return markup, nil
}

// get performs a single request. Client errors are permanent; network errors
// and server errors may be retried.
func (f *Fetcher) get(ctx context.Context, url string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", backoff.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", backoff.Permanent(ctx.Err())
		}
		return "", fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return "", backoff.Permanent(err)
		}
		return "", err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	return string(data), nil
}
