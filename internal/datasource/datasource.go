// Package datasource retrieves raw financial statement figures for listed
// companies. It defines a common FactsSource interface, concrete sources
// for Yahoo Finance and Screener.in, and an Aggregator that falls back
// across sources and fans out over many tickers.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/seenimoa/ratiobench/pkg/models"
)

// FactsSource retrieves financial facts for one ticker.
type FactsSource interface {
	// Name returns the human-readable name of this data source.
	Name() string

	// GetFacts returns the latest annual statement figures plus market
	// data for ticker. Figures the source does not report are left nil.
	GetFacts(ctx context.Context, ticker string) (*models.FinancialFacts, error)
}

// --- Sentinel errors ---

// ErrTickerNotFound is returned when a ticker cannot be resolved, or is
// delisted.
var ErrTickerNotFound = errors.New("ticker not found")

// ErrRateLimited is returned when a source rate-limits the request.
var ErrRateLimited = errors.New("rate limited by data source")

// ErrInsufficientData is returned when the source answers but lacks the
// statements needed to compute ratios.
var ErrInsufficientData = errors.New("insufficient financial data")

// ErrUnavailable marks an entity whose data could not be retrieved from any
// source.
var ErrUnavailable = errors.New("entity unavailable")

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// Unwrap maps well-known status codes onto the sentinel errors so callers
// can use errors.Is.
func (e *ErrHTTP) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrTickerNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return nil
	}
}

// --- Shared HTTP client helpers ---

// DefaultUserAgent is the user agent string used for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Options configures the HTTP behaviour shared by all sources.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	RateLimit int // requests per second; 0 disables limiting
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	return o
}

// fetcher performs rate-limited GET requests.
type fetcher struct {
	client    *http.Client
	userAgent string
	limiter   *RateLimiter
}

func newFetcher(opts Options, client *http.Client) *fetcher {
	opts = opts.withDefaults()
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	f := &fetcher{client: client, userAgent: opts.UserAgent}
	if opts.RateLimit > 0 {
		f.limiter = NewRateLimiter(opts.RateLimit, time.Second/time.Duration(opts.RateLimit))
	}
	return f
}

// get performs a GET request with the given URL and headers, returning the
// response body. The caller is responsible for closing the returned
// ReadCloser.
func (f *fetcher) get(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Set default headers.
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json, text/html, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	// Override/add custom headers.
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", url, err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return resp.Body, nil
}

// --- Rate limiter ---

// RateLimiter provides simple token-bucket rate limiting.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
}

// NewRateLimiter creates a rate limiter holding up to maxTokens tokens and
// adding one every refillRate.
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	if maxTokens < 1 {
		maxTokens = 1
	}
	if refillRate <= 0 {
		refillRate = time.Second
	}
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		rl.refill()
		if rl.tokens > 0 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}
		wait := rl.refillRate - time.Since(rl.lastRefill)
		rl.mu.Unlock()

		if wait <= 0 || wait > 100*time.Millisecond {
			wait = 100 * time.Millisecond
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
			// Check again after a short sleep.
		}
	}
}

// refill adds tokens based on elapsed time. Must be called with mu held.
func (rl *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill)
	if elapsed >= rl.refillRate {
		periods := int(elapsed / rl.refillRate)
		rl.tokens += periods
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		rl.lastRefill = rl.lastRefill.Add(time.Duration(periods) * rl.refillRate)
	}
}
