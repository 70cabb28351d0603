package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/seenimoa/ratiobench/pkg/models"
)

// ── Rate limiter ──

func TestRateLimiterAllowsBurst(t *testing.T) {
	rl := NewRateLimiter(3, time.Second)
	ctx := context.Background()

	// Should allow 3 immediate calls.
	for i := 0; i < 3; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("Wait() #%d failed: %v", i, err)
		}
	}
}

func TestRateLimiterCancelledContext(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour) // 1 token, very slow refill.
	ctx := context.Background()

	// Use the single token.
	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("first Wait() failed: %v", err)
	}

	// Next call with cancelled context should fail.
	ctx2, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := rl.Wait(ctx2)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("Wait() #%d failed: %v", i, err)
		}
	}
}

func TestNewRateLimiterGuards(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	if rl.maxTokens != 1 || rl.refillRate != time.Second {
		t.Errorf("expected defaults, got max=%d refill=%v", rl.maxTokens, rl.refillRate)
	}
}

// ── Errors ──

func TestErrHTTPError(t *testing.T) {
	e := &ErrHTTP{StatusCode: 404, Status: "404 Not Found", Body: "page not found"}
	msg := e.Error()
	if msg != "HTTP 404 404 Not Found: page not found" {
		t.Fatalf("unexpected error message: %s", msg)
	}
}

func TestErrHTTPUnwrap(t *testing.T) {
	tests := []struct {
		code int
		want error
	}{
		{http.StatusNotFound, ErrTickerNotFound},
		{http.StatusTooManyRequests, ErrRateLimited},
	}
	for _, tt := range tests {
		err := fmt.Errorf("wrapped: %w", &ErrHTTP{StatusCode: tt.code})
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: expected errors.Is(%v)", tt.code, tt.want)
		}
	}

	err := &ErrHTTP{StatusCode: http.StatusInternalServerError}
	if errors.Is(err, ErrTickerNotFound) || errors.Is(err, ErrRateLimited) {
		t.Error("500 should not map onto a sentinel")
	}
}

func TestReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("x: %w", ErrTickerNotFound), "invalid or delisted ticker"},
		{fmt.Errorf("x: %w", ErrInsufficientData), "insufficient financial data"},
		{&ErrHTTP{StatusCode: 429}, "rate limited by data source"},
		{context.DeadlineExceeded, "request cancelled or timed out"},
		{errors.New("boom"), "data source error"},
	}
	for _, tt := range tests {
		if got := Reason(tt.err); got != tt.want {
			t.Errorf("Reason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

// ── Fetcher ──

func TestFetcherSetsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "ratiobench-test" {
			t.Errorf("User-Agent = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "text/html" {
			t.Errorf("Accept = %q", got)
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	f := newFetcher(Options{UserAgent: "ratiobench-test"}, nil)
	body, err := f.get(context.Background(), srv.URL, map[string]string{"Accept": "text/html"})
	if err != nil {
		t.Fatalf("get() error: %v", err)
	}
	defer body.Close()
	data, _ := io.ReadAll(body)
	if string(data) != "ok" {
		t.Errorf("body = %q", data)
	}
}

func TestFetcherHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, strings.Repeat("x", 4096))
	}))
	defer srv.Close()

	f := newFetcher(Options{}, nil)
	_, err := f.get(context.Background(), srv.URL, nil)

	var httpErr *ErrHTTP
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *ErrHTTP, got %v", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d", httpErr.StatusCode)
	}
	if len(httpErr.Body) != 1024 {
		t.Errorf("expected body truncated to 1024 bytes, got %d", len(httpErr.Body))
	}
	if !errors.Is(err, ErrRateLimited) {
		t.Error("expected ErrRateLimited")
	}
}

// ── Aggregator ──

type fakeSource struct {
	name  string
	facts map[string]*models.FinancialFacts
	err   error
	calls atomic.Int32
	delay time.Duration
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) GetFacts(ctx context.Context, ticker string) (*models.FinancialFacts, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	facts, ok := f.facts[ticker]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
	}
	return facts, nil
}

func sampleFacts(eps float64) *models.FinancialFacts {
	return &models.FinancialFacts{
		EPS:        models.Float(eps),
		SharePrice: models.Float(eps * 20),
	}
}

func TestAggregatorPrimarySource(t *testing.T) {
	primary := &fakeSource{name: "primary", facts: map[string]*models.FinancialFacts{"TCS.NS": sampleFacts(100)}}
	fallback := &fakeSource{name: "fallback", facts: map[string]*models.FinancialFacts{"TCS.NS": sampleFacts(1)}}
	agg := NewAggregator(2, primary, fallback)

	facts, err := agg.FetchFacts(context.Background(), "tcs")
	if err != nil {
		t.Fatalf("FetchFacts() error: %v", err)
	}
	if *facts.EPS != 100 {
		t.Errorf("expected primary facts, got EPS %v", *facts.EPS)
	}
	if facts.Source != "primary" || facts.Ticker != "TCS.NS" {
		t.Errorf("expected source/ticker filled in, got %q %q", facts.Source, facts.Ticker)
	}
	if fallback.calls.Load() != 0 {
		t.Error("fallback should not be called when primary succeeds")
	}
}

func TestAggregatorFallsBack(t *testing.T) {
	primary := &fakeSource{name: "primary", err: &ErrHTTP{StatusCode: 503}}
	empty := &fakeSource{name: "empty", facts: map[string]*models.FinancialFacts{"INFY.NS": {}}}
	fallback := &fakeSource{name: "fallback", facts: map[string]*models.FinancialFacts{"INFY.NS": sampleFacts(60)}}
	agg := NewAggregator(2, primary, empty, fallback)

	facts, err := agg.FetchFacts(context.Background(), "INFY.NS")
	if err != nil {
		t.Fatalf("FetchFacts() error: %v", err)
	}
	if facts.Source != "fallback" {
		t.Errorf("Source = %q, want fallback", facts.Source)
	}
}

func TestAggregatorAllSourcesFail(t *testing.T) {
	a := &fakeSource{name: "a", err: fmt.Errorf("%w: no eps", ErrTickerNotFound)}
	b := &fakeSource{name: "b", err: fmt.Errorf("%w: one period", ErrInsufficientData)}
	agg := NewAggregator(1, a, b)

	_, err := agg.FetchFacts(context.Background(), "XYZ")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if !errors.Is(err, ErrTickerNotFound) || !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected source errors to be reachable, got %v", err)
	}
	var ue *UnavailableError
	if !errors.As(err, &ue) || ue.Ticker != "XYZ" || len(ue.Causes) != 2 {
		t.Errorf("unexpected UnavailableError: %+v", ue)
	}
}

func TestAggregatorNoSources(t *testing.T) {
	_, err := NewAggregator(1).FetchFacts(context.Background(), "TCS")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestFetchAllKeepsInputOrder(t *testing.T) {
	src := &fakeSource{
		name:  "fake",
		delay: 5 * time.Millisecond,
		facts: map[string]*models.FinancialFacts{
			"TCS.NS":   sampleFacts(1),
			"INFY.NS":  sampleFacts(2),
			"WIPRO.NS": sampleFacts(3),
		},
	}
	agg := NewAggregator(2, src)

	results := agg.FetchAll(context.Background(), []string{"WIPRO", "missing", "tcs", "INFY.NS"})
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	wantTickers := []string{"WIPRO.NS", "MISSING", "TCS.NS", "INFY.NS"}
	for i, want := range wantTickers {
		if results[i].Ticker != want {
			t.Errorf("results[%d].Ticker = %q, want %q", i, results[i].Ticker, want)
		}
	}
	if !results[0].OK() || *results[0].Facts.EPS != 3 {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].OK() || !errors.Is(results[1].Err, ErrUnavailable) {
		t.Errorf("expected missing ticker to fail, got %+v", results[1])
	}
	if !results[2].OK() || !results[3].OK() {
		t.Error("expected TCS and INFY to succeed")
	}
}

func TestFetchAllCancelled(t *testing.T) {
	src := &fakeSource{name: "slow", delay: time.Second, facts: map[string]*models.FinancialFacts{}}
	agg := NewAggregator(4, src)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	results := agg.FetchAll(ctx, []string{"A", "B"})
	for _, r := range results {
		if r.OK() {
			t.Errorf("expected %s to fail after cancellation", r.Ticker)
		}
	}
}

func TestSourceNames(t *testing.T) {
	agg := NewAggregator(0, &fakeSource{name: "yfinance"}, &fakeSource{name: "screener"})
	got := strings.Join(agg.SourceNames(), ",")
	if got != "yfinance,screener" {
		t.Errorf("SourceNames() = %q", got)
	}
	if agg.concurrency != DefaultConcurrency {
		t.Errorf("concurrency = %d, want default", agg.concurrency)
	}
}

// ── Helpers ──

func TestCoalesce(t *testing.T) {
	tests := []struct {
		input []string
		want  string
	}{
		{[]string{"", "", "hello"}, "hello"},
		{[]string{"first", "second"}, "first"},
		{[]string{"", ""}, ""},
		{[]string{"  ", "actual"}, "actual"},
	}
	for _, tt := range tests {
		got := coalesce(tt.input...)
		if got != tt.want {
			t.Errorf("coalesce(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSumPresent(t *testing.T) {
	if sumPresent(nil, nil) != nil {
		t.Error("expected nil when nothing is present")
	}
	got := sumPresent(models.Float(2), nil, models.Float(3))
	if got == nil || *got != 5 {
		t.Errorf("sumPresent = %v, want 5", got)
	}
}
