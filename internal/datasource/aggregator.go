package datasource

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/ratiobench/internal/logger"
	"github.com/seenimoa/ratiobench/pkg/models"
	"github.com/seenimoa/ratiobench/pkg/utils"
)

// DefaultConcurrency bounds FetchAll when no limit is configured.
const DefaultConcurrency = 5

// Aggregator fetches financial facts from an ordered list of sources: the
// first source is primary and the rest are fallbacks.
type Aggregator struct {
	sources     []FactsSource
	concurrency int
}

// NewAggregator creates an aggregator over sources, tried in order.
// concurrency bounds the number of tickers fetched at once by FetchAll.
func NewAggregator(concurrency int, sources ...FactsSource) *Aggregator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Aggregator{sources: sources, concurrency: concurrency}
}

// Sources returns the registered sources in fallback order.
func (a *Aggregator) Sources() []FactsSource {
	out := make([]FactsSource, len(a.sources))
	copy(out, a.sources)
	return out
}

// SourceNames returns the names of the registered sources in order.
func (a *Aggregator) SourceNames() []string {
	names := make([]string, len(a.sources))
	for i, s := range a.sources {
		names[i] = s.Name()
	}
	return names
}

// FetchResult is the outcome of fetching one ticker.
type FetchResult struct {
	Ticker string
	Facts  *models.FinancialFacts
	Err    error
}

// OK reports whether usable facts were retrieved.
func (r FetchResult) OK() bool {
	return r.Err == nil && r.Facts != nil
}

// FetchFacts tries each source in order and returns the first non-empty
// facts. When every source fails, the returned error wraps ErrUnavailable
// and each source's error.
func (a *Aggregator) FetchFacts(ctx context.Context, ticker string) (*models.FinancialFacts, error) {
	symbol := utils.NormalizeTicker(ticker)
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty ticker", ErrUnavailable)
	}
	if len(a.sources) == 0 {
		return nil, fmt.Errorf("%w: %s: no data sources configured", ErrUnavailable, symbol)
	}

	op := logger.StartOperation(ctx, "datasource.fetch_facts", attribute.String("ticker", symbol))
	ctx = op.Context()
	log := logger.FromContext(ctx).With(zap.String("ticker", symbol))

	var errs []error
	for _, src := range a.sources {
		if err := ctx.Err(); err != nil {
			op.End(err)
			return nil, err
		}

		start := time.Now()
		facts, err := src.GetFacts(ctx, symbol)
		if err == nil && facts.IsEmpty() {
			err = fmt.Errorf("%w: %s returned no figures", ErrInsufficientData, src.Name())
		}
		if err != nil {
			log.Debug("source failed",
				zap.String("source", src.Name()),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}

		if facts.Ticker == "" {
			facts.Ticker = symbol
		}
		if facts.Source == "" {
			facts.Source = src.Name()
		}
		op.End(nil, zap.String("source", src.Name()), zap.Int("line_items", facts.Present()))
		return facts, nil
	}

	err := &UnavailableError{Ticker: symbol, Causes: errs}
	op.End(err)
	return nil, err
}

// FetchAll fetches every ticker concurrently, at most a.concurrency at a
// time, and returns one result per ticker in input order. Per-ticker
// failures are reported in FetchResult.Err; only cancellation of ctx stops
// the remaining fetches.
func (a *Aggregator) FetchAll(ctx context.Context, tickers []string) []FetchResult {
	results := make([]FetchResult, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, t := range tickers {
		results[i].Ticker = utils.NormalizeTicker(t)
		if results[i].Ticker == "" {
			results[i].Ticker = t
		}
		g.Go(func() error {
			facts, err := a.FetchFacts(gctx, t)
			// Each goroutine owns its slot; no lock needed.
			results[i].Facts = facts
			results[i].Err = err
			return nil // non-fatal
		})
	}

	_ = g.Wait()
	return results
}

// UnavailableError reports that no source could supply facts for Ticker.
// It matches ErrUnavailable with errors.Is, and the individual source
// errors with errors.Is / errors.As.
type UnavailableError struct {
	Ticker string
	Causes []error
}

func (e *UnavailableError) Error() string {
	if len(e.Causes) == 0 {
		return fmt.Sprintf("%s: %s", ErrUnavailable, e.Ticker)
	}
	parts := make([]string, len(e.Causes))
	for i, c := range e.Causes {
		parts[i] = c.Error()
	}
	return fmt.Sprintf("%s: %s: %s", ErrUnavailable, e.Ticker, strings.Join(parts, "; "))
}

// Unwrap exposes ErrUnavailable and every source error.
func (e *UnavailableError) Unwrap() []error {
	return append([]error{ErrUnavailable}, e.Causes...)
}

// Reason returns a short user-facing explanation of why the ticker is
// unavailable, derived from the most specific source error.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "request cancelled or timed out"
	case errors.Is(err, ErrTickerNotFound):
		return "invalid or delisted ticker"
	case errors.Is(err, ErrInsufficientData):
		return "insufficient financial data"
	case errors.Is(err, ErrRateLimited):
		return "rate limited by data source"
	default:
		return "data source error"
	}
}
