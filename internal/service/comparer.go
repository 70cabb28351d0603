// Package service runs peer comparisons end to end: it validates a request,
// fetches every entity through the datasource aggregator, computes ratios
// and benchmarks the target against its peers.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/seenimoa/ratiobench/internal/analysis/fundamental"
	"github.com/seenimoa/ratiobench/internal/datasource"
	"github.com/seenimoa/ratiobench/internal/logger"
	"github.com/seenimoa/ratiobench/internal/search"
	"github.com/seenimoa/ratiobench/pkg/models"
	"github.com/seenimoa/ratiobench/pkg/utils"
)

// ErrMissingTarget is returned when the request names no target ticker.
var ErrMissingTarget = errors.New("a company ticker is required")

// ErrNoPeers is returned when the request names no peer other than the
// target.
var ErrNoPeers = errors.New("at least one competitor ticker is required")

// TargetUnavailableError reports that the target's data could not be
// fetched, so no comparison is possible.
type TargetUnavailableError struct {
	Ticker string
	Reason string
	Err    error
}

func (e *TargetUnavailableError) Error() string {
	return fmt.Sprintf("failed to fetch data for main ticker %s: %s", e.Ticker, e.Reason)
}

// Unwrap exposes datasource.ErrUnavailable and the fetch error.
func (e *TargetUnavailableError) Unwrap() []error {
	if e.Err == nil {
		return []error{datasource.ErrUnavailable}
	}
	return []error{datasource.ErrUnavailable, e.Err}
}

// NoPeersAvailableError reports that none of the peers could be fetched, so
// no benchmark can be built. Peers carries every per-peer reason.
type NoPeersAvailableError struct {
	Peers []Unavailability
}

func (e *NoPeersAvailableError) Error() string {
	parts := make([]string, len(e.Peers))
	for i, p := range e.Peers {
		parts[i] = p.Ticker + ": " + p.Reason
	}
	return "could not fetch valid data for any of the competitors, cannot create a benchmark (" +
		strings.Join(parts, "; ") + ")"
}

// Unwrap makes the error match datasource.ErrUnavailable.
func (e *NoPeersAvailableError) Unwrap() error { return datasource.ErrUnavailable }

// Unavailability records an entity that was dropped from the comparison.
type Unavailability struct {
	Ticker string `json:"ticker" yaml:"ticker"`
	Reason string `json:"reason" yaml:"reason"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// CompareRequest names a target and the peers to benchmark it against.
type CompareRequest struct {
	Ticker string   `json:"ticker"`
	Peers  []string `json:"peers"`
}

// Result is a completed comparison.
type Result struct {
	ID          string                      `json:"id"`
	Ticker      string                      `json:"ticker"`
	Name        string                      `json:"name,omitempty"`
	Peers       []string                    `json:"peers"`
	Comparison  fundamental.PeerComparison  `json:"comparison"`
	Health      fundamental.FinancialHealth `json:"health"`
	Unavailable []Unavailability            `json:"unavailable,omitempty"`
	GeneratedAt time.Time                   `json:"generated_at"`
}

// RatiosResult is the ratio set of a single entity.
type RatiosResult struct {
	Ticker      string                      `json:"ticker"`
	Name        string                      `json:"name,omitempty"`
	Facts       *models.FinancialFacts      `json:"facts"`
	Ratios      fundamental.RatioSet        `json:"ratios"`
	Health      fundamental.FinancialHealth `json:"health"`
	GeneratedAt time.Time                   `json:"generated_at"`
}

// Config wires a Comparer.
type Config struct {
	Aggregator *datasource.Aggregator
	Directory  *search.Directory            // optional; supplies company names
	Policy     *fundamental.DirectionPolicy // nil means fundamental.DefaultPolicy
}

// Comparer runs comparisons. It is safe for concurrent use.
type Comparer struct {
	agg       *datasource.Aggregator
	directory *search.Directory
	policy    fundamental.DirectionPolicy
}

// NewComparer creates a Comparer from cfg.
func NewComparer(cfg Config) *Comparer {
	c := &Comparer{
		agg:       cfg.Aggregator,
		directory: cfg.Directory,
		policy:    fundamental.DefaultPolicy(),
	}
	if cfg.Policy != nil {
		c.policy = *cfg.Policy
	}
	if c.agg == nil {
		c.agg = datasource.NewAggregator(0)
	}
	return c
}

// Policy returns the direction policy used for verdicts.
func (c *Comparer) Policy() fundamental.DirectionPolicy { return c.policy }

// Sources returns the names of the configured data sources in fallback
// order.
func (c *Comparer) Sources() []string { return c.agg.SourceNames() }

// Directory returns the company directory, which may be nil.
func (c *Comparer) Directory() *search.Directory { return c.directory }

// Compare validates req, fetches the target and every peer concurrently,
// and benchmarks the target against the average of the peers that could be
// fetched.
func (c *Comparer) Compare(ctx context.Context, req CompareRequest) (*Result, error) {
	target, peers, err := normalizeRequest(req)
	if err != nil {
		return nil, err
	}

	op := logger.StartOperation(ctx, "service.compare",
		attribute.String("ticker", target),
		attribute.Int("peer_count", len(peers)))
	ctx = logger.With(op.Context(), zap.String("ticker", target))

	res, err := c.compare(ctx, target, peers)
	if err != nil {
		op.End(err)
		return nil, err
	}
	op.End(nil,
		zap.Int("available_peers", res.Comparison.AvailablePeers()),
		zap.String("tally", res.Comparison.Tally.String()))
	return res, nil
}

func (c *Comparer) compare(ctx context.Context, target string, peers []string) (*Result, error) {
	log := logger.FromContext(ctx)

	// Every fetch completes before anything is benchmarked.
	results := c.agg.FetchAll(ctx, append([]string{target}, peers...))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tr := results[0]
	if !tr.OK() {
		return nil, &TargetUnavailableError{
			Ticker: target,
			Reason: datasource.Reason(tr.Err),
			Err:    tr.Err,
		}
	}
	targetEntry := fundamental.NewPeerEntry(target, tr.Facts, nil)
	targetEntry.Name = c.name(target)

	var (
		entries     = make([]fundamental.PeerEntry, 0, len(peers))
		unavailable []Unavailability
	)
	for _, r := range results[1:] {
		entry := fundamental.NewPeerEntry(r.Ticker, r.Facts, r.Err)
		entry.Name = c.name(r.Ticker)
		if !r.OK() {
			u := unavailableFrom(r)
			entry.Available = false
			entry.Reason = u.Reason
			unavailable = append(unavailable, u)
			log.Info("peer unavailable",
				zap.String("peer", r.Ticker),
				zap.String("reason", u.Reason))
		}
		entries = append(entries, entry)
	}

	if len(unavailable) == len(entries) {
		return nil, &NoPeersAvailableError{Peers: unavailable}
	}

	comparison := fundamental.ComparePeers(targetEntry, entries, c.policy)

	return &Result{
		ID:          uuid.New().String(),
		Ticker:      target,
		Name:        targetEntry.Name,
		Peers:       peers,
		Comparison:  comparison,
		Health:      fundamental.AssessFinancialHealth(targetEntry.Ratios),
		Unavailable: unavailable,
		GeneratedAt: utils.NowIST(),
	}, nil
}

// Ratios fetches one entity and computes its ratio set.
func (c *Comparer) Ratios(ctx context.Context, ticker string) (*RatiosResult, error) {
	symbol := utils.NormalizeTicker(ticker)
	if symbol == "" {
		return nil, ErrMissingTarget
	}

	op := logger.StartOperation(ctx, "service.ratios", attribute.String("ticker", symbol))
	facts, err := c.agg.FetchFacts(op.Context(), symbol)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			op.End(ctxErr)
			return nil, ctxErr
		}
		terr := &TargetUnavailableError{Ticker: symbol, Reason: datasource.Reason(err), Err: err}
		op.End(terr)
		return nil, terr
	}

	ratios := fundamental.CalculateRatios(facts)
	op.End(nil, zap.Int("defined_ratios", ratios.Defined()))

	return &RatiosResult{
		Ticker:      symbol,
		Name:        c.name(symbol),
		Facts:       facts,
		Ratios:      ratios,
		Health:      fundamental.AssessFinancialHealth(ratios),
		GeneratedAt: utils.NowIST(),
	}, nil
}

// SectorPeers returns the tickers of the directory companies sharing
// ticker's sector. It returns nil when no directory is configured or the
// ticker is not listed.
func (c *Comparer) SectorPeers(ticker string) []string {
	if c.directory == nil {
		return nil
	}
	var out []string
	for _, co := range c.directory.SectorPeers(ticker) {
		out = append(out, co.Ticker)
	}
	return out
}

func (c *Comparer) name(ticker string) string {
	if c.directory == nil {
		return ""
	}
	return c.directory.Name(ticker)
}

// normalizeRequest resolves the target and peer tickers. Peers are
// de-duplicated and the target is removed from them.
func normalizeRequest(req CompareRequest) (string, []string, error) {
	target := utils.NormalizeTicker(req.Ticker)
	if target == "" {
		return "", nil, ErrMissingTarget
	}

	var peers []string
	for _, p := range utils.NormalizeTickers(req.Peers) {
		if p != target {
			peers = append(peers, p)
		}
	}
	if len(peers) == 0 {
		return "", nil, ErrNoPeers
	}
	return target, peers, nil
}

func unavailableFrom(r datasource.FetchResult) Unavailability {
	u := Unavailability{Ticker: r.Ticker, Reason: datasource.Reason(r.Err)}
	if r.Err != nil {
		u.Detail = r.Err.Error()
	} else {
		u.Reason = "no data returned"
	}
	return u
}
