package fundamental

import (
	"strconv"

	"github.com/seenimoa/ratiobench/pkg/models"
)

// PeerEntry represents a single entity in a comparison.
type PeerEntry struct {
	Ticker    string                 `json:"ticker"`
	Name      string                 `json:"name,omitempty"`
	Facts     *models.FinancialFacts `json:"facts,omitempty"`
	Ratios    RatioSet               `json:"ratios"`
	Available bool                   `json:"available"`
	Reason    string                 `json:"reason,omitempty"` // why the entity is unavailable
}

// NewPeerEntry computes the ratio set for one fetched entity. A non-nil
// err marks the entity unavailable and its facts are dropped.
func NewPeerEntry(ticker string, facts *models.FinancialFacts, err error) PeerEntry {
	if err != nil {
		return PeerEntry{Ticker: ticker, Reason: err.Error()}
	}
	return PeerEntry{
		Ticker:    ticker,
		Facts:     facts,
		Ratios:    CalculateRatios(facts),
		Available: true,
	}
}

// RelativeMetric places the target within the peer distribution of one ratio.
type RelativeMetric struct {
	Ratio       Ratio   `json:"ratio"`
	TargetValue float64 `json:"target_value"`
	PeerAvg     float64 `json:"peer_avg"`
	PeerMedian  float64 `json:"peer_median"`
	PeerCount   int     `json:"peer_count"`
	Percentile  float64 `json:"percentile"` // 0-100, share of peers the target beats
}

// PeerComparison holds comparative analysis across peers.
type PeerComparison struct {
	Target    PeerEntry          `json:"target"`
	Peers     []PeerEntry        `json:"peers"`
	Benchmark RatioSet           `json:"benchmark"`
	Records   []ComparisonRecord `json:"records"`
	Relative  []RelativeMetric   `json:"relative,omitempty"`
	Tally     Tally              `json:"tally"`
	Summary   string             `json:"summary"`
}

// ComparePeers benchmarks a target against its peers. Unavailable peers
// are reported but do not contribute to the benchmark.
func ComparePeers(target PeerEntry, peers []PeerEntry, policy DirectionPolicy) PeerComparison {
	pc := PeerComparison{
		Target: target,
		Peers:  peers,
	}

	sets := make([]RatioSet, 0, len(peers))
	for _, p := range peers {
		if p.Available {
			sets = append(sets, p.Ratios)
		}
	}

	pc.Benchmark = AverageRatios(sets)
	pc.Records = Compare(target.Ratios, pc.Benchmark, policy)
	pc.Relative = RelativeValuationMetrics(target.Ratios, sets, policy)
	pc.Tally = CountVerdicts(pc.Records)
	pc.Summary = buildPeerSummary(target.Ticker, pc.Tally)

	return pc
}

// AvailablePeers returns the number of peers with data.
func (pc PeerComparison) AvailablePeers() int {
	n := 0
	for _, p := range pc.Peers {
		if p.Available {
			n++
		}
	}
	return n
}

// RelativeValuationMetrics computes the target's standing within the peer
// distribution for every ratio both sides define. For neutral ratios the
// percentile counts peers below the target.
func RelativeValuationMetrics(target RatioSet, peers []RatioSet, policy DirectionPolicy) []RelativeMetric {
	var results []RelativeMetric

	for _, r := range AllRatios() {
		tv, ok := target.Get(r)
		if !ok {
			continue
		}
		vals := definedValues(peers, r)
		if len(vals) == 0 {
			continue
		}

		// Percentile rank.
		beaten := 0
		for _, v := range vals {
			if policy.Direction(r) == LowerIsBetter {
				// For lower-is-better, count how many peers are above (worse).
				if v > tv {
					beaten++
				}
			} else if v < tv {
				beaten++
			}
		}

		results = append(results, RelativeMetric{
			Ratio:       r,
			TargetValue: tv,
			PeerAvg:     avgFloat(vals),
			PeerMedian:  medianFloat(vals),
			PeerCount:   len(vals),
			Percentile:  float64(beaten) / float64(len(vals)) * 100,
		})
	}

	return results
}

func buildPeerSummary(ticker string, t Tally) string {
	n := t.Directional()
	if n == 0 {
		return ticker + ": no directional ratio could be compared with the peer benchmark"
	}
	share := float64(t.Good) / float64(n) * 100
	lead := ticker + " beats the peer benchmark on " + strconv.Itoa(t.Good) + " of " + strconv.Itoa(n) + " directional ratios"
	switch {
	case share >= 80:
		return lead + ", strong relative fundamentals"
	case share >= 60:
		return lead + ", above the peer average"
	case share >= 40:
		return lead + ", in line with peers"
	case share >= 20:
		return lead + ", below the peer average"
	default:
		return lead + ", weak relative position"
	}
}
