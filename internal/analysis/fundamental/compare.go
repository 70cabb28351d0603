package fundamental

import (
	"fmt"
	"math"
)

// Direction states which way a ratio is better.
type Direction string

const (
	HigherIsBetter   Direction = "higher_is_better"
	LowerIsBetter    Direction = "lower_is_better"
	DirectionNeutral Direction = "neutral"
)

// Verdict classifies one ratio of the target against the benchmark.
type Verdict string

const (
	VerdictGood        Verdict = "good"
	VerdictPoor        Verdict = "poor"
	VerdictNeutral     Verdict = "neutral"
	VerdictDataMissing Verdict = "data_missing"
	VerdictNoBenchmark Verdict = "no_benchmark"
)

// Verdicts lists every verdict in display order.
func Verdicts() []Verdict {
	return []Verdict{VerdictGood, VerdictPoor, VerdictNeutral, VerdictDataMissing, VerdictNoBenchmark}
}

// DirectionPolicy assigns a Direction to each ratio. It is a value type;
// copies share nothing.
type DirectionPolicy struct {
	dirs [numRatios]Direction
}

// NewDirectionPolicy builds a policy from explicit assignments. Ratios not
// listed are neutral.
func NewDirectionPolicy(dirs map[Ratio]Direction) DirectionPolicy {
	var p DirectionPolicy
	for r, d := range dirs {
		if r.valid() {
			p.dirs[r] = d
		}
	}
	return p
}

// DefaultPolicy is the standard direction assignment: liquidity, coverage,
// margins, returns and turnover are higher-is-better; leverage is
// lower-is-better; valuation multiples are neutral.
func DefaultPolicy() DirectionPolicy {
	return NewDirectionPolicy(map[Ratio]Direction{
		CurrentRatio:      HigherIsBetter,
		QuickRatio:        HigherIsBetter,
		DebtToEquity:      LowerIsBetter,
		DebtToAssets:      LowerIsBetter,
		InterestCoverage:  HigherIsBetter,
		GrossProfitMargin: HigherIsBetter,
		NetProfitMargin:   HigherIsBetter,
		ROE:               HigherIsBetter,
		ROA:               HigherIsBetter,
		AssetTurnover:     HigherIsBetter,
		PERatio:           DirectionNeutral,
		EVToEBITDA:        DirectionNeutral,
		PriceToBook:       DirectionNeutral,
	})
}

// Direction returns the direction for r.
func (p DirectionPolicy) Direction(r Ratio) Direction {
	if !r.valid() {
		return DirectionNeutral
	}
	switch d := p.dirs[r]; d {
	case HigherIsBetter, LowerIsBetter:
		return d
	default:
		return DirectionNeutral
	}
}

// ComparisonRecord is the outcome for one ratio.
type ComparisonRecord struct {
	Ratio        Ratio     `json:"ratio"`
	Label        string    `json:"label"`
	Direction    Direction `json:"direction"`
	Target       *float64  `json:"target"`
	Benchmark    *float64  `json:"benchmark"`
	DeviationPct *float64  `json:"deviation_pct"`
	Verdict      Verdict   `json:"verdict"`
}

// Compare classifies every ratio of target against benchmark, one record
// per ratio in canonical order.
func Compare(target, benchmark RatioSet, policy DirectionPolicy) []ComparisonRecord {
	records := make([]ComparisonRecord, 0, numRatios)
	for _, r := range AllRatios() {
		records = append(records, compareOne(r, target, benchmark, policy.Direction(r)))
	}
	return records
}

func compareOne(r Ratio, target, benchmark RatioSet, dir Direction) ComparisonRecord {
	rec := ComparisonRecord{Ratio: r, Label: r.Label(), Direction: dir}

	t, ok := target.Get(r)
	if !ok {
		rec.Verdict = VerdictDataMissing
		return rec
	}
	rec.Target = &t

	b, ok := benchmark.Get(r)
	if !ok {
		rec.Verdict = VerdictNoBenchmark
		return rec
	}
	rec.Benchmark = &b

	if dev, ok := deviationPct(t, b); ok {
		rec.DeviationPct = &dev
	}

	switch dir {
	case HigherIsBetter:
		rec.Verdict = VerdictPoor
		if t > b {
			rec.Verdict = VerdictGood
		}
	case LowerIsBetter:
		rec.Verdict = VerdictPoor
		if t < b {
			rec.Verdict = VerdictGood
		}
	default:
		rec.Verdict = VerdictNeutral
	}
	return rec
}

// deviationPct is (t-b)/|b| as a percentage; a zero benchmark gives 0.
// Results too large to represent are dropped.
func deviationPct(t, b float64) (float64, bool) {
	if b == 0 {
		return 0, true
	}
	dev := (t - b) / math.Abs(b) * 100
	if math.IsNaN(dev) || math.IsInf(dev, 0) {
		return 0, false
	}
	return dev, true
}

// Tally counts comparison records by verdict.
type Tally struct {
	Good        int `json:"good" yaml:"good"`
	Poor        int `json:"poor" yaml:"poor"`
	Neutral     int `json:"neutral" yaml:"neutral"`
	DataMissing int `json:"data_missing" yaml:"data_missing"`
	NoBenchmark int `json:"no_benchmark" yaml:"no_benchmark"`
}

// CountVerdicts tallies records.
func CountVerdicts(records []ComparisonRecord) Tally {
	var t Tally
	for _, rec := range records {
		switch rec.Verdict {
		case VerdictGood:
			t.Good++
		case VerdictPoor:
			t.Poor++
		case VerdictNeutral:
			t.Neutral++
		case VerdictDataMissing:
			t.DataMissing++
		case VerdictNoBenchmark:
			t.NoBenchmark++
		}
	}
	return t
}

// Directional returns how many ratios received a Good or Poor verdict.
func (t Tally) Directional() int { return t.Good + t.Poor }

func (t Tally) String() string {
	return fmt.Sprintf("good=%d poor=%d neutral=%d missing=%d no_benchmark=%d",
		t.Good, t.Poor, t.Neutral, t.DataMissing, t.NoBenchmark)
}
