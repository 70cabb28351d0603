package fundamental

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/seenimoa/ratiobench/pkg/models"
)

// Ratio identifies one of the fixed financial ratios.
type Ratio int

// Canonical ratio order. Every RatioSet and every comparison follows it.
const (
	CurrentRatio Ratio = iota
	QuickRatio
	DebtToEquity
	DebtToAssets
	InterestCoverage
	GrossProfitMargin
	NetProfitMargin
	ROE
	ROA
	AssetTurnover
	PERatio
	EVToEBITDA
	PriceToBook

	numRatios
)

var ratioNames = [numRatios]string{
	CurrentRatio:      "current_ratio",
	QuickRatio:        "quick_ratio",
	DebtToEquity:      "debt_to_equity",
	DebtToAssets:      "debt_to_assets",
	InterestCoverage:  "interest_coverage",
	GrossProfitMargin: "gross_profit_margin",
	NetProfitMargin:   "net_profit_margin",
	ROE:               "roe",
	ROA:               "roa",
	AssetTurnover:     "asset_turnover",
	PERatio:           "pe_ratio",
	EVToEBITDA:        "ev_to_ebitda",
	PriceToBook:       "price_to_book",
}

var ratioLabels = [numRatios]string{
	CurrentRatio:      "Current Ratio",
	QuickRatio:        "Quick Ratio",
	DebtToEquity:      "Debt to Equity",
	DebtToAssets:      "Debt to Assets",
	InterestCoverage:  "Interest Coverage",
	GrossProfitMargin: "Gross Profit Margin",
	NetProfitMargin:   "Net Profit Margin",
	ROE:               "ROE",
	ROA:               "ROA",
	AssetTurnover:     "Asset Turnover",
	PERatio:           "P/E Ratio",
	EVToEBITDA:        "EV/EBITDA",
	PriceToBook:       "Price to Book",
}

// AllRatios returns every ratio in canonical order.
func AllRatios() []Ratio {
	all := make([]Ratio, numRatios)
	for i := range all {
		all[i] = Ratio(i)
	}
	return all
}

func (r Ratio) valid() bool { return r >= 0 && r < numRatios }

// String returns the snake_case identifier, e.g. "debt_to_equity".
func (r Ratio) String() string {
	if !r.valid() {
		return "Ratio(" + strconv.Itoa(int(r)) + ")"
	}
	return ratioNames[r]
}

// Label returns the display name, e.g. "Debt to Equity".
func (r Ratio) Label() string {
	if !r.valid() {
		return r.String()
	}
	return ratioLabels[r]
}

// ParseRatio resolves a snake_case identifier to its Ratio.
func ParseRatio(s string) (Ratio, error) {
	for i, name := range ratioNames {
		if name == s {
			return Ratio(i), nil
		}
	}
	return 0, fmt.Errorf("unknown ratio %q", s)
}

// MarshalText encodes the ratio as its identifier.
func (r Ratio) MarshalText() ([]byte, error) {
	if !r.valid() {
		return nil, fmt.Errorf("invalid ratio %d", int(r))
	}
	return []byte(ratioNames[r]), nil
}

// UnmarshalText decodes a ratio identifier.
func (r *Ratio) UnmarshalText(b []byte) error {
	parsed, err := ParseRatio(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RatioSet maps every ratio to a value or to "undefined".
// The zero value has every ratio undefined.
type RatioSet struct {
	values  [numRatios]float64
	defined [numRatios]bool
}

// NewRatioSet builds a set from explicit values. Ratios not present in the
// map, and non-finite values, are left undefined.
func NewRatioSet(values map[Ratio]float64) RatioSet {
	var s RatioSet
	for r, v := range values {
		s.put(r, v)
	}
	return s
}

func (s *RatioSet) put(r Ratio, v float64) {
	if !r.valid() || math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	s.values[r] = v
	s.defined[r] = true
}

// Get returns the value for r and whether it is defined.
func (s RatioSet) Get(r Ratio) (float64, bool) {
	if !r.valid() || !s.defined[r] {
		return 0, false
	}
	return s.values[r], true
}

// Value returns a copy of the value for r, or nil when undefined.
func (s RatioSet) Value(r Ratio) *float64 {
	v, ok := s.Get(r)
	if !ok {
		return nil
	}
	return &v
}

// Defined returns how many ratios carry a value.
func (s RatioSet) Defined() int {
	n := 0
	for _, ok := range s.defined {
		if ok {
			n++
		}
	}
	return n
}

// Empty reports whether no ratio is defined.
func (s RatioSet) Empty() bool { return s.Defined() == 0 }

// MarshalJSON writes the ratios as an object in canonical order,
// with null for undefined values.
func (s RatioSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range AllRatios() {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(r.String()))
		buf.WriteByte(':')
		if v, ok := s.Get(r); ok {
			buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		} else {
			buf.WriteString("null")
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keyed by ratio identifier. Unknown keys are
// rejected; null leaves the ratio undefined.
func (s *RatioSet) UnmarshalJSON(data []byte) error {
	var raw map[string]*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out RatioSet
	for name, v := range raw {
		r, err := ParseRatio(name)
		if err != nil {
			return err
		}
		if v != nil {
			out.put(r, *v)
		}
	}
	*s = out
	return nil
}

// CalculateRatios derives the ratio set for one entity. Nil or empty facts
// produce a set with every ratio undefined.
func CalculateRatios(facts *models.FinancialFacts) RatioSet {
	var s RatioSet
	if facts.IsEmpty() {
		return s
	}
	f := facts

	div := func(r Ratio, num, den *float64) {
		if v, ok := safeDivide(num, den); ok {
			s.put(r, v)
		}
	}

	// Liquidity.
	div(CurrentRatio, f.CurrentAssets, f.CurrentLiabilities)
	if f.CurrentAssets != nil {
		quick := *f.CurrentAssets - orZero(f.Inventory)
		div(QuickRatio, &quick, f.CurrentLiabilities)
	}

	// Leverage.
	div(DebtToEquity, f.TotalDebt, f.TotalEquity)
	div(DebtToAssets, f.TotalDebt, f.TotalAssets)
	div(InterestCoverage, f.EBIT, f.InterestExpense)

	// Profitability.
	div(GrossProfitMargin, f.GrossProfit, f.TotalRevenue)
	div(NetProfitMargin, f.NetIncome, f.TotalRevenue)

	avgEquity := (orZero(f.TotalEquity) + orZero(f.PriorTotalEquity)) / 2
	avgAssets := (orZero(f.TotalAssets) + orZero(f.PriorTotalAssets)) / 2
	div(ROE, f.NetIncome, &avgEquity)
	div(ROA, f.NetIncome, &avgAssets)
	div(AssetTurnover, f.TotalRevenue, &avgAssets)

	// Valuation.
	div(PERatio, f.SharePrice, f.EPS)
	ev := orZero(f.MarketCap) + orZero(f.TotalDebt) - orZero(f.Cash)
	div(EVToEBITDA, &ev, f.EBITDA)
	div(PriceToBook, f.SharePrice, f.BookValuePerShare)

	return s
}

// safeDivide is the only arithmetic used for ratios: an absent numerator,
// an absent or zero denominator, or a non-finite quotient is undefined.
func safeDivide(num, den *float64) (float64, bool) {
	if num == nil || den == nil || *den == 0 {
		return 0, false
	}
	q := *num / *den
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 0, false
	}
	return q, true
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
